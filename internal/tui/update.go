package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m.refreshRows(time.Time(msg))

		if m.quitWhenDone && m.allIdle() {
			m.quitting = true
			return m, tea.Quit
		}

		return m, m.tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the box borders and the percentage text.
		width := min(max(msg.Width-boxOverhead, MinProgressBarWidth), MaxProgressBarWidth)
		for i := range m.bars {
			m.bars[i].Width = width
		}

		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.devices)-1 {
			m.selected++
		}

	case "p", " ":
		m.togglePause()

	case "d":
		m.opts.Detailed = !m.opts.Detailed
	}

	m.refreshRows(m.clock())

	return m, nil
}

func (m *Model) togglePause() {
	if m.selected >= len(m.devices) {
		return
	}

	d := m.devices[m.selected]
	now := m.clock()

	var err error
	if d.Paused() {
		err = d.Resume(now)
	} else {
		err = d.Pause(now)
	}

	if err != nil {
		m.logger.Warn().Err(err).Str("device", d.Name).Msg("cannot toggle pause")
	}
}
