// Package tui is the live resync monitor: one box per device with a progress
// bar, the speed averages and the ETA, refreshed on a timer.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joe/resync-progress/internal/driver"
	"github.com/joe/resync-progress/internal/estimator"
	pkgerrors "github.com/joe/resync-progress/pkg/errors"
)

// Options configures the monitor.
type Options struct {
	// Estimate is passed to every progress query; Now is filled per refresh.
	Estimate estimator.Options
	// Refresh is the redraw interval; zero means RefreshInterval.
	Refresh time.Duration
	// Clock returns the current time; nil means time.Now.
	Clock func() time.Time
	// QuitWhenDone exits once no device has an operation running.
	QuitWhenDone bool
	Logger       zerolog.Logger
}

// TickMsg is a message sent on each refresh interval
type TickMsg time.Time

// deviceRow is the last queried state of one device.
type deviceRow struct {
	snap     estimator.ProgressSnapshot
	active   bool
	paused   bool
	finished bool
}

// Model is the monitor's bubbletea model.
type Model struct {
	devices []*driver.Device
	rows    []deviceRow
	bars    []progress.Model

	opts     estimator.Options
	refresh  time.Duration
	clock    func() time.Time
	logger   zerolog.Logger
	enricher pkgerrors.Enricher
	selected int

	quitWhenDone bool
	quitting     bool
	width        int
	height       int
}

// NewModel creates a monitor for devices, shown in the given order.
func NewModel(devices []*driver.Device, opts Options) *Model {
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = RefreshInterval
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	bars := make([]progress.Model, len(devices))
	for i := range bars {
		bars[i] = NewProgressModel(ProgressBarWidth)
	}

	enricher := pkgerrors.NewEnricher(map[pkgerrors.ErrorCategory][]error{
		pkgerrors.CategoryCounters: {estimator.ErrRemainingExceedsTotal},
	})

	m := &Model{
		devices:      devices,
		rows:         make([]deviceRow, len(devices)),
		bars:         bars,
		opts:         opts.Estimate,
		refresh:      refresh,
		clock:        clock,
		logger:       opts.Logger,
		enricher:     enricher,
		quitWhenDone: opts.QuitWhenDone,
	}
	m.refreshRows(clock())

	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Selected returns the index of the selected device.
func (m *Model) Selected() int {
	return m.selected
}

// Quitting reports whether the monitor is shutting down.
func (m *Model) Quitting() bool {
	return m.quitting
}

// tickCmd returns a command that sends a TickMsg after the refresh interval
func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) refreshRows(now time.Time) {
	opts := m.opts
	opts.Now = now

	for i, d := range m.devices {
		snap, active := d.Progress(opts)
		m.rows[i] = deviceRow{
			snap:     snap,
			active:   active,
			paused:   active && d.Paused(),
			finished: !active && d.RunID() != uuid.Nil,
		}
	}
}

func (m *Model) allIdle() bool {
	for _, row := range m.rows {
		if row.active {
			return false
		}
	}

	return true
}
