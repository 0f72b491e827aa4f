package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joe/resync-progress/internal/report"
	pkgerrors "github.com/joe/resync-progress/pkg/errors"
	"github.com/joe/resync-progress/pkg/formatters"
)

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Resync progress"))
	b.WriteString("\n")

	if len(m.devices) == 0 {
		b.WriteString(RenderDim("No devices match the filter."))
		b.WriteString("\n")
	}

	boxes := make([]string, 0, len(m.devices))
	for i := range m.devices {
		boxes = append(boxes, m.renderDevice(i))
	}

	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...))
	b.WriteString("\n")
	b.WriteString(RenderDim("↑/↓ select • p pause/resume • d detail • q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *Model) renderDevice(i int) string {
	d := m.devices[i]
	row := m.rows[i]

	marker := "  "
	style := BoxStyle()

	if i == m.selected {
		marker = SelectedMarker
		style = SelectedBoxStyle()
	}

	lines := []string{marker + RenderLabel(fmt.Sprintf("%d: %s", d.Minor, d.Name)) + " " + m.stateText(row)}

	if row.active {
		snap := row.snap

		lines = append(lines, RenderProgress(m.bars[i], snap.PermilleDone)+" "+report.TotalsText(snap, d.UnitShift))

		speed := report.SpeedLine(snap, d.UnitShift)
		if snap.Stalled {
			speed = RenderWarning(speed)
		}

		lines = append(lines, speed)

		if snap.HasPosition {
			lines = append(lines, RenderDim(report.PositionLine(snap, d.UnitShift)))
		}

		if snap.Diagnostic != nil {
			lines = append(lines,
				RenderError(snap.Diagnostic.Error()),
				RenderDim(pkgerrors.FormatSuggestions(m.enricher.Enrich(snap.Diagnostic, ""))))
		}
	}

	if m.width > 0 {
		style = style.Width(m.width - DefaultPadding)
	}

	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) stateText(row deviceRow) string {
	switch {
	case row.paused:
		return RenderWarning("cs:" + row.snap.Kind.String() + " (paused)")
	case row.active:
		return RenderDim("cs:" + row.snap.Kind.String() + " " + formatters.FormatPermille(row.snap.PermilleDone))
	case row.finished:
		return RenderSuccess("finished")
	default:
		return RenderDim("cs:" + report.IdleState)
	}
}
