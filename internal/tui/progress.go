package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/pkg/formatters"
)

//nolint:gochecknoglobals // Terminal capability detected once at startup
var colorsDisabled = detectColorsDisabled()

// GetColorsDisabled reports whether the ASCII fallback is in use.
func GetColorsDisabled() bool {
	return colorsDisabled
}

// SetColorsDisabledForTesting overrides terminal detection. Not safe for parallel tests.
func SetColorsDisabledForTesting(disabled bool) {
	colorsDisabled = disabled
}

// NewProgressModel creates a new progress bar model with the specified width.
func NewProgressModel(width int) progress.Model {
	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = width
	progressBar.ShowPercentage = false // We render percentage ourselves

	// Apply custom colors if not disabled
	if !colorsDisabled {
		progressBar.EmptyColor = dimColorCode
		progressBar.FullColor = accentColorCode
	}

	return progressBar
}

// RenderProgress renders a per-mille value using either Bubble Tea's progress bar
// or the plain "[==>...]" bar when NO_COLOR is set or TERM=dumb.
func RenderProgress(model progress.Model, permille uint32) string {
	if colorsDisabled {
		return formatters.RenderBarWidth(permille, model.Width)
	}

	return model.ViewAs(float64(min(permille, estimator.PermilleScale)) / estimator.PermilleScale)
}

func detectColorsDisabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}

	return os.Getenv("TERM") == "dumb"
}
