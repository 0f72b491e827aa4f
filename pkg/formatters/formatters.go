// Package formatters provides text formatting helpers for progress displays.
package formatters

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Exported constants.
const (
	// BarWidth is the number of cells in a progress bar.
	BarWidth = 20
	// PermilleScale is 100% expressed in tenths of a percent.
	PermilleScale = 1000
	// KiBShift converts between bytes and KiB.
	KiBShift = 10
	// SectorShift converts between bytes and 512-byte sectors.
	SectorShift = 9
)

// FormatThousands groups the digits of v in threes with commas, e.g. 6345 -> "6,345".
func FormatThousands(v uint64) string {
	digits := strconv.FormatUint(v, 10)
	if len(digits) <= 3 {
		return digits
	}

	var out strings.Builder

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}

	out.WriteString(digits[:lead])

	for i := lead; i < len(digits); i += 3 {
		out.WriteByte(',')
		out.WriteString(digits[i : i+3])
	}

	return out.String()
}

// RenderBar renders a BarWidth-cell bar for a per-mille value, e.g.
// "[=========>..........]" at 500. Each cell is 5%.
func RenderBar(permille uint32) string {
	return RenderBarWidth(permille, BarWidth)
}

// RenderBarWidth renders a bar of width cells. The marker occupies the last
// filled cell, so 0 shows a lone marker and 1000 fills every cell.
func RenderBarWidth(permille uint32, width int) string {
	width = max(width, 1)
	permille = min(permille, PermilleScale)

	filled := int(uint64(permille) * uint64(width) / PermilleScale)
	equals := max(filled-1, 0)
	dots := width - equals - 1

	var bar strings.Builder

	bar.WriteByte('[')
	bar.WriteString(strings.Repeat("=", equals))
	bar.WriteByte('>')
	bar.WriteString(strings.Repeat(".", dots))
	bar.WriteByte(']')

	return bar.String()
}

// FormatPermille formats tenths of a percent as e.g. " 33.5%".
func FormatPermille(permille uint32) string {
	return fmt.Sprintf("%3d.%d%%", permille/10, permille%10) //nolint:mnd // tenths
}

// FormatClock formats a duration as h:mm:ss, truncating to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	secs := uint64(d / time.Second)

	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60) //nolint:mnd // clock arithmetic
}

// UnitsToKiB converts a count of 2^unitShift-byte units into KiB.
func UnitsToKiB(units uint64, unitShift uint) uint64 {
	return convert(units, unitShift, KiBShift)
}

// UnitsToSectors converts a count of 2^unitShift-byte units into 512-byte sectors.
func UnitsToSectors(units uint64, unitShift uint) uint64 {
	return convert(units, unitShift, SectorShift)
}

// FormatBytes formats bytes into human-readable format (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func convert(units uint64, fromShift, toShift uint) uint64 {
	if fromShift >= toShift {
		return units << (fromShift - toShift)
	}

	return units >> (toShift - fromShift)
}
