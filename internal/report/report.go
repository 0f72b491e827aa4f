// Package report renders device progress as plain text, one block per device:
//
//	 0: r0/data cs:SyncSource
//		[=====>..............] sync'ed: 33.5% (23456/123456)K
//		finish: 0:01:29 speed: 2,777 (2,777 -- 1,000) K/sec
//		 33% sector pos: 1234/9876
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/joe/resync-progress/internal/driver"
	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/pkg/formatters"
)

// Exported constants.
const (
	// IdleState is shown in the header of a device with no operation running.
	IdleState = "Idle"
	// mebiThresholdGiB is the total size above which totals switch to M.
	mebiThresholdGiB = 4
	gibShift         = 30
)

// Header writes the device line, e.g. " 0: r0/data cs:SyncTarget".
func Header(w io.Writer, minor int, name, state string) error {
	_, err := fmt.Fprintf(w, "%2d: %s cs:%s\n", minor, name, state)
	return err
}

// Render writes the progress lines for one snapshot. unitShift is log2 of the
// bytes per work unit; speeds and totals are shown in KiB.
func Render(w io.Writer, snap estimator.ProgressSnapshot, unitShift uint) error {
	lines := []string{BarLine(snap, unitShift), SpeedLine(snap, unitShift)}
	if snap.HasPosition {
		lines = append(lines, PositionLine(snap, unitShift))
	}

	var out strings.Builder

	for _, line := range lines {
		out.WriteString("\t")
		out.WriteString(line)
		out.WriteString("\n")
	}

	_, err := io.WriteString(w, out.String())

	return err
}

// Write renders every device in order, querying each with opts.
func Write(w io.Writer, devices []*driver.Device, opts estimator.Options) error {
	for _, d := range devices {
		snap, ok := d.Progress(opts)

		state := IdleState
		if ok {
			state = snap.Kind.String()
		}

		if err := Header(w, d.Minor, d.Name, state); err != nil {
			return err
		}

		if !ok {
			continue
		}

		if err := Render(w, snap, d.UnitShift); err != nil {
			return err
		}
	}

	return nil
}

// BarLine formats the bar and completed fraction, e.g.
// "[=====>..............] sync'ed: 33.5% (23456/123456)K".
func BarLine(snap estimator.ProgressSnapshot, unitShift uint) string {
	return formatters.RenderBar(snap.PermilleDone) + " " + TotalsText(snap, unitShift)
}

// TotalsText formats the completed fraction without the bar.
func TotalsText(snap estimator.ProgressSnapshot, unitShift uint) string {
	label := "sync'ed:"
	if snap.Kind.IsVerify() {
		label = "verified:"
	}

	left := formatters.UnitsToKiB(snap.Remaining, unitShift)
	total := formatters.UnitsToKiB(snap.Total, unitShift)
	unit := "K"

	if snap.Total > mebiThresholdUnits(unitShift) {
		left >>= formatters.KiBShift
		total >>= formatters.KiBShift
		unit = "M"
	}

	return fmt.Sprintf("%s%s (%d/%d)%s",
		label, formatters.FormatPermille(snap.PermilleDone), left, total, unit)
}

// SpeedLine formats the ETA and the speed averages in KiB/s, e.g.
// "finish: 0:01:29 speed: 2,777 (2,777 -- 1,000) want: 10,240 K/sec".
func SpeedLine(snap estimator.ProgressSnapshot, unitShift uint) string {
	kib := func(units estimator.WorkUnit) string {
		return formatters.FormatThousands(formatters.UnitsToKiB(units, unitShift))
	}

	var out strings.Builder

	fmt.Fprintf(&out, "finish: %s speed: %s (", formatters.FormatClock(snap.ETA), kib(snap.Short.Rate))

	if snap.HasVeryShort {
		fmt.Fprintf(&out, "%s -- ", kib(snap.VeryShort.Rate))
	}

	out.WriteString(kib(snap.Long.Rate))
	out.WriteString(")")

	if snap.HasTargetRate {
		fmt.Fprintf(&out, " want: %s", kib(snap.TargetRate))
	}

	out.WriteString(" K/sec")

	if snap.Stalled {
		out.WriteString(" (stalled)")
	}

	return out.String()
}

// PositionLine formats the bitmap position in sectors, e.g. " 12% sector pos: 1234/9876".
func PositionLine(snap estimator.ProgressSnapshot, unitShift uint) string {
	pos := snap.Position

	return fmt.Sprintf("%3d%% sector pos: %d/%d",
		pos.Percent,
		formatters.UnitsToSectors(pos.Bit, unitShift),
		formatters.UnitsToSectors(pos.Bits, unitShift))
}

func mebiThresholdUnits(unitShift uint) estimator.WorkUnit {
	if unitShift >= gibShift {
		return mebiThresholdGiB >> (unitShift - gibShift)
	}

	return mebiThresholdGiB << (gibShift - unitShift)
}
