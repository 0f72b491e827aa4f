package driver

import (
	"time"

	"github.com/joe/resync-progress/internal/estimator"
)

// Workload moves a device's operation forward between marks.
type Workload interface {
	Advance(d *Device, elapsed time.Duration)
}

// SimulatedWorkload completes work at a fixed rate. It stands in for the
// replication layer when the monitor runs without real devices.
type SimulatedWorkload struct {
	// Rate is the units completed per second.
	Rate estimator.WorkUnit
	// FailEvery fails one unit out of every FailEvery; zero never fails.
	FailEvery estimator.WorkUnit
	// DirtyEvery re-dirties one unit out of every DirtyEvery, as application
	// writes landing behind the resync do; zero never re-dirties.
	DirtyEvery estimator.WorkUnit

	carry time.Duration // time not yet converted into whole units
}

// Advance completes the units that fit into elapsed at Rate.
func (w *SimulatedWorkload) Advance(d *Device, elapsed time.Duration) {
	if w.Rate == 0 || elapsed <= 0 {
		return
	}

	elapsed += w.carry
	perUnit := time.Second / time.Duration(w.Rate)

	if perUnit == 0 {
		// Rates above one unit per nanosecond
		w.carry = 0
		d.Complete(w.Rate * uint64(elapsed/time.Second))

		return
	}

	units := uint64(elapsed / perUnit)
	w.carry = elapsed % perUnit

	var failed estimator.WorkUnit
	if w.FailEvery > 0 {
		failed = units / w.FailEvery
	}

	d.Complete(units - failed)
	d.Fail(failed)

	if w.DirtyEvery > 0 {
		d.AddOutstanding(units / w.DirtyEvery)
	}
}
