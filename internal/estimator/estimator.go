// Package estimator turns a resync operation's counters and its sample history
// into a progress report: per-mille done, ETA, short/very-short/long speed
// averages, and stall detection. All arithmetic is integer arithmetic; nothing
// in this package mutates the state it reads.
package estimator

import (
	"errors"
	"time"

	"github.com/joe/resync-progress/internal/history"
)

// Exported constants.
const (
	// DefaultTickInterval is how often the driver appends a sample.
	DefaultTickInterval = 3 * time.Second
	// VeryShortWindowAge is the sample the very-short average compares against.
	VeryShortWindowAge = 1
	// settledAgeOffset keeps the short window off the slot the next append overwrites.
	settledAgeOffset = 2
)

// WorkUnit is one indivisible block of resync work (one bitmap bit).
type WorkUnit = uint64

// SyncState is the driver-owned view of a running operation.
type SyncState struct {
	Kind OperationKind
	// Total is the work the operation started with.
	Total WorkUnit
	// OutstandingWeight is the live out-of-sync bitmap weight (sync kinds).
	OutstandingWeight WorkUnit
	// Failed is work permanently marked failed (sync kinds).
	Failed WorkUnit
	// VerifyRemaining is the work left to verify (verify kinds).
	VerifyRemaining WorkUnit
	StartTime       time.Time
	PausedDuration  time.Duration
	// TargetRate is the configured throughput ceiling in units per second.
	TargetRate WorkUnit
	// BitmapBits is the size of the whole bitmap, used for the position report.
	BitmapBits WorkUnit
	// ResyncPosition is the bitmap offset the resync has reached.
	ResyncPosition WorkUnit
}

// Options controls a single Estimate call.
type Options struct {
	// Now is the evaluation time; zero means the estimator's clock.
	Now time.Time
	// Detailed adds the very-short window and the position report.
	Detailed bool
	// TickInterval is the sampling cadence; zero means DefaultTickInterval.
	TickInterval time.Duration
	Arithmetic   Arithmetic
}

// Position is where in the bitmap the operation currently is.
type Position struct {
	Bit     WorkUnit
	Bits    WorkUnit
	Percent uint64
}

// ProgressSnapshot is the result of one progress query.
type ProgressSnapshot struct {
	Kind         OperationKind
	Total        WorkUnit
	Remaining    WorkUnit
	PermilleDone uint32
	ETA          time.Duration

	Short        Window
	VeryShort    Window
	HasVeryShort bool
	Long         Window

	TargetRate    WorkUnit
	HasTargetRate bool

	Stalled bool

	Position    Position
	HasPosition bool

	// Diagnostic is set when the counters were inconsistent; the numeric
	// fields are then clamped rather than computed.
	Diagnostic error
}

// Samples is the read side of a sample history. Both *history.History and
// history.Snapshot satisfy it.
type Samples interface {
	AtOrOldest(age int) (history.Sample, bool)
	Cap() int
}

// Estimator computes progress snapshots. It is safe for concurrent use once
// configured; the inputs it is handed must be stable for the duration of a call.
type Estimator struct {
	emitter EventEmitter
	clock   func() time.Time
}

// NewEstimator creates an estimator using the wall clock.
func NewEstimator() *Estimator {
	return &Estimator{clock: time.Now}
}

// SetEventEmitter sets where diagnostics are reported. nil disables them.
func (e *Estimator) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// GetEventEmitter returns the configured event emitter.
func (e *Estimator) GetEventEmitter() EventEmitter {
	return e.emitter
}

// SetClock replaces the clock used when Options.Now is zero.
func (e *Estimator) SetClock(clock func() time.Time) {
	e.clock = clock
}

// ComputeRemaining returns the work left for the operation. Verify passes count
// it directly; syncs derive it from the outstanding bitmap weight minus failed
// units. A result larger than Total is returned together with a
// *RemainingExceedsTotalError.
func ComputeRemaining(state SyncState) (WorkUnit, error) {
	var remaining WorkUnit

	switch {
	case state.Kind.IsVerify():
		remaining = state.VerifyRemaining
	case state.OutstandingWeight > state.Failed:
		remaining = state.OutstandingWeight - state.Failed
	}

	if remaining > state.Total {
		return remaining, &RemainingExceedsTotalError{
			Kind:      state.Kind,
			Remaining: remaining,
			Total:     state.Total,
			Failed:    state.Failed,
		}
	}

	return remaining, nil
}

// Estimate computes a progress snapshot for state against its sample history.
// It never fails: inconsistent counters produce a clamped snapshot with
// Diagnostic set, and a RemainingExceedsTotal event.
func (e *Estimator) Estimate(state SyncState, samples Samples, opts Options) ProgressSnapshot {
	now := opts.Now
	if now.IsZero() {
		now = e.now()
	}

	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}

	snap := ProgressSnapshot{Kind: state.Kind, Total: state.Total}

	if state.Kind.WantsTargetRate() {
		snap.TargetRate = state.TargetRate
		snap.HasTargetRate = true
	}

	if opts.Detailed {
		snap.Position = positionOf(state)
		snap.HasPosition = true
	}

	remaining, err := ComputeRemaining(state)
	snap.Remaining = remaining

	if err != nil {
		snap.Diagnostic = err
		snap.HasVeryShort = opts.Detailed

		var exceeded *RemainingExceedsTotalError
		if errors.As(err, &exceeded) {
			e.emit(RemainingExceedsTotal{Err: exceeded})
		}

		return snap
	}

	snap.PermilleDone = percentDone(remaining, state.Total, opts.Arithmetic)

	// Paused periods are cut out of the long-term average.
	origin := history.Sample{Timestamp: state.StartTime.Add(state.PausedDuration), Remaining: state.Total}
	snap.Long = Speed(origin.Timestamp, origin.Remaining, remaining, now)

	capacity := history.DefaultCapacity
	if samples != nil && samples.Cap() > 0 {
		capacity = samples.Cap()
	}

	short := sampleAt(samples, capacity-settledAgeOffset, origin)
	snap.Short = Speed(short.Timestamp, short.Remaining, remaining, now)
	snap.Stalled = IsStalled(snap.Short.Elapsed, capacity, tick)
	snap.ETA = ETA(snap.Short.Elapsed, remaining, snap.Short.Delta)

	if opts.Detailed {
		veryShort := sampleAt(samples, VeryShortWindowAge, origin)
		snap.VeryShort = Speed(veryShort.Timestamp, veryShort.Remaining, remaining, now)
		snap.HasVeryShort = true
	}

	return snap
}

func (e *Estimator) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Estimator) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}

	return e.clock()
}

// sampleAt falls back to the operation origin when no mark has been taken yet,
// including for a nil or typed-nil history.
func sampleAt(samples Samples, age int, origin history.Sample) history.Sample {
	if samples == nil {
		return origin
	}

	sample, ok := samples.AtOrOldest(age)
	if !ok {
		return origin
	}

	return sample
}

func positionOf(state SyncState) Position {
	pos := Position{Bits: state.BitmapBits, Bit: state.ResyncPosition}

	if state.Kind.IsVerify() {
		pos.Bit = 0
		if state.BitmapBits > state.VerifyRemaining {
			pos.Bit = state.BitmapBits - state.VerifyRemaining
		}
	}

	pos.Percent = pos.Bit / (pos.Bits/100 + 1) //nolint:mnd // whole percent

	return pos
}
