// Package driver runs resync operations for a set of devices: it owns each
// device's counters and sample history, marks forward progress every tick, and
// answers progress queries from a consistent copy of that state.
package driver

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/internal/history"
	"github.com/joe/resync-progress/internal/logger"
)

// Exported constants.
const (
	// DefaultUnitShift makes one work unit a 4 KiB block.
	DefaultUnitShift = 12
)

// Exported variables.
var (
	ErrOperationActive = errors.New("operation already running")
	ErrNoOperation     = errors.New("no operation running")
	ErrEmptyOperation  = errors.New("operation has no work")
)

// Operation describes a resync or verify pass to start on a device.
type Operation struct {
	Kind  estimator.OperationKind
	Total estimator.WorkUnit
	// BitmapBits is the full bitmap size; zero means Total.
	BitmapBits estimator.WorkUnit
	// TargetRate is the configured ceiling in units per second.
	TargetRate estimator.WorkUnit
}

// DeviceOptions configures a Device.
type DeviceOptions struct {
	// Capacity is the number of marks kept; zero means history.DefaultCapacity.
	Capacity int
	// UnitShift is log2 of the bytes per work unit; zero means DefaultUnitShift.
	UnitShift uint
	// Emitter receives estimator diagnostics; nil logs them through Logger.
	Emitter estimator.EventEmitter
	Logger  zerolog.Logger
}

// Device is one replicated volume and the resync operation running on it.
// Counters and marks are only changed under mu; Progress reads a copy.
type Device struct {
	Name      string
	Minor     int
	UnitShift uint

	mu       sync.RWMutex
	state    estimator.SyncState
	marks    *history.History
	active   bool
	paused   bool
	pausedAt time.Time
	runID    uuid.UUID

	estimator    *estimator.Estimator
	logger       zerolog.Logger
	stalled      atomic.Bool
	inconsistent atomic.Bool
}

// NewDevice creates an idle device.
func NewDevice(name string, minor int, opts DeviceOptions) *Device {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = history.DefaultCapacity
	}

	unitShift := opts.UnitShift
	if unitShift == 0 {
		unitShift = DefaultUnitShift
	}

	log := opts.Logger.With().Str("device", name).Int("minor", minor).Logger()

	emitter := opts.Emitter
	if emitter == nil {
		emitter = LogEmitter{Logger: logger.WithComponent(log, "estimator")}
	}

	d := &Device{
		Name:      name,
		Minor:     minor,
		UnitShift: unitShift,
		marks:     history.New(capacity),
		estimator: estimator.NewEstimator(),
		logger:    log,
	}
	d.estimator.SetEventEmitter(edgeEmitter{next: emitter, inconsistent: &d.inconsistent})

	return d
}

// StartOperation begins op at now and records the first mark.
func (d *Device) StartOperation(op Operation, now time.Time) (uuid.UUID, error) {
	if op.Total == 0 {
		return uuid.Nil, ErrEmptyOperation
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return uuid.Nil, ErrOperationActive
	}

	bits := op.BitmapBits
	if bits < op.Total {
		bits = op.Total
	}

	d.state = estimator.SyncState{
		Kind:       op.Kind,
		Total:      op.Total,
		StartTime:  now,
		TargetRate: op.TargetRate,
		BitmapBits: bits,
	}

	if op.Kind.IsVerify() {
		d.state.VerifyRemaining = op.Total
	} else {
		d.state.OutstandingWeight = op.Total
	}

	d.active = true
	d.paused = false
	d.runID = uuid.New()
	d.stalled.Store(false)
	d.inconsistent.Store(false)

	d.marks.Reset()
	d.marks.Append(history.Sample{Timestamp: now, Remaining: op.Total})

	d.logger.Info().
		Str("run_id", d.runID.String()).
		Str("kind", op.Kind.String()).
		Uint64("total", op.Total).
		Msg("operation started")

	return d.runID, nil
}

// Complete records units of finished work.
func (d *Device) Complete(units estimator.WorkUnit) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.advance(units, 0)
}

// Fail records units that could not be resynced; they stay in the bitmap.
func (d *Device) Fail(units estimator.WorkUnit) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.advance(0, units)
}

// AddOutstanding records units newly marked out of sync while the operation runs.
func (d *Device) AddOutstanding(units estimator.WorkUnit) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active && !d.state.Kind.IsVerify() {
		d.state.OutstandingWeight += units
	}
}

// Pause stops the operation's clock for the long-term average.
func (d *Device) Pause(now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return ErrNoOperation
	}

	if !d.paused {
		d.paused = true
		d.pausedAt = now
		d.logger.Info().Str("run_id", d.runID.String()).Msg("operation paused")
	}

	return nil
}

// Resume restarts a paused operation and accounts the paused time.
func (d *Device) Resume(now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return ErrNoOperation
	}

	if d.paused {
		d.paused = false
		d.state.PausedDuration += now.Sub(d.pausedAt)
		d.logger.Info().
			Str("run_id", d.runID.String()).
			Dur("paused", d.state.PausedDuration).
			Msg("operation resumed")
	}

	return nil
}

// Mark appends a sample of the current remaining work. Nothing is appended
// while paused or when remaining has not moved since the newest mark, so the
// settled mark ages and a device without progress reads as stalled.
// It reports whether a mark was appended.
func (d *Device) Mark(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active || d.paused {
		return false
	}

	// An inconsistent count is still recorded; Progress reports it.
	remaining, _ := estimator.ComputeRemaining(d.state)

	if newest, err := d.marks.At(0); err == nil && newest.Remaining == remaining {
		return false
	}

	d.marks.Append(history.Sample{Timestamp: now, Remaining: remaining})

	return true
}

// Finish ends the operation.
func (d *Device) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return
	}

	d.active = false
	d.logger.Info().
		Str("run_id", d.runID.String()).
		Uint64("failed", d.state.Failed).
		Msg("operation finished")
}

// Progress returns a progress snapshot computed from a consistent copy of the
// device state. The second result is false when no operation is running.
func (d *Device) Progress(opts estimator.Options) (estimator.ProgressSnapshot, bool) {
	d.mu.RLock()
	active := d.active
	state := d.state
	marks := d.marks.Snapshot()
	runID := d.runID
	d.mu.RUnlock()

	if !active {
		return estimator.ProgressSnapshot{}, false
	}

	snap := d.estimator.Estimate(state, marks, opts)

	if d.stalled.Swap(snap.Stalled) != snap.Stalled {
		d.logger.Warn().
			Str("run_id", runID.String()).
			Bool("stalled", snap.Stalled).
			Uint64("elapsed_s", snap.Short.Elapsed).
			Msg("stall state changed")
	}

	if snap.Diagnostic == nil && d.inconsistent.CompareAndSwap(true, false) {
		d.logger.Info().
			Str("run_id", runID.String()).
			Uint64("remaining", snap.Remaining).
			Msg("counters consistent again")
	}

	return snap, true
}

// State returns a copy of the device counters.
func (d *Device) State() estimator.SyncState {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.state
}

// Active reports whether an operation is running.
func (d *Device) Active() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.active
}

// Paused reports whether the running operation is paused.
func (d *Device) Paused() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.paused
}

// Done reports whether a running operation has no work left.
func (d *Device) Done() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.active {
		return false
	}

	remaining, err := estimator.ComputeRemaining(d.state)

	return err == nil && remaining == 0
}

// RunID identifies the current or last operation.
func (d *Device) RunID() uuid.UUID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.runID
}

// advance applies completed and failed units; callers hold mu.
func (d *Device) advance(done, failed estimator.WorkUnit) {
	if !d.active {
		return
	}

	remaining, _ := estimator.ComputeRemaining(d.state)
	done = min(done, remaining)
	failed = min(failed, remaining-done)

	if d.state.Kind.IsVerify() {
		d.state.VerifyRemaining -= done + failed
		return
	}

	d.state.OutstandingWeight -= done
	d.state.Failed += failed
	d.state.ResyncPosition = min(d.state.ResyncPosition+done+failed, d.state.BitmapBits)
}
