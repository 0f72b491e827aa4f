package estimator

// Event is the interface implemented by all estimator diagnostics.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// RemainingExceedsTotal is emitted when a progress query finds more remaining
// work than the operation started with. The snapshot is still produced, with
// its percentage, rates and ETA clamped to zero.
type RemainingExceedsTotal struct {
	Err *RemainingExceedsTotalError
}

func (RemainingExceedsTotal) isEvent() {}
