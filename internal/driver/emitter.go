package driver

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/joe/resync-progress/internal/estimator"
)

// LogEmitter writes estimator diagnostics to a zerolog logger.
type LogEmitter struct {
	Logger zerolog.Logger
}

// Emit logs event at warning level.
func (l LogEmitter) Emit(event estimator.Event) {
	switch ev := event.(type) {
	case estimator.RemainingExceedsTotal:
		l.Logger.Warn().
			Err(ev.Err).
			Str("kind", ev.Err.Kind.String()).
			Uint64("remaining", ev.Err.Remaining).
			Uint64("total", ev.Err.Total).
			Uint64("failed", ev.Err.Failed).
			Msg("remaining work exceeds total")
	default:
		l.Logger.Warn().Interface("event", event).Msg("unhandled estimator event")
	}
}

// edgeEmitter forwards a diagnostic only on the query where the counters turn
// inconsistent; Device.Progress clears the flag once they recover.
type edgeEmitter struct {
	next         estimator.EventEmitter
	inconsistent *atomic.Bool
}

func (e edgeEmitter) Emit(event estimator.Event) {
	if _, ok := event.(estimator.RemainingExceedsTotal); ok && !e.inconsistent.CompareAndSwap(false, true) {
		return
	}

	e.next.Emit(event)
}
