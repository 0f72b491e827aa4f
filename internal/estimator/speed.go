package estimator

import (
	"math"
	"math/bits"
	"time"
)

// unexported constants.
const (
	// etaScale brackets the ETA ratio so two decimal digits survive the integer division.
	etaScale      = 100
	maxETASeconds = math.MaxInt64 / int64(time.Second)
)

// Window is the progress observed between a reference sample and now.
type Window struct {
	// Elapsed is the whole seconds since the reference sample, never less than 1.
	Elapsed uint64
	// Delta is the work completed since the reference sample.
	Delta WorkUnit
	// Rate is Delta/Elapsed in work units per second.
	Rate WorkUnit
}

// ElapsedSeconds returns the whole seconds from since to now, floored to 1 so it
// can always be used as a divisor.
func ElapsedSeconds(since, now time.Time) uint64 {
	elapsed := now.Sub(since)
	if elapsed < time.Second {
		return 1
	}

	return uint64(elapsed / time.Second)
}

// Speed measures the rate between a reference point (sampleTime, sampleRemaining)
// and the current remaining work. Work that grew since the sample counts as no progress.
func Speed(sampleTime time.Time, sampleRemaining, remaining WorkUnit, now time.Time) Window {
	elapsed := ElapsedSeconds(sampleTime, now)

	var delta WorkUnit
	if sampleRemaining > remaining {
		delta = sampleRemaining - remaining
	}

	return Window{Elapsed: elapsed, Delta: delta, Rate: delta / elapsed}
}

// ETA projects the time left from a window's elapsed seconds and completed units:
// elapsed * (remaining / (delta/100 + 1)) / 100. The two-stage scaling is kept so
// estimates round the same way everywhere they are displayed. The result
// saturates rather than wrapping on absurdly slow progress.
func ETA(elapsed uint64, remaining, delta WorkUnit) time.Duration {
	perScaledUnit := remaining / (delta/etaScale + 1)

	hi, lo := bits.Mul64(max(elapsed, 1), perScaledUnit)
	if hi != 0 {
		return time.Duration(maxETASeconds) * time.Second
	}

	seconds := lo / etaScale
	if seconds > uint64(maxETASeconds) {
		seconds = uint64(maxETASeconds)
	}

	return time.Duration(seconds) * time.Second
}

// IsStalled reports whether a short-window reference sample is older than a
// full ring of ticks, meaning no mark has advanced for that long.
func IsStalled(elapsed uint64, capacity int, tick time.Duration) bool {
	threshold := time.Duration(capacity) * tick
	if elapsed > uint64(maxETASeconds) {
		return true
	}

	return time.Duration(elapsed)*time.Second > threshold
}
