// Package history provides the rolling sample buffer used to compute resync speed.
//
// A History is a fixed-capacity ring of timestamped "remaining work" samples.
// The resync driver appends one sample per tick; readers look samples up by age,
// where age 0 is the newest sample and age Cap()-1 the oldest slot.
package history

import (
	"errors"
	"sync"
	"time"
)

// Exported constants.
const (
	// DefaultCapacity is the number of samples kept per operation.
	DefaultCapacity = 8
	// MinCapacity is the smallest ring that still has a settled sample behind the newest one.
	MinCapacity = 2
)

// Exported variables.
var (
	ErrAgeOutOfRange = errors.New("sample age out of range")
	ErrNotPopulated  = errors.New("sample slot not yet populated")
)

// Sample is one mark: the remaining work observed at a point in time.
type Sample struct {
	Timestamp time.Time
	Remaining uint64
}

// History is a ring buffer of samples with a single writer and many readers.
// Append holds the write lock for the slot write and the cursor advance, so a
// reader never observes a partially written sample.
type History struct {
	mu      sync.RWMutex
	samples []Sample
	head    int // index of the newest sample
	filled  int
}

// New creates an empty history with the given capacity.
// Capacities below MinCapacity are raised to MinCapacity.
func New(capacity int) *History {
	capacity = max(capacity, MinCapacity)

	return &History{
		samples: make([]Sample, capacity),
		head:    capacity - 1,
	}
}

// Append overwrites the oldest slot with s and makes it the newest sample.
func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := (h.head + 1) % len(h.samples)
	h.samples[next] = s
	h.head = next

	if h.filled < len(h.samples) {
		h.filled++
	}
}

// At returns the sample age ticks before the newest one. A nil history has no
// samples.
func (h *History) At(age int) (Sample, error) {
	if h == nil {
		return Sample{}, ErrNotPopulated
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return at(h.samples, h.head, h.filled, age)
}

// AtOrOldest returns the sample at age, or the oldest populated sample when the
// operation is younger than the buffer. ok is false only for an empty history.
func (h *History) AtOrOldest(age int) (sample Sample, ok bool) {
	if h == nil {
		return Sample{}, false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return atOrOldest(h.samples, h.head, h.filled, age)
}

// Cap returns the ring capacity.
func (h *History) Cap() int {
	if h == nil {
		return 0
	}

	return len(h.samples)
}

// Len returns the number of populated slots.
func (h *History) Len() int {
	if h == nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.filled
}

// Reset empties the history for a new operation.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.samples)
	h.head = len(h.samples) - 1
	h.filled = 0
}

// Snapshot copies the ring so it can be read without holding any lock.
func (h *History) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	samples := make([]Sample, len(h.samples))
	copy(samples, h.samples)

	return Snapshot{samples: samples, head: h.head, filled: h.filled}
}

// Snapshot is an immutable copy of a History.
type Snapshot struct {
	samples []Sample
	head    int
	filled  int
}

// At returns the sample age ticks before the newest one.
func (s Snapshot) At(age int) (Sample, error) {
	return at(s.samples, s.head, s.filled, age)
}

// AtOrOldest behaves like History.AtOrOldest.
func (s Snapshot) AtOrOldest(age int) (Sample, bool) {
	return atOrOldest(s.samples, s.head, s.filled, age)
}

// Cap returns the capacity of the ring the snapshot was taken from.
func (s Snapshot) Cap() int {
	return len(s.samples)
}

// Len returns the number of populated slots.
func (s Snapshot) Len() int {
	return s.filled
}

func at(samples []Sample, head, filled, age int) (Sample, error) {
	if age < 0 || age >= len(samples) {
		return Sample{}, ErrAgeOutOfRange
	}

	if age >= filled {
		return Sample{}, ErrNotPopulated
	}

	return samples[index(len(samples), head, age)], nil
}

func atOrOldest(samples []Sample, head, filled, age int) (Sample, bool) {
	if filled == 0 {
		return Sample{}, false
	}

	age = min(max(age, 0), filled-1)

	return samples[index(len(samples), head, age)], true
}

func index(capacity, head, age int) int {
	return (head - age + capacity) % capacity
}
