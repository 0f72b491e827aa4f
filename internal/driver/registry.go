package driver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Exported variables.
var (
	ErrDuplicateMinor = errors.New("device minor already registered")
	ErrDuplicateName  = errors.New("device name already registered")
	ErrUnknownDevice  = errors.New("unknown device")
)

// Registry is the set of live devices. Readers iterate it under a read lock,
// so a device cannot be added mid-iteration.
type Registry struct {
	mu      sync.RWMutex
	devices []*Device // sorted by minor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers d.
func (r *Registry) Add(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.devices {
		if existing.Minor == d.Minor {
			return fmt.Errorf("%w: %d", ErrDuplicateMinor, d.Minor)
		}

		if existing.Name == d.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
	}

	idx, _ := slices.BinarySearchFunc(r.devices, d.Minor, func(dev *Device, minor int) int {
		return dev.Minor - minor
	})
	r.devices = slices.Insert(r.devices, idx, d)

	return nil
}

// Get returns the device with the given minor.
func (r *Registry) Get(minor int) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Minor == minor {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: minor %d", ErrUnknownDevice, minor)
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.devices)
}

// Each calls fn for every device in minor order under the read lock and stops
// at the first error.
func (r *Registry) Each(fn func(d *Device) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if err := fn(d); err != nil {
			return err
		}
	}

	return nil
}

// Match returns the devices whose names match a doublestar glob pattern, e.g.
// "r0/*" or "**/data". An empty pattern matches every device.
func (r *Registry) Match(pattern string) ([]*Device, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid device filter %q: %w", pattern, doublestar.ErrBadPattern)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Device, 0, len(r.devices))

	for _, d := range r.devices {
		if pattern == "" || doublestar.MatchUnvalidated(pattern, d.Name) {
			matched = append(matched, d)
		}
	}

	return matched, nil
}

// RunAll runs every device with an active operation until all finish or ctx
// ends. workload picks the workload for a device and may return nil.
func (r *Registry) RunAll(ctx context.Context, tp TimeProvider, tick time.Duration, workload func(*Device) Workload) error {
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	_ = r.Each(func(d *Device) error {
		if !d.Active() {
			return nil
		}

		var work Workload
		if workload != nil {
			work = workload(d)
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			err := d.Run(ctx, tp, tick, work)
			if err != nil && !errors.Is(err, context.Canceled) {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("device %s: %w", d.Name, err)
				}
				errMu.Unlock()
			}
		}()

		return nil
	})

	wg.Wait()

	return firstErr
}
