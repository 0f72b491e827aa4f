package driver

import (
	"context"
	"time"
)

// Run marks the device every tick until the operation completes or ctx ends.
// Between ticks the workload, if any, advances the device. Paused devices
// neither advance nor mark, so they read as stalled once the marks age out.
func (d *Device) Run(ctx context.Context, tp TimeProvider, tick time.Duration, work Workload) error {
	ticker := tp.NewTicker(tick)
	defer ticker.Stop()

	last := tp.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now, ok := <-ticker.C():
			if !ok {
				return nil
			}

			if work != nil && !d.Paused() {
				work.Advance(d, now.Sub(last))
			}

			last = now

			d.Mark(now)

			if d.Done() {
				d.Finish()
				return nil
			}
		}
	}
}
