package playback

import (
	"context"
	"fmt"
	"time"
)

// TickFunc receives the wall seconds elapsed since the previous call and
// reports whether the driver should keep running.
type TickFunc func(elapsed float64) bool

// Driver is an external frame scheduler. It owns the timer; the engine it
// drives only sees explicit ticks, all issued from the Run goroutine.
type Driver struct {
	Interval time.Duration
}

// Run calls fn once per interval until fn returns false or ctx is done.
func (d Driver) Run(ctx context.Context, fn TickFunc) error {
	interval := d.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if !fn(elapsed) {
				return nil
			}
		}
	}
}

// FormatElapsed renders seconds as MM:SS. Negative values render as 00:00.
func FormatElapsed(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
