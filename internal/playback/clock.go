// Package playback drives the playback clock over the synchronized interval.
package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/tracksync/pkg/core"
)

// State is the playback lifecycle state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Frame is the clock state observed after a command or tick.
type Frame struct {
	CurrentTime float64
	Position    float64 // normalized, 0 when the interval is empty
	Playing     bool
	Finished    bool // true only on the tick that reached the end
}

// Clock advances the current time across [start, end]. Bounds are derived
// from synchronization and are never set by a user directly.
type Clock struct {
	start   float64
	end     float64
	current float64
	speed   float64
	state   State

	// wall-clock moment of the last Play, for callers that compute deltas
	playedAt time.Time
	now      func() time.Time
}

// NewClock creates an empty clock with speed 1.
func NewClock() *Clock {
	return &Clock{speed: 1, now: time.Now}
}

// SetBounds installs a new synchronized interval and rewinds to its start.
// Playback continues only if the new interval is non-empty.
func (c *Clock) SetBounds(start, end float64) {
	c.start = start
	c.end = end
	c.current = start
	if !(start < end) {
		c.state = Stopped
	}
}

// Reset returns the clock to the empty (0,0,0) interval and stops it. The
// speed multiplier is kept.
func (c *Clock) Reset() {
	c.start, c.end, c.current = 0, 0, 0
	c.state = Stopped
	c.playedAt = time.Time{}
}

// Play starts playback. It fails with core.ErrEmptyInterval when there is
// nothing to play.
func (c *Clock) Play() error {
	if !(c.start < c.end) {
		return core.ErrEmptyInterval
	}
	if c.state == Playing {
		return nil
	}
	c.state = Playing
	c.playedAt = c.now()
	return nil
}

// Pause stops playback. Pausing a stopped clock is a no-op.
func (c *Clock) Pause() {
	c.state = Stopped
}

// Tick advances the current time by elapsed wall seconds scaled by speed.
// Reaching the end clamps to it and stops the clock; the returned frame
// reports Finished on that tick only.
func (c *Clock) Tick(elapsed float64) (Frame, error) {
	if c.state != Playing {
		return c.Frame(), core.ErrInvalidState
	}
	// negative and NaN deltas leave the time where it is
	if elapsed > 0 {
		c.current += elapsed * c.speed
	}

	finished := false
	if c.current >= c.end {
		c.current = c.end
		c.state = Stopped
		finished = true
	}

	f := c.Frame()
	f.Finished = finished
	return f, nil
}

// SeekNormalized moves to start + p*(end-start), clamped to the interval.
// The play state is unchanged.
func (c *Clock) SeekNormalized(p float64) {
	switch {
	case math.IsNaN(p) || p <= 0:
		c.current = c.start
	case p >= 1:
		c.current = c.end
	default:
		c.current = clamp(c.start+p*(c.end-c.start), c.start, c.end)
	}
}

// SetSpeed changes the speed multiplier used by the next Tick.
func (c *Clock) SetSpeed(multiplier float64) error {
	if !(multiplier > 0) || math.IsInf(multiplier, 1) {
		return fmt.Errorf("set speed %v: %w", multiplier, core.ErrInvalidSpeed)
	}
	c.speed = multiplier
	return nil
}

// ResetToSyncPoint rewinds to the interval start and stops.
func (c *Clock) ResetToSyncPoint() {
	c.current = c.start
	c.state = Stopped
}

// Position returns the normalized playback position.
func (c *Clock) Position() float64 {
	if c.end == c.start {
		return 0
	}
	return (c.current - c.start) / (c.end - c.start)
}

// Frame returns the current clock state.
func (c *Clock) Frame() Frame {
	return Frame{
		CurrentTime: c.current,
		Position:    c.Position(),
		Playing:     c.state == Playing,
	}
}

// Bounds returns the synchronized interval.
func (c *Clock) Bounds() (start, end float64) {
	return c.start, c.end
}

// CurrentTime returns the current synchronized time.
func (c *Clock) CurrentTime() float64 { return c.current }

// Speed returns the speed multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// State returns the lifecycle state.
func (c *Clock) State() State { return c.state }

// PlayedAt returns the wall-clock moment of the last Play.
func (c *Clock) PlayedAt() time.Time { return c.playedAt }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
