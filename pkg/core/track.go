// pkg/core/track.go
package core

import "time"

// SyncedPoint pairs a synchronized absolute time with the original coordinate.
type SyncedPoint struct {
	Time  float64    `json:"time"`
	Coord Position3D `json:"coord"`
}

// Track is one ingested recording. Coordinates and Timestamps are aligned 1:1;
// Speed and Acceleration, when present, are aligned with them as well.
// Timestamps are absolute seconds (Unix epoch, fractional).
type Track struct {
	Name         string
	Coordinates  []Position3D
	Timestamps   []float64
	Speed        []float64 // mph
	Acceleration []float64 // m/s²
	Visible      bool
	Color        string // hex, e.g. "#ff8800"

	// Synced is nil until the track takes part in a synchronization.
	Synced []SyncedPoint
}

// Len returns the number of points in the track.
func (t *Track) Len() int {
	return len(t.Coordinates)
}

// Aligned reports whether coordinates, timestamps and any derived metrics
// have matching lengths.
func (t *Track) Aligned() bool {
	n := len(t.Coordinates)
	if len(t.Timestamps) != n {
		return false
	}
	if len(t.Speed) != 0 && len(t.Speed) != n {
		return false
	}
	if len(t.Acceleration) != 0 && len(t.Acceleration) != n {
		return false
	}
	return true
}

// HasTimestamps reports whether the track carries any timestamps.
func (t *Track) HasTimestamps() bool {
	return len(t.Timestamps) > 0
}

// IsSynced reports whether the track has a synchronized timestamp series.
func (t *Track) IsSynced() bool {
	return len(t.Synced) > 0
}

// MetricAt returns the named metric at index i, if present.
func (t *Track) MetricAt(metric string, i int) (float64, bool) {
	var values []float64
	switch metric {
	case "speed":
		values = t.Speed
	case "acceleration":
		values = t.Acceleration
	default:
		return 0, false
	}
	if i < 0 || i >= len(values) {
		return 0, false
	}
	return values[i], true
}

// TimeOf converts track seconds into a UTC time.Time.
func TimeOf(seconds float64) time.Time {
	whole := int64(seconds)
	frac := seconds - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second))).UTC()
}

// Seconds converts a time.Time into track seconds.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
