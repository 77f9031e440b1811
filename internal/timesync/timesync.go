// Package timesync aligns every track to the time origin set by the start flag.
//
// Each non-reference track is shifted by one constant offset: the difference
// between the reference time at the start flag and the track's own time at
// its point nearest the start flag coordinate. No reordering or monotonic
// repair is done; irregular source timestamps stay irregular after the shift.
package timesync

import (
	"fmt"
	"math"

	"github.com/OCAP2/tracksync/internal/nearest"
	"github.com/OCAP2/tracksync/internal/track"
	"github.com/OCAP2/tracksync/pkg/core"
)

// Bounds receives the synchronized interval.
type Bounds interface {
	SetBounds(start, end float64)
	Reset()
}

// TrackSync describes how one track was aligned.
type TrackSync struct {
	TrackIndex  int
	Offset      float64 // seconds added to every original timestamp
	StartIndex  int     // point matched to the start flag
	FinishIndex int     // point matched to the finish flag
	Elapsed     float64 // synced seconds between the start and finish matches
	Delta       float64 // Elapsed minus the reference track's Elapsed
}

// Result is the outcome of one synchronization run.
type Result struct {
	Reference int
	RefTime   float64
	Tracks    []TrackSync
	Start     float64
	End       float64
}

// Synced reports whether any track took part.
func (r Result) Synced() bool {
	return len(r.Tracks) > 0
}

// For returns the alignment of the track at index.
func (r Result) For(trackIndex int) (TrackSync, bool) {
	for _, ts := range r.Tracks {
		if ts.TrackIndex == trackIndex {
			return ts, true
		}
	}
	return TrackSync{}, false
}

// Engine computes synchronized timestamp series for the tracks of a store.
type Engine struct {
	store  *track.Store
	bounds Bounds
	last   Result
}

// New creates an Engine over store that publishes intervals to bounds.
func New(store *track.Store, bounds Bounds) *Engine {
	return &Engine{store: store, bounds: bounds, last: emptyResult()}
}

// Sync discards all previous synchronized series and recomputes them from
// the given flag references.
func (e *Engine) Sync(start, finish core.FlagRef) (Result, error) {
	e.Reset()

	ref, ok := e.store.Get(start.TrackIndex)
	if !ok {
		return e.last, fmt.Errorf("sync: start track %d: %w", start.TrackIndex, core.ErrOutOfRange)
	}
	if start.PointIndex < 0 || start.PointIndex >= ref.Len() {
		return e.last, fmt.Errorf("sync: start point %d on track %d: %w", start.PointIndex, start.TrackIndex, core.ErrOutOfRange)
	}
	if !ref.HasTimestamps() {
		return e.last, nil
	}

	anchor := ref.Coordinates[start.PointIndex]
	refTime := ref.Timestamps[start.PointIndex]

	var finishCoord *core.Position3D
	if ft, ok := e.store.Get(finish.TrackIndex); ok && finish.PointIndex >= 0 && finish.PointIndex < ft.Len() {
		c := ft.Coordinates[finish.PointIndex]
		finishCoord = &c
	}

	res := Result{Reference: start.TrackIndex, RefTime: refTime}
	minTime, maxTime := math.Inf(1), math.Inf(-1)

	for i, k := range e.store.All() {
		if !k.Visible || !k.HasTimestamps() {
			continue
		}

		ts := TrackSync{TrackIndex: i}
		if k == ref {
			ts.StartIndex = start.PointIndex
		} else {
			c, ok := nearest.ToCoordinate(k, anchor)
			if !ok {
				continue
			}
			ts.StartIndex = c
			ts.Offset = refTime - k.Timestamps[c]
		}

		k.Synced = shift(k, ts.Offset)

		ts.FinishIndex = ts.StartIndex
		if finishCoord != nil {
			if fi, ok := nearest.ToCoordinate(k, *finishCoord); ok {
				ts.FinishIndex = fi
			}
		}
		ts.Elapsed = k.Synced[ts.FinishIndex].Time - k.Synced[ts.StartIndex].Time
		res.Tracks = append(res.Tracks, ts)

		for _, p := range k.Synced {
			minTime = math.Min(minTime, p.Time)
			maxTime = math.Max(maxTime, p.Time)
		}
	}

	if refSync, ok := res.For(res.Reference); ok {
		for i := range res.Tracks {
			res.Tracks[i].Delta = res.Tracks[i].Elapsed - refSync.Elapsed
		}
	}

	if res.Synced() {
		res.Start, res.End = minTime, maxTime
		e.bounds.SetBounds(minTime, maxTime)
	}
	e.last = res
	return res, nil
}

// Reset drops every synchronized series and empties the interval.
func (e *Engine) Reset() {
	e.store.ClearSynced()
	e.bounds.Reset()
	e.last = emptyResult()
}

// Last returns the most recent synchronization result.
func (e *Engine) Last() Result {
	return e.last
}

func shift(t *core.Track, offset float64) []core.SyncedPoint {
	synced := make([]core.SyncedPoint, len(t.Timestamps))
	for i, ts := range t.Timestamps {
		synced[i] = core.SyncedPoint{Time: ts + offset, Coord: t.Coordinates[i]}
	}
	return synced
}

func emptyResult() Result {
	return Result{Reference: -1}
}
