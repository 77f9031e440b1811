// Package nearest finds the track points closest to a spatial or temporal query.
//
// All searches are linear scans. Exact ties resolve to the lowest track index,
// then the lowest point index.
package nearest

import (
	"math"

	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/pkg/core"
)

// Hit is the result of a cross-track search.
type Hit struct {
	TrackIndex int
	PointIndex int
	Distance   float64 // metres
}

// OnTrack returns the index of the track point closest to query. It reports
// false only when the track has no points.
func OnTrack(t *core.Track, query geo.Vec3) (int, bool) {
	idx, _, ok := scan(t, query)
	return idx, ok
}

// ToCoordinate is OnTrack for a geographic coordinate.
func ToCoordinate(t *core.Track, coord core.Position3D) (int, bool) {
	return OnTrack(t, geo.Cartesian(coord))
}

// AcrossTracks searches every visible, non-empty track and returns the global
// minimum. There is no distance cutoff.
func AcrossTracks(query geo.Vec3, tracks []*core.Track) (Hit, bool) {
	best := Hit{TrackIndex: -1, PointIndex: -1}
	bestD2 := math.Inf(1)

	for ti, t := range tracks {
		if t == nil || !t.Visible {
			continue
		}
		pi, d2, ok := scan(t, query)
		if !ok {
			continue
		}
		if d2 < bestD2 || best.TrackIndex < 0 {
			bestD2 = d2
			best.TrackIndex = ti
			best.PointIndex = pi
		}
	}

	if best.TrackIndex < 0 {
		return Hit{}, false
	}
	best.Distance = math.Sqrt(bestD2)
	return best, true
}

// InTime returns the index of the synced point whose time is closest to t.
func InTime(synced []core.SyncedPoint, t float64) (int, bool) {
	best := -1
	bestDiff := math.Inf(1)
	for i, p := range synced {
		diff := math.Abs(p.Time - t)
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return best, best >= 0
}

func scan(t *core.Track, query geo.Vec3) (int, float64, bool) {
	if t == nil || len(t.Coordinates) == 0 {
		return -1, 0, false
	}
	best := -1
	bestD2 := math.Inf(1)
	for i, c := range t.Coordinates {
		d2 := geo.Distance2(geo.Cartesian(c), query)
		if d2 < bestD2 {
			bestD2 = d2
			best = i
		}
	}
	if best < 0 {
		// every distance was NaN
		return 0, math.Inf(1), true
	}
	return best, bestD2, true
}
