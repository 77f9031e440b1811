package engine

import (
	"fmt"

	"github.com/OCAP2/tracksync/internal/colormap"
	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/internal/nearest"
	"github.com/OCAP2/tracksync/internal/playback"
	"github.com/OCAP2/tracksync/pkg/core"
)

// Marker is the rendered position of one synchronized track at a moment.
type Marker struct {
	TrackIndex int             `json:"track"`
	Name       string          `json:"name"`
	PointIndex int             `json:"point"`
	Time       float64         `json:"time"`
	Position   core.Position3D `json:"position"`
	Color      string          `json:"color,omitempty"`
}

// Frame is a clock frame plus one marker per visible synchronized track.
type Frame struct {
	playback.Frame
	Elapsed string
	Markers []Marker
}

func (s *Session) frame(f playback.Frame) Frame {
	start, _ := s.clock.Bounds()
	return Frame{
		Frame:   f,
		Elapsed: playback.FormatElapsed(f.CurrentTime - start),
		Markers: s.MarkersAt(f.CurrentTime),
	}
}

// MarkersAt returns, for every visible synchronized track, the point whose
// synchronized time is closest to t.
func (s *Session) MarkersAt(t float64) []Marker {
	var out []Marker
	for i, tr := range s.store.All() {
		if !tr.Visible || !tr.IsSynced() {
			continue
		}
		idx, ok := nearest.InTime(tr.Synced, t)
		if !ok {
			continue
		}
		p := tr.Synced[idx]
		out = append(out, Marker{
			TrackIndex: i,
			Name:       tr.Name,
			PointIndex: idx,
			Time:       p.Time,
			Position:   p.Coord,
			Color:      s.markerColor(i, idx, p),
		})
	}
	return out
}

// markerColor colors a marker by the configured metric, falling back to the
// track color when the metric is unavailable.
func (s *Session) markerColor(trackIndex, pointIndex int, p core.SyncedPoint) string {
	tr, _ := s.store.Get(trackIndex)
	value, ok := s.metricValue(trackIndex, pointIndex, p)
	if !ok {
		return tr.Color
	}
	if c := s.colors.Color(value); c != "" {
		return c
	}
	return tr.Color
}

func (s *Session) metricValue(trackIndex, pointIndex int, p core.SyncedPoint) (float64, bool) {
	tr, _ := s.store.Get(trackIndex)
	switch s.colors.Mode {
	case colormap.ModeSpeed:
		return tr.MetricAt("speed", pointIndex)
	case colormap.ModeAcceleration:
		return tr.MetricAt("acceleration", pointIndex)
	case colormap.ModeLostTime:
		ts, ok := s.sync.Last().For(trackIndex)
		return ts.Delta, ok
	case colormap.ModeTimeDifference:
		return s.timeGap(p)
	default:
		return 0, false
	}
}

// timeGap is how many seconds later than the reference track this point
// was reached, comparing against the reference point nearest to it.
func (s *Session) timeGap(p core.SyncedPoint) (float64, bool) {
	ref, ok := s.store.Get(s.sync.Last().Reference)
	if !ok || !ref.IsSynced() {
		return 0, false
	}
	j, ok := nearest.ToCoordinate(ref, p.Coord)
	if !ok || j >= len(ref.Synced) {
		return 0, false
	}
	return p.Time - ref.Synced[j].Time, true
}

// Hover is the point under a pointer query with its metrics.
type Hover struct {
	TrackIndex   int             `json:"track"`
	Name         string          `json:"name"`
	PointIndex   int             `json:"point"`
	Distance     float64         `json:"distance"`
	Position     core.Position3D `json:"position"`
	Time         float64         `json:"time"`
	SyncedTime   *float64        `json:"syncedTime,omitempty"`
	Speed        *float64        `json:"speed,omitempty"`
	SpeedUnit    string          `json:"speedUnit,omitempty"`
	Acceleration *float64        `json:"acceleration,omitempty"`
	Color        string          `json:"color,omitempty"`
}

// Hover finds the visible track point nearest to query. Speed is reported in
// the configured display units.
func (s *Session) Hover(query core.Position3D) (Hover, error) {
	hit, ok := nearest.AcrossTracks(geo.Cartesian(query), s.store.All())
	if !ok {
		return Hover{}, fmt.Errorf("hover: %w", core.ErrNotFound)
	}
	tr, _ := s.store.Get(hit.TrackIndex)
	h := Hover{
		TrackIndex: hit.TrackIndex,
		Name:       tr.Name,
		PointIndex: hit.PointIndex,
		Distance:   hit.Distance,
		Position:   tr.Coordinates[hit.PointIndex],
		Time:       tr.Timestamps[hit.PointIndex],
		Color:      tr.Color,
	}
	if hit.PointIndex < len(tr.Synced) {
		st := tr.Synced[hit.PointIndex].Time
		h.SyncedTime = &st
	}
	if v, ok := tr.MetricAt("speed", hit.PointIndex); ok {
		v = colormap.ConvertSpeed(v, s.colors.Units)
		h.Speed = &v
		h.SpeedUnit = colormap.ModeSpeed.Unit(s.colors.Units)
	}
	if v, ok := tr.MetricAt("acceleration", hit.PointIndex); ok {
		h.Acceleration = &v
	}
	return h, nil
}
