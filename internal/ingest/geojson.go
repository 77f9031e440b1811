// Package ingest loads GPS tracks from GeoJSON.
//
// Each LineString (or MultiLineString) feature becomes one track. Positions
// are [lon, lat, alt]; per-point times come from the "coordTimes" property,
// either RFC3339 strings or epoch milliseconds. Optional "speed" (mph) and
// "acceleration" (m/s²) arrays are used as-is; otherwise both are derived.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/OCAP2/tracksync/pkg/core"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/peterstace/simplefeatures/geom"
)

var ErrUnsupportedGeometry = errors.New("unsupported geometry")

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties properties      `json:"properties"`
}

type properties struct {
	Name         string            `json:"name"`
	Color        string            `json:"color"`
	CoordTimes   []json.RawMessage `json:"coordTimes"`
	Speed        []float64         `json:"speed"`
	Acceleration []float64         `json:"acceleration"`
}

// ReadFile decodes the tracks of a GeoJSON file.
func ReadFile(path string) ([]*core.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracks: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a FeatureCollection or a single Feature.
func Decode(r io.Reader) ([]*core.Track, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tracks: %w", err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var features []feature
	switch head.Type {
	case "FeatureCollection":
		var fc featureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		features = fc.Features
	case "Feature":
		var f feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		features = []feature{f}
	default:
		return nil, fmt.Errorf("decode geojson: top-level type %q: %w", head.Type, ErrUnsupportedGeometry)
	}

	tracks := make([]*core.Track, 0, len(features))
	for i, f := range features {
		t, err := f.track(i)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (f feature) track(i int) (*core.Track, error) {
	g, err := geom.UnmarshalGeoJSON(f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	coords, err := positions(g)
	if err != nil {
		return nil, err
	}

	p := f.Properties
	if len(p.CoordTimes) != len(coords) {
		return nil, fmt.Errorf("%d coordTimes for %d positions: %w", len(p.CoordTimes), len(coords), core.ErrMisaligned)
	}
	times := make([]float64, len(p.CoordTimes))
	for j, raw := range p.CoordTimes {
		ts, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("coordTimes[%d]: %w", j, err)
		}
		times[j] = ts
	}

	t := &core.Track{
		Name:        p.Name,
		Coordinates: coords,
		Timestamps:  times,
		Visible:     true,
		Color:       trackColor(p.Color, i),
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("Track %d", i+1)
	}

	speed, accel := Derive(coords, times)
	t.Speed = pick(p.Speed, speed)
	t.Acceleration = pick(p.Acceleration, accel)
	return t, nil
}

// positions flattens LineString and MultiLineString geometries into one
// coordinate list. Missing altitude is 0.
func positions(g geom.Geometry) ([]core.Position3D, error) {
	var seqs []geom.Sequence
	switch g.Type() {
	case geom.TypeLineString:
		ls, ok := g.AsLineString()
		if !ok {
			return nil, fmt.Errorf("geometry is not a line string: %w", ErrUnsupportedGeometry)
		}
		seqs = append(seqs, ls.Coordinates())
	case geom.TypeMultiLineString:
		mls, ok := g.AsMultiLineString()
		if !ok {
			return nil, fmt.Errorf("geometry is not a multi line string: %w", ErrUnsupportedGeometry)
		}
		for k := 0; k < mls.NumLineStrings(); k++ {
			seqs = append(seqs, mls.LineStringN(k).Coordinates())
		}
	default:
		return nil, fmt.Errorf("geometry type %s: %w", g.Type(), ErrUnsupportedGeometry)
	}

	var out []core.Position3D
	for _, seq := range seqs {
		for k := 0; k < seq.Length(); k++ {
			c := seq.Get(k)
			out = append(out, core.Position3D{X: c.X, Y: c.Y, Z: c.Z})
		}
	}
	return out, nil
}

// parseTime accepts an RFC3339 string or a number of epoch milliseconds.
func parseTime(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, err
		}
		return core.Seconds(t), nil
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return 0, fmt.Errorf("time %s is neither RFC3339 nor epoch milliseconds", string(raw))
	}
	return ms / 1000, nil
}

// trackColor keeps a valid hex color and otherwise picks a palette color
// spaced by the golden angle in hue.
func trackColor(hex string, i int) string {
	if c, err := colorful.Hex(hex); err == nil {
		return c.Hex()
	}
	hue := float64(i) * 137.508
	for hue >= 360 {
		hue -= 360
	}
	return colorful.Hsv(hue, 0.75, 0.9).Hex()
}

func pick(given, derived []float64) []float64 {
	if len(given) == len(derived) {
		return given
	}
	return derived
}
