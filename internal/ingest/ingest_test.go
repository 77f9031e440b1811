package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCAP2/tracksync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[10, 50, 100], [10.001, 50, 101], [10.002, 50, 102]]},
      "properties": {
        "name": "Morning ride",
        "color": "#FF8800",
        "coordTimes": ["2024-05-01T08:00:00Z", "2024-05-01T08:00:10Z", "2024-05-01T08:00:20Z"]
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[10, 50], [10.001, 50]]},
      "properties": {
        "coordTimes": [1714550400000, 1714550405000],
        "speed": [1, 2],
        "acceleration": [0, 0.1]
      }
    }
  ]
}`

func TestDecode_FeatureCollection(t *testing.T) {
	tracks, err := Decode(strings.NewReader(collection))
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	a := tracks[0]
	assert.Equal(t, "Morning ride", a.Name)
	assert.Equal(t, "#ff8800", a.Color)
	assert.True(t, a.Visible)
	assert.True(t, a.Aligned())
	assert.Equal(t, core.Position3D{X: 10.001, Y: 50, Z: 101}, a.Coordinates[1])
	assert.InDelta(t, 10, a.Timestamps[1]-a.Timestamps[0], 1e-9)
	require.Len(t, a.Speed, 3)
	// ~71.5 m in 10 s
	assert.InDelta(t, 7.15*MphPerMetrePerSecond, a.Speed[1], 0.1)
	assert.Equal(t, a.Speed[1], a.Speed[0])

	b := tracks[1]
	assert.Equal(t, "Track 2", b.Name)
	assert.NotEmpty(t, b.Color)
	assert.Equal(t, float64(1714550400), b.Timestamps[0])
	assert.Equal(t, []float64{1, 2}, b.Speed)
	assert.Equal(t, []float64{0, 0.1}, b.Acceleration)
	assert.Zero(t, b.Coordinates[0].Z)
}

func TestDecode_SingleFeatureMultiLineString(t *testing.T) {
	in := `{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[0,0],[0,0.001]],[[0,0.002],[0,0.003]]]},
	"properties":{"coordTimes":[0,1000,2000,3000]}}`
	tracks, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, 4, tracks[0].Len())
	assert.Equal(t, []float64{0, 1, 2, 3}, tracks[0].Timestamps)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		is   error
	}{
		{"not json", `{`, nil},
		{"bare geometry", `{"type":"Point","coordinates":[0,0]}`, ErrUnsupportedGeometry},
		{"point feature", `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"coordTimes":[0]}}`, ErrUnsupportedGeometry},
		{"missing times", `{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}`, core.ErrMisaligned},
		{"bad time", `{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"coordTimes":["yesterday",0]}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.geojson")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0o644))

	tracks, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}

func TestDerive(t *testing.T) {
	coords := []core.Position3D{{X: 0, Y: 0}, {X: 0, Y: 0.001}, {X: 0, Y: 0.003}, {X: 0, Y: 0.004}}
	times := []float64{0, 10, 20, 20}

	speed, accel := Derive(coords, times)
	require.Len(t, speed, 4)
	assert.Greater(t, speed[2], speed[1])
	assert.Greater(t, accel[2], 0.0)
	assert.Zero(t, accel[1])
	// zero time step repeats the previous segment
	assert.Equal(t, speed[2], speed[3])
	assert.Equal(t, accel[2], accel[3])

	s, a := Derive(nil, nil)
	assert.Nil(t, s)
	assert.Nil(t, a)

	s, _ = Derive([]core.Position3D{{}}, []float64{5})
	assert.Equal(t, []float64{0}, s)
}

func TestTrackColor(t *testing.T) {
	assert.Equal(t, "#112233", trackColor("#112233", 3))
	assert.NotEqual(t, trackColor("", 0), trackColor("", 1))
	assert.Equal(t, trackColor("nope", 2), trackColor("", 2))
}
