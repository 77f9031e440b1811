package nearest

import (
	"testing"

	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(lon, lat float64) core.Position3D {
	return core.Position3D{X: lon, Y: lat}
}

func trackOf(coords ...core.Position3D) *core.Track {
	t := &core.Track{Visible: true, Coordinates: coords}
	for i := range coords {
		t.Timestamps = append(t.Timestamps, float64(i))
	}
	return t
}

func TestOnTrack_Closest(t *testing.T) {
	tr := trackOf(pos(0, 0), pos(0.001, 0), pos(0.002, 0), pos(0.003, 0))

	idx, ok := OnTrack(tr, geo.Cartesian(pos(0.0021, 0.0001)))
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestOnTrack_TieLowestIndex(t *testing.T) {
	a, b := pos(1, 1), pos(2, 2)

	tests := []struct {
		name   string
		coords []core.Position3D
		query  core.Position3D
		want   int
	}{
		{"duplicate at ends", []core.Position3D{a, b, a}, a, 0},
		{"duplicate in middle", []core.Position3D{b, a, a, b}, a, 1},
		{"all identical", []core.Position3D{a, a, a}, b, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := OnTrack(trackOf(tt.coords...), geo.Cartesian(tt.query))
			require.True(t, ok)
			assert.Equal(t, tt.want, idx)
		})
	}
}

func TestOnTrack_Empty(t *testing.T) {
	_, ok := OnTrack(&core.Track{}, geo.Cartesian(pos(0, 0)))
	assert.False(t, ok)

	_, ok = OnTrack(nil, geo.Cartesian(pos(0, 0)))
	assert.False(t, ok)
}

func TestOnTrack_UsesAltitude(t *testing.T) {
	tr := trackOf(
		core.Position3D{X: 0, Y: 0, Z: 0},
		core.Position3D{X: 0, Y: 0, Z: 500},
	)

	idx, ok := OnTrack(tr, geo.Cartesian(core.Position3D{X: 0, Y: 0, Z: 400}))
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestToCoordinate(t *testing.T) {
	tr := trackOf(pos(10, 10), pos(10.01, 10), pos(10.02, 10))

	idx, ok := ToCoordinate(tr, pos(10.011, 10))
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestAcrossTracks_GlobalMinimum(t *testing.T) {
	tracks := []*core.Track{
		trackOf(pos(0, 0), pos(0, 0.01)),
		trackOf(pos(0.5, 0), pos(0.0001, 0.02)),
	}

	hit, ok := AcrossTracks(geo.Cartesian(pos(0, 0.0199)), tracks)
	require.True(t, ok)
	assert.Equal(t, 1, hit.TrackIndex)
	assert.Equal(t, 1, hit.PointIndex)
	assert.Greater(t, hit.Distance, 0.0)
}

func TestAcrossTracks_TieLowestTrack(t *testing.T) {
	a := pos(3, 3)
	tracks := []*core.Track{
		trackOf(pos(4, 4), a),
		trackOf(a, pos(4, 4)),
	}

	hit, ok := AcrossTracks(geo.Cartesian(a), tracks)
	require.True(t, ok)
	assert.Equal(t, 0, hit.TrackIndex)
	assert.Equal(t, 1, hit.PointIndex)
}

func TestAcrossTracks_SkipsHiddenAndEmpty(t *testing.T) {
	hidden := trackOf(pos(0, 0))
	hidden.Visible = false
	tracks := []*core.Track{hidden, {Visible: true}, trackOf(pos(1, 1))}

	hit, ok := AcrossTracks(geo.Cartesian(pos(0, 0)), tracks)
	require.True(t, ok)
	assert.Equal(t, 2, hit.TrackIndex)
	assert.Equal(t, 0, hit.PointIndex)
}

func TestAcrossTracks_NoCandidates(t *testing.T) {
	hidden := trackOf(pos(0, 0))
	hidden.Visible = false

	_, ok := AcrossTracks(geo.Cartesian(pos(0, 0)), []*core.Track{hidden, {Visible: true}})
	assert.False(t, ok)

	_, ok = AcrossTracks(geo.Cartesian(pos(0, 0)), nil)
	assert.False(t, ok)
}

func TestAcrossTracks_NoDistanceCutoff(t *testing.T) {
	tracks := []*core.Track{trackOf(pos(0, 0), pos(0.001, 0))}

	// antipode, as far as a query can get
	hit, ok := AcrossTracks(geo.Cartesian(pos(180, 0)), tracks)
	require.True(t, ok)
	assert.Equal(t, 0, hit.TrackIndex)
	assert.Greater(t, hit.Distance, 1.2e7)
}

func TestInTime(t *testing.T) {
	synced := []core.SyncedPoint{{Time: 0}, {Time: 10}, {Time: 20}}

	tests := []struct {
		at   float64
		want int
	}{
		{-5, 0},
		{4, 0},
		{5, 0}, // tie between 0 and 10
		{6, 1},
		{15, 1}, // tie between 10 and 20
		{99, 2},
	}
	for _, tt := range tests {
		idx, ok := InTime(synced, tt.at)
		require.True(t, ok)
		assert.Equal(t, tt.want, idx, "at %v", tt.at)
	}

	_, ok := InTime(nil, 0)
	assert.False(t, ok)
}
