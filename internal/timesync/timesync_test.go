package timesync

import (
	"testing"

	"github.com/OCAP2/tracksync/internal/playback"
	"github.com/OCAP2/tracksync/internal/track"
	"github.com/OCAP2/tracksync/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var route = []core.Position3D{
	{X: 8.000, Y: 47.000, Z: 400},
	{X: 8.001, Y: 47.000, Z: 402},
	{X: 8.002, Y: 47.000, Z: 405},
}

func newTrack(name string, times ...float64) *core.Track {
	return &core.Track{
		Name:        name,
		Coordinates: append([]core.Position3D(nil), route[:len(times)]...),
		Timestamps:  times,
		Visible:     true,
	}
}

func newEngine(t *testing.T, tracks ...*core.Track) (*Engine, *track.Store, *playback.Clock) {
	t.Helper()
	store := track.NewStore()
	for _, tr := range tracks {
		_, err := store.Add(tr)
		require.NoError(t, err)
	}
	clock := playback.NewClock()
	return New(store, clock), store, clock
}

func syncedTimes(tr *core.Track) []float64 {
	out := make([]float64, len(tr.Synced))
	for i, p := range tr.Synced {
		out[i] = p.Time
	}
	return out
}

func TestSync_ThreeTrackScenario(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	b := newTrack("B", 5, 15, 25)
	c := newTrack("C", 100, 110, 120)
	e, _, clock := newEngine(t, a, b, c)

	res, err := e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 0}, core.FlagRef{TrackIndex: 1, PointIndex: 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 20}, syncedTimes(a))
	assert.Equal(t, []float64{0, 10, 20}, syncedTimes(b))
	assert.Equal(t, []float64{0, 10, 20}, syncedTimes(c))

	bs, ok := res.For(1)
	require.True(t, ok)
	assert.Equal(t, -5.0, bs.Offset)
	cs, ok := res.For(2)
	require.True(t, ok)
	assert.Equal(t, -100.0, cs.Offset)

	start, end := clock.Bounds()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 20.0, end)
	assert.Equal(t, 0.0, clock.CurrentTime())
	assert.Equal(t, 0.0, res.Start)
	assert.Equal(t, 20.0, res.End)
}

func TestSync_ReferenceTrackIsIdentityCopy(t *testing.T) {
	a := newTrack("A", 1000.25, 1010.5, 1021.75)
	b := newTrack("B", 3, 4, 5)
	e, _, _ := newEngine(t, a, b)

	_, err := e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 1}, core.FlagRef{TrackIndex: 0, PointIndex: 2})
	require.NoError(t, err)

	require.Len(t, a.Synced, len(a.Timestamps))
	for i := range a.Timestamps {
		assert.Equal(t, a.Timestamps[i], a.Synced[i].Time)
		assert.Equal(t, a.Coordinates[i], a.Synced[i].Coord)
	}
	// B is aligned at its point nearest A[1]
	assert.Equal(t, []float64{1009.5, 1010.5, 1011.5}, syncedTimes(b))
}

func TestSync_BoundsAreTrueMinMax(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	b := newTrack("B", 0, 30, 60) // slower over the same route
	c := newTrack("C", 7)         // a single point at the start
	e, _, clock := newEngine(t, a, b, c)

	_, err := e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 2}, core.FlagRef{TrackIndex: 0, PointIndex: 0})
	require.NoError(t, err)

	// anchor is route[2] at t=20: B matches index 2 (offset -40), C index 0 (offset 13)
	assert.Equal(t, []float64{-40, -10, 20}, syncedTimes(b))
	assert.Equal(t, []float64{20}, syncedTimes(c))

	start, end := clock.Bounds()
	assert.Equal(t, -40.0, start)
	assert.Equal(t, 20.0, end)
	assert.LessOrEqual(t, start, end)
}

func TestSync_SplitTiming(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	b := newTrack("B", 0, 15, 32)
	e, _, _ := newEngine(t, a, b)

	res, err := e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 0}, core.FlagRef{TrackIndex: 0, PointIndex: 2})
	require.NoError(t, err)

	as, _ := res.For(0)
	bs, _ := res.For(1)
	assert.Equal(t, 0, as.StartIndex)
	assert.Equal(t, 2, as.FinishIndex)
	assert.Equal(t, 20.0, as.Elapsed)
	assert.Equal(t, 0.0, as.Delta)
	assert.Equal(t, 32.0, bs.Elapsed)
	assert.Equal(t, 12.0, bs.Delta)
}

func TestSync_SkipsHiddenAndUntimedTracks(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	hidden := newTrack("hidden", 50, 60, 70)
	hidden.Visible = false
	untimed := &core.Track{Name: "untimed", Visible: true}
	e, _, _ := newEngine(t, a, hidden, untimed)

	res, err := e.Sync(core.FlagRef{TrackIndex: 0}, core.FlagRef{TrackIndex: 0, PointIndex: 2})
	require.NoError(t, err)

	assert.Nil(t, hidden.Synced)
	assert.Nil(t, untimed.Synced)
	assert.Len(t, res.Tracks, 1)
}

func TestSync_NotIncremental(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	b := newTrack("B", 5, 15, 25)
	e, store, _ := newEngine(t, a, b)

	_, err := e.Sync(core.FlagRef{TrackIndex: 0}, core.FlagRef{TrackIndex: 0, PointIndex: 2})
	require.NoError(t, err)
	require.NotNil(t, b.Synced)

	require.NoError(t, store.SetVisible(1, false))
	_, err = e.Sync(core.FlagRef{TrackIndex: 0}, core.FlagRef{TrackIndex: 0, PointIndex: 2})
	require.NoError(t, err)
	assert.Nil(t, b.Synced, "stale series must be discarded on resync")
}

func TestSync_EmptyReferenceTrack(t *testing.T) {
	a := &core.Track{Name: "A", Visible: true}
	b := newTrack("B", 0, 1, 2)
	e, _, clock := newEngine(t, a, b)

	_, err := e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 0}, core.FlagRef{TrackIndex: 1})
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	assert.Nil(t, b.Synced)

	start, end := clock.Bounds()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 0.0, end)
}

func TestSync_InvalidReference(t *testing.T) {
	e, _, _ := newEngine(t, newTrack("A", 0, 1))

	_, err := e.Sync(core.FlagRef{TrackIndex: 3}, core.FlagRef{})
	assert.ErrorIs(t, err, core.ErrOutOfRange)

	_, err = e.Sync(core.FlagRef{TrackIndex: 0, PointIndex: 9}, core.FlagRef{})
	assert.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestReset(t *testing.T) {
	a := newTrack("A", 0, 10, 20)
	e, _, clock := newEngine(t, a)

	_, err := e.Sync(core.FlagRef{}, core.FlagRef{PointIndex: 2})
	require.NoError(t, err)
	require.True(t, e.Last().Synced())

	e.Reset()
	assert.Nil(t, a.Synced)
	assert.False(t, e.Last().Synced())
	assert.Equal(t, -1, e.Last().Reference)
	start, end := clock.Bounds()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 0.0, end)
}
