package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Aligned(t *testing.T) {
	tr := &Track{
		Coordinates: []Position3D{{}, {}},
		Timestamps:  []float64{0, 1},
	}
	assert.True(t, tr.Aligned())

	tr.Speed = []float64{1}
	assert.False(t, tr.Aligned())
	tr.Speed = []float64{1, 2}
	assert.True(t, tr.Aligned())

	tr.Acceleration = []float64{0, 0, 0}
	assert.False(t, tr.Aligned())

	assert.False(t, (&Track{Coordinates: []Position3D{{}}}).Aligned())
	assert.True(t, (&Track{}).Aligned())
}

func TestTrack_MetricAt(t *testing.T) {
	tr := &Track{Speed: []float64{3, 4}, Acceleration: []float64{0.5}}

	v, ok := tr.MetricAt("speed", 1)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = tr.MetricAt("acceleration", 0)
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, ok = tr.MetricAt("acceleration", 1)
	assert.False(t, ok)
	_, ok = tr.MetricAt("speed", -1)
	assert.False(t, ok)
	_, ok = tr.MetricAt("heading", 0)
	assert.False(t, ok)
}

func TestSecondsRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 500_000_000, time.UTC)
	s := Seconds(at)
	assert.Equal(t, 1714550400.5, s)
	assert.WithinDuration(t, at, TimeOf(s), time.Microsecond)
}

func TestFlagKindParse(t *testing.T) {
	for _, k := range FlagKinds {
		got, err := ParseFlagKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseFlagKind("Start")
	assert.Error(t, err)
	assert.Equal(t, "FlagKind(7)", FlagKind(7).String())
	assert.Equal(t, "picked_up", FlagPickedUp.String())
}
