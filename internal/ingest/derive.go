package ingest

import (
	"math"

	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/pkg/core"
)

// MphPerMetrePerSecond converts m/s to mph.
const MphPerMetrePerSecond = 2.2369362920544

// Derive computes per-point speed (mph) and acceleration (m/s²) from
// consecutive positions and times. Point 0 repeats the first segment's
// speed and has zero acceleration. Segments with a non-positive time step
// keep the previous values.
func Derive(coords []core.Position3D, times []float64) (speed, accel []float64) {
	n := len(coords)
	if n == 0 || len(times) != n {
		return nil, nil
	}
	ms := make([]float64, n)
	accel = make([]float64, n)

	for i := 1; i < n; i++ {
		dt := times[i] - times[i-1]
		if dt <= 0 || math.IsNaN(dt) {
			ms[i] = ms[i-1]
			accel[i] = accel[i-1]
			continue
		}
		ms[i] = geo.Distance(coords[i-1], coords[i]) / dt
		if i > 1 {
			accel[i] = (ms[i] - ms[i-1]) / dt
		}
	}
	if n > 1 {
		ms[0] = ms[1]
	}

	speed = make([]float64, n)
	for i, v := range ms {
		speed[i] = v * MphPerMetrePerSecond
	}
	return speed, accel
}
