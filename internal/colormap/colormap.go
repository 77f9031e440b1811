// Package colormap maps normalized scalar metrics to colors through
// piecewise-linear gradients.
package colormap

import (
	"errors"
	"fmt"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// KphPerMph converts speed metrics stored in mph to km/h.
const KphPerMph = 1.60934

var ErrInvalidGradient = errors.New("invalid gradient")

// Stop is one gradient entry. Position is in [0,1].
type Stop struct {
	Position float64
	Color    colorful.Color
}

// Gradient is an ascending list of stops. The zero value maps everything to
// black.
type Gradient struct {
	stops []Stop
}

// NewGradient validates the stops: at least one, positions within [0,1]
// and non-decreasing.
func NewGradient(stops ...Stop) (Gradient, error) {
	if len(stops) == 0 {
		return Gradient{}, fmt.Errorf("no stops: %w", ErrInvalidGradient)
	}
	for i, s := range stops {
		if math.IsNaN(s.Position) || s.Position < 0 || s.Position > 1 {
			return Gradient{}, fmt.Errorf("stop %d position %v outside [0,1]: %w", i, s.Position, ErrInvalidGradient)
		}
	}
	if !sort.SliceIsSorted(stops, func(i, j int) bool { return stops[i].Position < stops[j].Position }) {
		return Gradient{}, fmt.Errorf("stops not ascending: %w", ErrInvalidGradient)
	}
	return Gradient{stops: append([]Stop(nil), stops...)}, nil
}

// Even spreads colors over [0,1] at equal spacing.
func Even(colors ...colorful.Color) Gradient {
	stops := make([]Stop, len(colors))
	for i, c := range colors {
		p := 0.0
		if len(colors) > 1 {
			p = float64(i) / float64(len(colors)-1)
		}
		stops[i] = Stop{Position: p, Color: c}
	}
	return Gradient{stops: stops}
}

// Stops returns a copy of the gradient stops.
func (g Gradient) Stops() []Stop {
	return append([]Stop(nil), g.stops...)
}

// Empty reports whether the gradient has no stops.
func (g Gradient) Empty() bool {
	return len(g.stops) == 0
}

// At returns the color for v. Values at or beyond the outer stops return
// those stops' colors exactly; NaN maps to the first stop.
func (g Gradient) At(v float64) colorful.Color {
	n := len(g.stops)
	if n == 0 {
		return colorful.Color{}
	}
	first, last := g.stops[0], g.stops[n-1]
	if math.IsNaN(v) || v <= first.Position {
		return first.Color
	}
	if v >= last.Position {
		return last.Color
	}
	hi := sort.Search(n, func(i int) bool { return g.stops[i].Position >= v })
	lo := g.stops[hi-1]
	if g.stops[hi].Position == v {
		return g.stops[hi].Color
	}
	t := (v - lo.Position) / (g.stops[hi].Position - lo.Position)
	return lo.Color.BlendRgb(g.stops[hi].Color, t)
}

// Step returns the color of the stop at or below v, without blending.
func (g Gradient) Step(v float64) colorful.Color {
	n := len(g.stops)
	if n == 0 {
		return colorful.Color{}
	}
	if math.IsNaN(v) || v <= g.stops[0].Position {
		return g.stops[0].Color
	}
	i := sort.Search(n, func(i int) bool { return g.stops[i].Position > v })
	return g.stops[i-1].Color
}

// Normalize maps value into [0,1] against [min,max]. Equal bounds and NaN
// give 0.
func Normalize(value, min, max float64) float64 {
	if max == min || math.IsNaN(value) {
		return 0
	}
	v := (value - min) / (max - min)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
