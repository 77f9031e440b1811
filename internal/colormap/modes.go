package colormap

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Mode selects the metric a track is colored by.
type Mode string

const (
	ModeSpeed          Mode = "speed"
	ModeAcceleration   Mode = "acceleration"
	ModeTimeDifference Mode = "timeDifference"
	ModeLostTime       Mode = "lostTime"
	ModeNone           Mode = "noColor"
)

// SpeedUnits selects the unit speed metrics are displayed in.
type SpeedUnits string

const (
	Mph SpeedUnits = "mph"
	Kph SpeedUnits = "kph"
)

// CSS named colors used by the presets.
var (
	blue   = colorful.Color{R: 0, G: 0, B: 1}
	cyan   = colorful.Color{R: 0, G: 1, B: 1}
	green  = colorful.Color{R: 0, G: 128.0 / 255, B: 0}
	yellow = colorful.Color{R: 1, G: 1, B: 0}
	red    = colorful.Color{R: 1, G: 0, B: 0}
	purple = colorful.Color{R: 128.0 / 255, G: 0, B: 128.0 / 255}
)

var presets = map[Mode]Gradient{
	ModeSpeed:          Even(blue, cyan, green, yellow, red),
	ModeAcceleration:   Even(purple, blue, green, yellow, red),
	ModeTimeDifference: Even(green, yellow, red),
	ModeLostTime:       Even(green, yellow, red),
	ModeNone:           {},
}

// ParseMode accepts the mode names used in configuration.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := presets[m]; !ok {
		return "", fmt.Errorf("unknown color mode %q", s)
	}
	return m, nil
}

// ParseSpeedUnits accepts "mph" or "kph".
func ParseSpeedUnits(s string) (SpeedUnits, error) {
	switch u := SpeedUnits(s); u {
	case Mph, Kph:
		return u, nil
	}
	return "", fmt.Errorf("unknown speed units %q", s)
}

// Preset returns the gradient for a mode. ModeNone has an empty gradient.
func Preset(m Mode) Gradient {
	return presets[m]
}

// Unit returns the label unit for a mode.
func (m Mode) Unit(units SpeedUnits) string {
	switch m {
	case ModeSpeed:
		if units == Kph {
			return "km/h"
		}
		return "mph"
	case ModeAcceleration:
		return "m/s²"
	case ModeTimeDifference, ModeLostTime:
		return "s"
	default:
		return ""
	}
}

// ConvertSpeed converts a speed stored in mph to the display units.
func ConvertSpeed(mph float64, units SpeedUnits) float64 {
	if units == Kph {
		return mph * KphPerMph
	}
	return mph
}

// Mapper colors raw metric values for one mode and legend range.
type Mapper struct {
	Mode       Mode
	Units      SpeedUnits
	Min, Max   float64
	Continuous bool
}

// Color returns the hex color for a raw metric value, or "" in ModeNone.
// Speed values are expected in mph and converted to the display units
// before normalizing.
func (m Mapper) Color(value float64) string {
	g := Preset(m.Mode)
	if g.Empty() {
		return ""
	}
	if m.Mode == ModeSpeed {
		value = ConvertSpeed(value, m.Units)
	}
	v := Normalize(value, m.Min, m.Max)
	if !m.Continuous {
		return g.Step(v).Hex()
	}
	return g.At(v).Hex()
}

// LegendEntry is one label of the legend scale.
type LegendEntry struct {
	Position float64 `json:"position"`
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
}

// Legend returns steps+1 evenly spaced entries from Min to Max. ModeNone has
// no legend.
func (m Mapper) Legend(steps int) []LegendEntry {
	g := Preset(m.Mode)
	if g.Empty() || steps < 1 {
		return nil
	}
	unit := m.Mode.Unit(m.Units)
	out := make([]LegendEntry, 0, steps+1)
	for i := 0; i <= steps; i++ {
		p := float64(i) / float64(steps)
		value := m.Min + (m.Max-m.Min)*p
		out = append(out, LegendEntry{
			Position: p,
			Value:    value,
			Label:    fmt.Sprintf("%.0f %s", value, unit),
			Color:    g.At(p).Hex(),
		})
	}
	return out
}
