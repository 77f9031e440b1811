// pkg/core/types.go
package core

// Position3D is a geographic coordinate: X is longitude, Y is latitude (both
// in degrees, WGS84) and Z is altitude in metres.
type Position3D struct {
	X float64 `json:"x"` // longitude
	Y float64 `json:"y"` // latitude
	Z float64 `json:"z"` // altitude
}

// Position2D is a planar coordinate, e.g. a projected map position.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
