package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/tracksync/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Track coordinates are geographic (EPSG:4326, degrees + metres). Distances are
// measured in an Earth-centred Earth-fixed frame so that every query uses the
// same metric regardless of latitude. Renderer-facing planar output uses
// EPSG:3857.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// WGS84 ellipsoid
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
	eccSquared    = flattening * (2 - flattening)
)

// Vec3 is a Cartesian position in metres.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Len2 returns the squared length of v.
func (v Vec3) Len2() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Cartesian converts a geographic coordinate into ECEF metres.
func Cartesian(p core.Position3D) Vec3 {
	lon := p.X * math.Pi / 180
	lat := p.Y * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := semiMajorAxis / math.Sqrt(1-eccSquared*sinLat*sinLat)
	return Vec3{
		X: (n + p.Z) * cosLat * cosLon,
		Y: (n + p.Z) * cosLat * sinLon,
		Z: (n*(1-eccSquared) + p.Z) * sinLat,
	}
}

// Distance2 returns the squared straight-line distance between two Cartesian
// positions. Comparisons use the squared value; it orders identically.
func Distance2(a, b Vec3) float64 {
	return a.Sub(b).Len2()
}

// Distance returns the straight-line distance in metres between two
// geographic coordinates.
func Distance(a, b core.Position3D) float64 {
	return math.Sqrt(Distance2(Cartesian(a), Cartesian(b)))
}

// Position3DFromString parses a "long,lat" or "long,lat,elev" string into a core.Position3D.
func Position3DFromString(coords string) (core.Position3D, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || long < -180 || long > 180 {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	var elev float64
	if len(coordsSplit) > 2 {
		elev, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return core.Position3D{}, ErrInvalidCoordinates
		}
	}
	return core.Position3D{X: long, Y: lat, Z: elev}, nil
}

// WebMercator projects a geographic coordinate to EPSG:3857 metres.
func WebMercator(p core.Position3D) core.Position2D {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(p.X, p.Y, 0)
	return core.Position2D{X: x, Y: y}
}

// LineString3857 builds a projected XYZ line string from a coordinate list,
// keeping altitude as Z. Fewer than two coordinates yield an empty geometry.
func LineString3857(coords []core.Position3D) (geom.LineString, error) {
	if len(coords) < 2 {
		return geom.LineString{}, nil
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)

	flat := make([]float64, 0, len(coords)*3)
	for _, c := range coords {
		x, y, _ := f(c.X, c.Y, 0)
		flat = append(flat, x, y, c.Z)
	}
	seq := geom.NewSequence(flat, geom.DimXYZ)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("build line string: %w", err)
	}
	return ls, nil
}
