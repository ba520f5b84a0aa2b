// Package validate checks the coordinate and date fields of incident records.
// Every check is pure and reports failure as a boolean; malformed input never
// produces an error or a panic.
package validate

import (
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// Box is an open longitude/latitude bounding box. A point on any edge is
// outside the box.
type Box struct {
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
}

// DefaultBox covers the Mexico City metropolitan area.
var DefaultBox = Box{MinLon: -100, MaxLon: -98, MinLat: 19, MaxLat: 20}

// Valid reports whether both values are non-zero and strictly inside the box.
func (b Box) Valid(lon, lat float64) bool {
	if lon == 0 || lat == 0 {
		return false
	}
	return lon > b.MinLon && lon < b.MaxLon &&
		lat > b.MinLat && lat < b.MaxLat
}

// Parse parses a raw longitude/latitude pair and checks it against the box.
// The parsed values are returned even when the pair is outside the box.
func (b Box) Parse(lon, lat string) (float64, float64, bool) {
	x, okX := ParseCoordinate(lon)
	y, okY := ParseCoordinate(lat)
	if !okX || !okY {
		return x, y, false
	}
	return x, y, b.Valid(x, y)
}

// Bounds returns the box as go-geom bounds in XY (lon, lat) layout.
func (b Box) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Coordinates reports whether the raw pair parses and falls inside DefaultBox.
func Coordinates(lon, lat string) bool {
	_, _, ok := DefaultBox.Parse(lon, lat)
	return ok
}

// ParseCoordinate parses a decimal coordinate. Empty, non-numeric, NaN and
// infinite values are rejected.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
