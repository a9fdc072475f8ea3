// Package geo holds the coordinate checks used for nearby filtering and the
// collection proximity gate. Distances are compared per axis in degrees.
package geo

import (
	"errors"
	"math"
)

var ErrOutOfRange = errors.New("coordinates out of range")

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Box is an axis-aligned bounding box, inclusive on every edge.
type Box struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Validate rejects NaN and coordinates outside [-90,90] x [-180,180].
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return ErrOutOfRange
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return ErrOutOfRange
	}
	return nil
}

// Within reports whether q differs from p by strictly less than tolerance on
// both axes.
func (p Point) Within(q Point, tolerance float64) bool {
	return math.Abs(p.Latitude-q.Latitude) < tolerance &&
		math.Abs(p.Longitude-q.Longitude) < tolerance
}

// Box returns the bounding box of all points Within tolerance of p. Use it to
// narrow a query before applying Within.
func (p Point) Box(tolerance float64) Box {
	return Box{
		MinLatitude:  p.Latitude - tolerance,
		MaxLatitude:  p.Latitude + tolerance,
		MinLongitude: p.Longitude - tolerance,
		MaxLongitude: p.Longitude + tolerance,
	}
}

func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLatitude && p.Latitude <= b.MaxLatitude &&
		p.Longitude >= b.MinLongitude && p.Longitude <= b.MaxLongitude
}
