package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ErrInvalidBounds is returned for a viewport rectangle that cannot describe
// a region of the map.
var ErrInvalidBounds = errors.New("invalid viewport bounds")

// Bounds is the lat/lng rectangle visible on the map after a pan or zoom
// settles. West may be greater than East when the viewport crosses the
// antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// NewBounds validates a viewport and normalizes its longitudes into
// [-180, 180]. Map widgets report longitudes past ±180 once the world wraps;
// a span of 360 degrees or more becomes the whole world.
func NewBounds(south, west, north, east float64) (Bounds, error) {
	for _, v := range []float64{south, west, north, east} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Bounds{}, fmt.Errorf("%w: non-finite coordinate", ErrInvalidBounds)
		}
	}
	if south < -90 || north > 90 {
		return Bounds{}, fmt.Errorf("%w: latitude outside [-90, 90]", ErrInvalidBounds)
	}
	if south > north {
		return Bounds{}, fmt.Errorf("%w: south %.6f is above north %.6f", ErrInvalidBounds, south, north)
	}

	if east-west >= 360 {
		west, east = -180, 180
	} else {
		west, east = wrapLongitude(west), wrapLongitude(east)
	}
	return Bounds{South: south, West: west, North: north, East: east}, nil
}

// Contains reports whether the point lies inside the viewport, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.rect().ContainsLatLng(s2.LatLngFromDegrees(lat, lng))
}

// BoundingBoxParam renders the viewport in the provider's insideBoundingBox
// format: a list of [lat1, lng1, lat2, lng2] boxes.
func (b Bounds) BoundingBoxParam() [][]float64 {
	return [][]float64{{b.South, b.West, b.North, b.East}}
}

func (b Bounds) rect() s2.Rect {
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(b.South), Hi: radians(b.North)},
		Lng: s1.IntervalFromEndpoints(radians(b.West), radians(b.East)),
	}
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

func wrapLongitude(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	return math.Remainder(lng, 360)
}
