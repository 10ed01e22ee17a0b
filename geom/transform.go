package geom

import (
	"iter"
	"math"

	"github.com/paulmach/orb"
)

// RotatePoint rotates p about origin by angle radians, counter-clockwise
// positive.
func RotatePoint(p orb.Point, angle float64, origin orb.Point) orb.Point {
	sin, cos := math.Sincos(angle)
	tx := p.X() - origin.X()
	ty := p.Y() - origin.Y()
	return orb.Point{
		tx*cos - ty*sin + origin.X(),
		tx*sin + ty*cos + origin.Y(),
	}
}

// Rotate yields each point rotated about origin by angle radians.
func Rotate(points []orb.Point, angle float64, origin orb.Point) iter.Seq[orb.Point] {
	return func(yield func(orb.Point) bool) {
		sin, cos := math.Sincos(angle)
		for _, p := range points {
			tx := p.X() - origin.X()
			ty := p.Y() - origin.Y()
			if !yield(orb.Point{tx*cos - ty*sin + origin.X(), tx*sin + ty*cos + origin.Y()}) {
				return
			}
		}
	}
}

// Translate yields each point shifted by (dx, dy).
func Translate(points []orb.Point, dx, dy float64) iter.Seq[orb.Point] {
	return func(yield func(orb.Point) bool) {
		for _, p := range points {
			if !yield(orb.Point{p.X() + dx, p.Y() + dy}) {
				return
			}
		}
	}
}
