// Package geom implements the small set of 2-D primitives the importer needs:
// convex hulls, centroids, bounds, Hausdorff distances and rigid motions.
// Everything operates on orb.Point values in the XY plane and nothing here
// mutates its input.
package geom

import (
	"iter"

	"github.com/paulmach/orb"
)

// cross returns the z-component of (a-o) x (b-o).
func cross(o, a, b orb.Point) float64 {
	return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
}

// Centroid returns the arithmetic mean of points, (0, 0) when empty.
func Centroid(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X()
		sy += p.Y()
	}
	n := float64(len(points))
	return orb.Point{sx / n, sy / n}
}

// Bounds returns the axis-aligned bounding box of points. Empty input yields
// the zero bound.
func Bounds(points []orb.Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// Collect materializes a point sequence into a slice.
func Collect(seq iter.Seq[orb.Point]) []orb.Point {
	var out []orb.Point
	for p := range seq {
		out = append(out, p)
	}
	return out
}
