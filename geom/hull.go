package geom

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// onEdgeEps treats a near-zero edge cross product as "on the boundary".
const onEdgeEps = 1e-9

// ConvexHull returns hull vertices of points in counter-clockwise order
// without repeating the first vertex. Monotone chain over deduplicated,
// lexicographically sorted input; collinear boundary points are dropped.
// Zero or one distinct points are returned as is.
func ConvexHull(points []orb.Point) []orb.Point {
	pts := slices.Clone(points)
	slices.SortFunc(pts, func(a, b orb.Point) int {
		if a.X() != b.X() {
			return cmpFloat(a.X(), b.X())
		}
		return cmpFloat(a.Y(), b.Y())
	})
	pts = slices.Compact(pts)
	if len(pts) <= 1 {
		return pts
	}

	build := func(in []orb.Point) []orb.Point {
		var chain []orb.Point
		for _, p := range in {
			for len(chain) >= 2 && cross(chain[len(chain)-2], chain[len(chain)-1], p) <= 0 {
				chain = chain[:len(chain)-1]
			}
			chain = append(chain, p)
		}
		return chain[:len(chain)-1]
	}

	lower := build(pts)
	slices.Reverse(pts)
	upper := build(pts)
	return append(lower, upper...)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// PointInHull reports whether pt lies inside or on the boundary of a convex
// hull given in counter-clockwise order. Hulls with fewer than 3 vertices
// contain nothing.
func PointInHull(pt orb.Point, hull []orb.Point) bool {
	if len(hull) < 3 {
		return false
	}
	sign := 0
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		c := cross(a, b, pt)
		if math.Abs(c) < onEdgeEps {
			continue
		}
		s := 1
		if c < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	return true
}
