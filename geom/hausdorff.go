package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DirectedHausdorff returns max over a of the distance to the closest point
// of b. Either set being empty yields 0.
func DirectedHausdorff(a, b []orb.Point) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var worst float64
	for _, pa := range a {
		best := planar.Distance(pa, b[0])
		for _, pb := range b[1:] {
			if d := planar.Distance(pa, pb); d < best {
				best = d
			}
		}
		if best > worst {
			worst = best
		}
	}
	return worst
}

// DirectedHausdorffOutside is DirectedHausdorff restricted to the points of a
// that fall outside hull. Points contained by the hull contribute nothing,
// which biases the metric towards containment instead of exact boundary
// coincidence.
func DirectedHausdorffOutside(a, hull []orb.Point) float64 {
	if len(a) == 0 || len(hull) == 0 {
		return 0
	}
	var outside []orb.Point
	for _, p := range a {
		if !PointInHull(p, hull) {
			outside = append(outside, p)
		}
	}
	return DirectedHausdorff(outside, hull)
}

// HausdorffDistance returns the symmetric Hausdorff distance.
func HausdorffDistance(a, b []orb.Point) float64 {
	return max(DirectedHausdorff(a, b), DirectedHausdorff(b, a))
}
