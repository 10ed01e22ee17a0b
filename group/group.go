// Package group clusters tendons that are effectively the same run, so the
// placement layer can annotate a whole group once instead of every tendon.
//
// Greedy single pass: the first remaining tendon becomes a group's
// representative and every other remaining tendon joins when it is parallel,
// adjacent, of matching length and with a matching drape profile. The result
// always partitions the input - worst case each tendon is its own group.
package group

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"ptdi/plan"
)

// Tolerances bound the four matching predicates. Angle is degrees, Height is
// integer millimetres, everything else is in the placement unit.
type Tolerances struct {
	Angle   float64
	Length  float64
	Spacing float64 // perpendicular offset between axes
	Shift   float64 // longitudinal shift along the axis
	Dist    float64 // profile point distance delta
	Height  int     // profile point height delta
}

// Group is an ordered cluster; the first tendon is the representative, the
// rest keep their original relative order.
type Group struct {
	Tendons plan.TendonSet
}

// Representative returns the tendon annotation is drawn for.
func (g Group) Representative() *plan.Tendon {
	return g.Tendons[0]
}

// Partition splits tendons into groups. Every input tendon lands in exactly
// one group. Tendons with degenerate (zero) plan length never become
// representatives - they may still join a group of a valid representative,
// and the ones left unmatched are emitted as trailing singletons.
func Partition(tendons plan.TendonSet, tol Tolerances, log *zap.Logger) []Group {
	if log == nil {
		log = zap.NewNop()
	}

	remaining := make(plan.TendonSet, len(tendons))
	copy(remaining, tendons)

	var degenerate plan.TendonSet
	var groups []Group
	for len(remaining) > 0 {
		base := remaining[0]
		remaining = remaining[1:]

		if axisLength(base) == 0 {
			// cannot anchor a group, no later representative will see it
			degenerate = append(degenerate, base)
			continue
		}

		g := Group{Tendons: plan.TendonSet{base}}
		rest := remaining[:0]
		for _, other := range remaining {
			if matches(base, other, tol) {
				other.Grouped = true
				g.Tendons = append(g.Tendons, other)
				continue
			}
			rest = append(rest, other)
		}
		remaining = rest
		groups = append(groups, g)
	}

	for _, t := range degenerate {
		groups = append(groups, Group{Tendons: plan.TendonSet{t}})
	}

	log.Debug("Tendons partitioned", zap.Int("tendons", len(tendons)), zap.Int("groups", len(groups)))
	return groups
}

// axisLength returns the declared length, falling back to the plan distance
// between endpoints when the record carries none.
func axisLength(t *plan.Tendon) float64 {
	if t.Length != 0 {
		return t.Length
	}
	d := t.Direction()
	return math.Hypot(d.X(), d.Y())
}

func matches(base, other *plan.Tendon, tol Tolerances) bool {
	baseDir := base.Direction()
	baseLen := axisLength(base)

	// 1. direction - antiparallel axes count as parallel
	ang := angleBetween(baseDir, other.Direction())
	if ang > 90 {
		ang = 180 - ang
	}
	if ang > tol.Angle {
		return false
	}

	// 2. plan spacing - perpendicular offset and longitudinal shift of the
	// candidate's start against the representative's axis
	dx := other.Start.X() - base.Start.X()
	dy := other.Start.Y() - base.Start.Y()
	if math.Abs(dx*baseDir.Y()-dy*baseDir.X())/baseLen > tol.Spacing {
		return false
	}
	if math.Abs(dx*baseDir.X()+dy*baseDir.Y())/baseLen > tol.Shift {
		return false
	}

	// 3. length
	if math.Abs(baseLen-axisLength(other)) > tol.Length {
		return false
	}

	// 4. drape profile
	return profilesMatch(base.Points, other.Points, tol)
}

// angleBetween returns the unsigned angle in degrees (0-180).
func angleBetween(a, b orb.Point) float64 {
	am := math.Hypot(a.X(), a.Y())
	bm := math.Hypot(b.X(), b.Y())
	if am == 0 || bm == 0 {
		return 0
	}
	dot := (a.X()*b.X() + a.Y()*b.Y()) / (am * bm)
	dot = math.Max(-1, math.Min(1, dot))
	return math.Acos(dot) * 180 / math.Pi
}

func profilesMatch(a, b []plan.ProfilePoint, tol Tolerances) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Distance-b[i].Distance) > tol.Dist {
			return false
		}
		if abs(a[i].Height-b[i].Height) > tol.Height {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
