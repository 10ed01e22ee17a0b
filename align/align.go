// Package align searches for the rigid transform (rotation + translation)
// that best superimposes an imported tendon layout onto a known target
// outline, so that the common import case needs no manual placement.
//
// The fit error is the directed Hausdorff distance of the transformed source
// hull measured only over points falling outside the target hull - a
// containment-biased metric. The search is deterministic: strategies and
// angles are always evaluated in the same order, ties keep the first result.
package align

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"ptdi/geom"
)

// ErrNoFit reports that no candidate transform meets the error threshold.
// The caller is expected to fall back to interactive placement.
var ErrNoFit = errors.New("no transform within error threshold")

// Transform is a rigid-body rotation about Origin followed by a translation.
type Transform struct {
	Angle  float64 // radians, counter-clockwise
	Dx, Dy float64
	Origin orb.Point
}

// Apply transforms a single point.
func (t Transform) Apply(p orb.Point) orb.Point {
	r := geom.RotatePoint(p, t.Angle, t.Origin)
	return orb.Point{r.X() + t.Dx, r.Y() + t.Dy}
}

// IsZero reports whether the transform moves nothing.
func (t Transform) IsZero() bool {
	return t.Angle == 0 && t.Dx == 0 && t.Dy == 0
}

// defaultAngleStep is the coarse sweep step in degrees used when a Search is
// constructed without one.
const defaultAngleStep = 15

// Search holds tuning knobs for the transform search. Distances are in the
// caller's linear unit, angles in degrees.
type Search struct {
	AngleStep     float64 // coarse sweep step, defaultAngleStep when unset
	RefineStep    float64 // neighbourhood refinement step
	MaxError      float64 // reject fits worse than this
	Tolerance     float64 // slack for fast-path acceptance and snapping
	AllowRotation bool
	Log           *zap.Logger
}

// Find returns the best-fit transform of source onto target together with its
// fit error, or ErrNoFit. Both point sets must share one linear unit.
func (s *Search) Find(target, source []orb.Point) (Transform, float64, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	targetHull := geom.ConvexHull(target)
	sourceHull := geom.ConvexHull(source)
	if len(targetHull) == 0 || len(sourceHull) == 0 {
		return Transform{}, 0, ErrNoFit
	}

	e := &evaluation{
		targetHull:   targetHull,
		targetCent:   geom.Centroid(targetHull),
		targetBounds: geom.Bounds(targetHull),
		sourceHull:   sourceHull,
		sourceCent:   geom.Centroid(sourceHull),
	}

	// Fast path: try the two cheap zero-rotation fits first, they cover most
	// real exports.
	if tr, err, ok := e.simpleFit(s.MaxError + s.Tolerance); ok {
		log.Debug("Alignment fast path accepted", zap.Float64("error", err))
		return tr, err, nil
	}

	best := e.sweep(s)
	best = e.snapMinX(best, s.Tolerance)

	if best.err > s.MaxError {
		log.Debug("Alignment search exhausted",
			zap.Float64("best_error", best.err), zap.Float64("max_error", s.MaxError))
		return Transform{}, 0, ErrNoFit
	}

	log.Debug("Alignment search accepted",
		zap.Float64("error", best.err), zap.Float64("angle_rad", best.angle))
	return Transform{Angle: best.angle, Dx: best.dx, Dy: best.dy, Origin: e.sourceCent}, best.err, nil
}

type fit struct {
	err, angle, dx, dy float64
}

// evaluation caches the hulls and derived values shared by every candidate.
type evaluation struct {
	targetHull   []orb.Point
	targetCent   orb.Point
	targetBounds orb.Bound
	sourceHull   []orb.Point
	sourceCent   orb.Point
}

func (e *evaluation) fitError(pts []orb.Point) float64 {
	return geom.DirectedHausdorffOutside(pts, e.targetHull)
}

func (e *evaluation) shifted(pts []orb.Point, dx, dy float64) []orb.Point {
	return geom.Collect(geom.Translate(pts, dx, dy))
}

// simpleFit tries centroid-to-centroid and then bounding-box minimum-corner
// alignment at zero rotation, accepting the first fit within limit.
func (e *evaluation) simpleFit(limit float64) (Transform, float64, bool) {
	srcBounds := geom.Bounds(e.sourceHull)
	candidates := [][2]float64{
		{e.targetCent.X() - e.sourceCent.X(), e.targetCent.Y() - e.sourceCent.Y()},
		{e.targetBounds.Min.X() - srcBounds.Min.X(), e.targetBounds.Min.Y() - srcBounds.Min.Y()},
	}
	for _, c := range candidates {
		if err := e.fitError(e.shifted(e.sourceHull, c[0], c[1])); err <= limit {
			return Transform{Dx: c[0], Dy: c[1], Origin: e.sourceCent}, err, true
		}
	}
	return Transform{}, 0, false
}

// sweep runs the coarse rotational search followed by a refinement pass
// around the best angle found.
func (e *evaluation) sweep(s *Search) fit {
	best := fit{err: math.Inf(1)}

	if !s.AllowRotation {
		return e.evaluateAngle(0, best)
	}

	stepDeg := s.AngleStep
	if stepDeg <= 0 {
		stepDeg = defaultAngleStep
	}
	step := stepDeg * math.Pi / 180
	for angle := 0.0; angle < 2*math.Pi; angle += step {
		best = e.evaluateAngle(angle, best)
	}

	refine := s.RefineStep * math.Pi / 180
	base := best.angle
	for _, angle := range []float64{base - refine, base + refine, base - refine/2, base + refine/2} {
		best = e.evaluateAngle(angle, best)
	}
	return best
}

// candidate is one translation proposal for the current rotation.
type candidate struct {
	dx, dy float64
}

// strategies generate translation candidates for a rotated source hull. They
// run in fixed order; later ones may reuse the dy of the best fit so far.
// Adding a strategy means appending here, the evaluation loop stays as is.
var strategies = []func(e *evaluation, rot []orb.Point, bestDy float64) []candidate{
	// centroid alignment
	func(e *evaluation, rot []orb.Point, _ float64) []candidate {
		c := geom.Centroid(rot)
		return []candidate{{e.targetCent.X() - c.X(), e.targetCent.Y() - c.Y()}}
	},
	// bounding-box minimum-corner alignment
	func(e *evaluation, rot []orb.Point, _ float64) []candidate {
		b := geom.Bounds(rot)
		return []candidate{{e.targetBounds.Min.X() - b.Min.X(), e.targetBounds.Min.Y() - b.Min.Y()}}
	},
	// exhaustive vertex-to-vertex pairing; hulls are small so the quadratic
	// cost is acceptable
	func(e *evaluation, rot []orb.Point, _ float64) []candidate {
		out := make([]candidate, 0, len(e.targetHull)*len(rot))
		for _, tv := range e.targetHull {
			for _, sv := range rot {
				out = append(out, candidate{tv.X() - sv.X(), tv.Y() - sv.Y()})
			}
		}
		return out
	},
	// centroid X with the best dy found so far
	func(e *evaluation, rot []orb.Point, bestDy float64) []candidate {
		return []candidate{{e.targetCent.X() - geom.Centroid(rot).X(), bestDy}}
	},
	// minimum-X edge with the best dy found so far
	func(e *evaluation, rot []orb.Point, bestDy float64) []candidate {
		b := geom.Bounds(rot)
		return []candidate{{e.targetBounds.Min.X() - b.Min.X(), bestDy}}
	},
}

// evaluateAngle rotates the source hull about its centroid and keeps the best
// candidate over all strategies, merged with the best fit seen so far.
func (e *evaluation) evaluateAngle(angle float64, best fit) fit {
	rot := geom.Collect(geom.Rotate(e.sourceHull, angle, e.sourceCent))

	local := fit{err: math.Inf(1), angle: angle}
	for _, gen := range strategies {
		for _, c := range gen(e, rot, local.dy) {
			if err := e.fitError(e.shifted(rot, c.dx, c.dy)); err < local.err {
				local = fit{err: err, angle: angle, dx: c.dx, dy: c.dy}
			}
		}
	}

	if local.err < best.err {
		return local
	}
	return best
}

// snapMinX shifts the best transform along X to line up minimum-X edges,
// keeping the shift only when it does not worsen the error beyond tolerance.
func (e *evaluation) snapMinX(best fit, tolerance float64) fit {
	if math.IsInf(best.err, 1) {
		return best
	}

	rot := geom.Collect(geom.Rotate(e.sourceHull, best.angle, e.sourceCent))
	trans := e.shifted(rot, best.dx, best.dy)

	snapDx := e.targetBounds.Min.X() - geom.Bounds(trans).Min.X()
	if math.Abs(snapDx) <= 1e-6 {
		return best
	}
	if err := e.fitError(e.shifted(trans, snapDx, 0)); err <= best.err+tolerance {
		best.dx += snapDx
		best.err = err
	}
	return best
}
