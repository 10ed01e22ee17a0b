package align

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap/zaptest"

	"ptdi/geom"
)

func rect(x, y, w, h float64) []orb.Point {
	return []orb.Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func TestTransform_Apply(t *testing.T) {
	t.Run("translation only", func(t *testing.T) {
		tr := Transform{Dx: 10, Dy: -5}
		p := tr.Apply(orb.Point{1, 2})
		if p != (orb.Point{11, -3}) {
			t.Errorf("Apply() = %v, want (11, -3)", p)
		}
	})

	t.Run("rotation about origin point", func(t *testing.T) {
		tr := Transform{Angle: math.Pi, Origin: orb.Point{1, 1}}
		p := tr.Apply(orb.Point{2, 1})
		if math.Abs(p.X()) > 1e-9 || math.Abs(p.Y()-1) > 1e-9 {
			t.Errorf("Apply() = %v, want (0, 1)", p)
		}
	})
}

func TestTransform_IsZero(t *testing.T) {
	if !(Transform{Origin: orb.Point{5, 5}}).IsZero() {
		t.Error("transform with only an origin should be zero")
	}
	if (Transform{Dx: 1}).IsZero() {
		t.Error("transform with translation should not be zero")
	}
	if (Transform{Angle: 0.1}).IsZero() {
		t.Error("transform with rotation should not be zero")
	}
}

func TestSearch_Find_TranslatedCopy(t *testing.T) {
	target := rect(0, 0, 100, 100)
	source := rect(500, 500, 20, 20)

	s := &Search{
		AngleStep:     15,
		RefineStep:    5,
		MaxError:      9,
		Tolerance:     3,
		AllowRotation: true,
		Log:           zaptest.NewLogger(t),
	}

	tr, fitErr, err := s.Find(target, source)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if fitErr != 0 {
		t.Errorf("fit error = %f, want 0 for a contained copy", fitErr)
	}
	if tr.Angle != 0 {
		t.Errorf("angle = %f, want 0 (fast path)", tr.Angle)
	}

	targetHull := geom.ConvexHull(target)
	for _, p := range source {
		if moved := tr.Apply(p); !geom.PointInHull(moved, targetHull) {
			t.Errorf("transformed point %v lands outside the target", moved)
		}
	}
}

func TestSearch_Find_NeedsRotation(t *testing.T) {
	// long thin slab, source layout is the same slab turned a quarter
	target := rect(0, 0, 200, 20)
	source := rect(1000, 1000, 20, 200)

	s := &Search{
		AngleStep:     15,
		RefineStep:    5,
		MaxError:      5,
		Tolerance:     1,
		AllowRotation: true,
		Log:           zaptest.NewLogger(t),
	}

	tr, fitErr, err := s.Find(target, source)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if fitErr > 1e-6 {
		t.Errorf("fit error = %f, want ~0 for a congruent layout", fitErr)
	}

	// quarter turn either way lines the slabs up
	quarter := math.Mod(tr.Angle, math.Pi)
	if math.Abs(quarter-math.Pi/2) > 1e-6 {
		t.Errorf("angle = %f rad, want a quarter turn", tr.Angle)
	}

	targetHull := geom.ConvexHull(target)
	for _, p := range source {
		if moved := tr.Apply(p); !geom.PointInHull(moved, targetHull) {
			t.Errorf("transformed point %v lands outside the target", moved)
		}
	}
}

func TestSearch_Find_ZeroAngleStep(t *testing.T) {
	// a zero-valued step falls back to the default sweep instead of looping
	target := rect(0, 0, 200, 20)
	source := rect(1000, 1000, 20, 200)

	s := &Search{
		RefineStep:    5,
		MaxError:      5,
		Tolerance:     1,
		AllowRotation: true,
		Log:           zaptest.NewLogger(t),
	}

	tr, fitErr, err := s.Find(target, source)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if fitErr > 1e-6 {
		t.Errorf("fit error = %f, want ~0", fitErr)
	}
	if quarter := math.Mod(tr.Angle, math.Pi); math.Abs(quarter-math.Pi/2) > 1e-6 {
		t.Errorf("angle = %f rad, want a quarter turn", tr.Angle)
	}
}

func TestSearch_Find_RotationDisabled(t *testing.T) {
	target := rect(0, 0, 200, 20)
	source := rect(1000, 1000, 20, 200)

	s := &Search{
		AngleStep:     15,
		RefineStep:    5,
		MaxError:      5,
		Tolerance:     1,
		AllowRotation: false,
		Log:           zaptest.NewLogger(t),
	}

	if _, _, err := s.Find(target, source); !errors.Is(err, ErrNoFit) {
		t.Fatalf("Find() error = %v, want ErrNoFit with rotation disabled", err)
	}
}

func TestSearch_Find_NoFit(t *testing.T) {
	// source is an order of magnitude larger than the target, nothing helps
	target := rect(0, 0, 10, 10)
	source := rect(0, 0, 1000, 1000)

	s := &Search{
		AngleStep:     15,
		RefineStep:    5,
		MaxError:      5,
		Tolerance:     1,
		AllowRotation: true,
		Log:           zaptest.NewLogger(t),
	}

	tr, fitErr, err := s.Find(target, source)
	if !errors.Is(err, ErrNoFit) {
		t.Fatalf("Find() = (%v, %f, %v), want ErrNoFit", tr, fitErr, err)
	}
}

func TestSearch_Find_DegenerateInput(t *testing.T) {
	s := &Search{AngleStep: 15, RefineStep: 5, MaxError: 10, Tolerance: 1}

	if _, _, err := s.Find(nil, rect(0, 0, 1, 1)); !errors.Is(err, ErrNoFit) {
		t.Errorf("empty target: error = %v, want ErrNoFit", err)
	}
	if _, _, err := s.Find(rect(0, 0, 1, 1), nil); !errors.Is(err, ErrNoFit) {
		t.Errorf("empty source: error = %v, want ErrNoFit", err)
	}
}

func TestSearch_Find_Deterministic(t *testing.T) {
	target := rect(0, 0, 120, 40)
	source := rect(300, 700, 90, 30)

	s := &Search{
		AngleStep:     15,
		RefineStep:    5,
		MaxError:      9,
		Tolerance:     3,
		AllowRotation: true,
		Log:           zaptest.NewLogger(t),
	}

	tr1, err1, e1 := s.Find(target, source)
	tr2, err2, e2 := s.Find(target, source)
	if e1 != nil || e2 != nil {
		t.Fatalf("Find() errors = %v, %v", e1, e2)
	}
	if tr1 != tr2 || err1 != err2 {
		t.Errorf("repeated search disagreed: (%+v, %f) vs (%+v, %f)", tr1, err1, tr2, err2)
	}
}
