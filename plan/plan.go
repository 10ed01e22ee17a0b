// Package plan carries tendons in the units of the downstream placement
// layer. It adapts parsed PTD records (always millimetres) into the host
// unit, exposes the endpoint cloud for alignment and applies the resulting
// rigid transform in place - each tendon is processed once per import.
package plan

import (
	"fmt"

	"github.com/paulmach/orb"

	"ptdi/align"
	"ptdi/ptd"
)

// MMPerFt is exact by definition of the international foot.
const MMPerFt = 304.8

// Unit is the linear unit of placement coordinates.
type Unit int

const (
	UnitMM Unit = iota
	UnitFt
)

func (u Unit) String() string {
	if u == UnitFt {
		return "ft"
	}
	return "mm"
}

// ParseUnit accepts the unit names used in configuration files.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "mm":
		return UnitMM, nil
	case "ft":
		return UnitFt, nil
	}
	return UnitMM, fmt.Errorf("unknown unit %q", s)
}

func (u Unit) FromMM(v float64) float64 {
	if u == UnitFt {
		return v / MMPerFt
	}
	return v
}

// ProfilePoint mirrors ptd.ProfilePoint with distance in the placement unit.
// Relief heights stay integer millimetres regardless of unit - that is what
// annotation text shows.
type ProfilePoint struct {
	Distance float64
	Height   int
}

// Tendon is a placement-ready record. Grouped marks secondary members of a
// group so the placement layer draws their annotation once.
type Tendon struct {
	ID          int
	Length      float64
	Start, End  orb.Point
	Type        int
	StrandType  float64
	StrandCount int
	StartAnchor ptd.AnchorKind
	EndAnchor   ptd.AnchorKind
	Points      []ProfilePoint
	Grouped     bool
}

// Direction returns the plan vector from end to start.
func (t *Tendon) Direction() orb.Point {
	return orb.Point{t.Start.X() - t.End.X(), t.Start.Y() - t.End.Y()}
}

// TendonSet preserves the source order of the import batch.
type TendonSet []*Tendon

// Adapt converts parsed records into placement units. Profile distances
// follow the unit, heights stay millimetres.
func Adapt(src ptd.TendonSet, unit Unit) TendonSet {
	out := make(TendonSet, 0, len(src))
	for _, td := range src {
		t := &Tendon{
			ID:          td.ID,
			Length:      unit.FromMM(td.Length),
			Start:       orb.Point{unit.FromMM(td.Start.X()), unit.FromMM(td.Start.Y())},
			End:         orb.Point{unit.FromMM(td.End.X()), unit.FromMM(td.End.Y())},
			Type:        td.Type,
			StrandType:  td.StrandType,
			StrandCount: td.StrandCount,
			StartAnchor: td.StartAnchor,
			EndAnchor:   td.EndAnchor,
			Points:      make([]ProfilePoint, 0, len(td.Points)),
		}
		for _, p := range td.Points {
			t.Points = append(t.Points, ProfilePoint{
				Distance: unit.FromMM(p.Distance),
				Height:   p.Height,
			})
		}
		out = append(out, t)
	}
	return out
}

// EndPoints returns the flattened endpoint cloud, two points per tendon in
// source order.
func (s TendonSet) EndPoints() []orb.Point {
	pts := make([]orb.Point, 0, 2*len(s))
	for _, t := range s {
		pts = append(pts, t.Start, t.End)
	}
	return pts
}

// ApplyTransform moves every endpoint by tr. Profile distances are relative
// to the (already moved) start point and stay untouched.
func (s TendonSet) ApplyTransform(tr align.Transform) {
	if tr.IsZero() {
		return
	}
	for _, t := range s {
		t.Start = tr.Apply(t.Start)
		t.End = tr.Apply(t.End)
	}
}
