// Package ptd reads INDUCTA PTD tendon-layout text exports into typed
// records. All lengths and coordinates are normalized to millimetres on read;
// nothing here touches a host design application.
package ptd

import (
	"fmt"

	"github.com/paulmach/orb"
)

// AnchorKind describes how a tendon end is terminated.
type AnchorKind int

const (
	AnchorStressed AnchorKind = iota + 1
	AnchorDead
	AnchorPan
)

func (k AnchorKind) String() string {
	switch k {
	case AnchorStressed:
		return "stressed"
	case AnchorDead:
		return "dead"
	case AnchorPan:
		return "pan"
	default:
		return fmt.Sprintf("AnchorKind(%d)", int(k))
	}
}

// Tendon types as exported by PTD.
const (
	TypeStraight = 1
	TypePan      = 2
)

// ProfilePoint is a sampled (distance, height) pair along the tendon drape.
// Distance is millimetres from the reference end, height is integer
// millimetres of relief.
type ProfilePoint struct {
	Distance float64
	Height   int
}

// Tendon is a single record from the export. Fields left untouched by the
// file keep their zero values - the format makes no completeness promises.
type Tendon struct {
	ID          int
	Length      float64   // mm
	Start, End  orb.Point // mm
	Type        int
	StrandType  float64
	StrandCount int
	StartAnchor AnchorKind
	EndAnchor   AnchorKind
	Points      []ProfilePoint
}

// TendonSet preserves source order. Duplicate IDs are passed through.
type TendonSet []*Tendon

// newTendon opens a record for the given id with export defaults: a live
// (stressed) start and a dead end unless the file overrides them.
func newTendon(id int) *Tendon {
	return &Tendon{
		ID:          id,
		StartAnchor: AnchorStressed,
		EndAnchor:   AnchorDead,
	}
}

// anchorFor maps a "Live End"/"Dead End" marker to the anchor kind, taking
// the pan tendon type into account.
func (t *Tendon) anchorFor(live bool) AnchorKind {
	if !live {
		return AnchorDead
	}
	if t.Type == TypePan {
		return AnchorPan
	}
	return AnchorStressed
}
