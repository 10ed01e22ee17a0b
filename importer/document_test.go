package importer

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/paulmach/orb"
	yaml "gopkg.in/yaml.v3"

	"ptdi/group"
	"ptdi/plan"
	"ptdi/ptd"
)

func sampleGroups() []group.Group {
	a := &plan.Tendon{
		ID:          1,
		Length:      12345,
		Start:       orb.Point{100000, 200000},
		End:         orb.Point{300000, 200000},
		Type:        ptd.TypeStraight,
		StrandType:  12.7,
		StrandCount: 3,
		StartAnchor: ptd.AnchorStressed,
		EndAnchor:   ptd.AnchorDead,
		Points: []plan.ProfilePoint{
			{Distance: 0, Height: 0},
			{Distance: 3500, Height: 25},
		},
	}
	b := &plan.Tendon{
		ID:          2,
		Length:      12345,
		Start:       orb.Point{100000, 201000},
		End:         orb.Point{300000, 201000},
		StartAnchor: ptd.AnchorStressed,
		EndAnchor:   ptd.AnchorDead,
		Grouped:     true,
	}
	c := &plan.Tendon{
		ID:          3,
		Length:      5000,
		Start:       orb.Point{0, 0},
		End:         orb.Point{0, 5000},
		StartAnchor: ptd.AnchorPan,
		EndAnchor:   ptd.AnchorPan,
	}
	return []group.Group{
		{Tendons: plan.TendonSet{a, b}},
		{Tendons: plan.TendonSet{c}},
	}
}

func TestBuildDocument(t *testing.T) {
	alignment := &Alignment{AngleDeg: 90, Dx: 10, Dy: -20, Error: 1.5}
	doc := buildDocument("job.txt", plan.UnitMM, sampleGroups(), alignment)

	if doc.Batch == "" {
		t.Error("document has no batch id")
	}
	if doc.Source != "job.txt" {
		t.Errorf("Source = %q, want job.txt", doc.Source)
	}
	if doc.Units != "mm" {
		t.Errorf("Units = %q, want mm", doc.Units)
	}
	if !doc.Aligned || doc.Alignment == nil {
		t.Error("document should carry the alignment record")
	}
	if len(doc.Groups) != 2 {
		t.Fatalf("document has %d groups, want 2", len(doc.Groups))
	}
	if doc.Groups[0].Representative != 1 {
		t.Errorf("first group representative = %d, want 1", doc.Groups[0].Representative)
	}
	if len(doc.Groups[0].Tendons) != 2 {
		t.Errorf("first group has %d tendons, want 2", len(doc.Groups[0].Tendons))
	}
	if !doc.Groups[0].Tendons[1].Grouped {
		t.Error("secondary group member should be marked grouped")
	}
	if doc.Groups[1].Tendons[0].StartAnchor != "pan" {
		t.Errorf("anchor = %q, want pan", doc.Groups[1].Tendons[0].StartAnchor)
	}

	// two documents from the same input must not share a batch id
	if other := buildDocument("job.txt", plan.UnitMM, sampleGroups(), nil); other.Batch == doc.Batch {
		t.Error("batch ids must be unique per document")
	}
}

func TestBuildDocument_Unaligned(t *testing.T) {
	doc := buildDocument("job.txt", plan.UnitFt, sampleGroups(), nil)

	if doc.Aligned {
		t.Error("document without alignment must not claim to be aligned")
	}
	if doc.Alignment != nil {
		t.Error("unaligned document should carry no alignment record")
	}
	if doc.Units != "ft" {
		t.Errorf("Units = %q, want ft", doc.Units)
	}
}

func TestDocument_EncodeYAML(t *testing.T) {
	doc := buildDocument("job.txt", plan.UnitMM, sampleGroups(), &Alignment{AngleDeg: 15})

	data, err := doc.EncodeYAML()
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}

	var decoded Document
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("encoded document is not valid YAML: %v", err)
	}

	if decoded.Batch != doc.Batch {
		t.Errorf("Batch = %q, want %q", decoded.Batch, doc.Batch)
	}
	if len(decoded.Groups) != len(doc.Groups) {
		t.Fatalf("decoded %d groups, want %d", len(decoded.Groups), len(doc.Groups))
	}
	td := decoded.Groups[0].Tendons[0]
	if td.ID != 1 || td.Length != 12345 {
		t.Errorf("decoded tendon = %+v, want id 1 length 12345", td)
	}
	if td.Start != [2]float64{100000, 200000} {
		t.Errorf("decoded Start = %v, want [100000 200000]", td.Start)
	}
	if len(td.Profile) != 2 || td.Profile[1].Height != 25 {
		t.Errorf("decoded profile = %+v, want 2 points with height 25", td.Profile)
	}
	if decoded.Alignment == nil || decoded.Alignment.AngleDeg != 15 {
		t.Errorf("decoded alignment = %+v, want angle 15", decoded.Alignment)
	}
}

func TestDocument_EncodeXML(t *testing.T) {
	doc := buildDocument("job.txt", plan.UnitMM, sampleGroups(), &Alignment{AngleDeg: 90, Dx: 10})

	data, err := doc.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}

	parsed := etree.NewDocument()
	if err := parsed.ReadFromBytes(data); err != nil {
		t.Fatalf("encoded document is not valid XML: %v", err)
	}

	root := parsed.Root()
	if root == nil || root.Tag != "placement" {
		t.Fatalf("root element = %v, want <placement>", root)
	}
	if got := root.SelectAttrValue("batch", ""); got != doc.Batch {
		t.Errorf("batch attr = %q, want %q", got, doc.Batch)
	}
	if got := root.SelectAttrValue("aligned", ""); got != "true" {
		t.Errorf("aligned attr = %q, want true", got)
	}

	if a := root.SelectElement("alignment"); a == nil {
		t.Error("missing <alignment> element")
	} else if got := a.SelectAttrValue("angle_deg", ""); got != "90" {
		t.Errorf("angle_deg attr = %q, want 90", got)
	}

	groups := root.SelectElements("group")
	if len(groups) != 2 {
		t.Fatalf("document has %d <group> elements, want 2", len(groups))
	}

	tendons := groups[0].SelectElements("tendon")
	if len(tendons) != 2 {
		t.Fatalf("first group has %d <tendon> elements, want 2", len(tendons))
	}
	if got := tendons[0].SelectAttrValue("id", ""); got != "1" {
		t.Errorf("tendon id attr = %q, want 1", got)
	}
	if start := tendons[0].SelectElement("start"); start == nil {
		t.Error("missing <start> element")
	} else if got := start.SelectAttrValue("x", ""); got != "100000" {
		t.Errorf("start x attr = %q, want 100000", got)
	}
	if pts := tendons[0].SelectElements("point"); len(pts) != 2 {
		t.Errorf("tendon has %d <point> elements, want 2", len(pts))
	}
}
