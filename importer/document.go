package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"ptdi/group"
	"ptdi/plan"
)

// Document is the placement document handed to the downstream layer. One
// document describes one import batch; all coordinates are in Units.
type Document struct {
	Batch     string     `yaml:"batch"`
	Source    string     `yaml:"source"`
	Created   time.Time  `yaml:"created"`
	Units     string     `yaml:"units"`
	Aligned   bool       `yaml:"aligned"`
	Alignment *Alignment `yaml:"alignment,omitempty"`
	Groups    []Grouped  `yaml:"groups"`
}

// Alignment records the accepted rigid transform for traceability. Dx/Dy are
// in document units, the rotation is about the source endpoint centroid.
type Alignment struct {
	AngleDeg float64 `yaml:"angle_deg"`
	Dx       float64 `yaml:"dx"`
	Dy       float64 `yaml:"dy"`
	Error    float64 `yaml:"error"`
}

// Grouped is one annotation group, representative first.
type Grouped struct {
	Representative int      `yaml:"representative"`
	Tendons        []Record `yaml:"tendons"`
}

// Record is the serialized form of a placed tendon.
type Record struct {
	ID          int            `yaml:"id"`
	Length      float64        `yaml:"length"`
	Start       [2]float64     `yaml:"start,flow"`
	End         [2]float64     `yaml:"end,flow"`
	Type        int            `yaml:"type"`
	StrandType  float64        `yaml:"strand_type"`
	StrandCount int            `yaml:"strand_count"`
	StartAnchor string         `yaml:"start_anchor"`
	EndAnchor   string         `yaml:"end_anchor"`
	Grouped     bool           `yaml:"grouped,omitempty"`
	Profile     []ProfileEntry `yaml:"profile,omitempty"`
}

// ProfileEntry is a drape sample; height stays integer millimetres.
type ProfileEntry struct {
	Distance float64 `yaml:"distance"`
	Height   int     `yaml:"height"`
}

// buildDocument assembles the document from partitioned tendons. A nil
// alignment means the batch stays at export coordinates.
func buildDocument(source string, unit plan.Unit, groups []group.Group, alignment *Alignment) *Document {
	doc := &Document{
		Batch:     uuid.NewString(),
		Source:    source,
		Created:   time.Now().UTC(),
		Units:     unit.String(),
		Aligned:   alignment != nil,
		Alignment: alignment,
		Groups:    make([]Grouped, 0, len(groups)),
	}
	for _, g := range groups {
		dg := Grouped{
			Representative: g.Representative().ID,
			Tendons:        make([]Record, 0, len(g.Tendons)),
		}
		for _, t := range g.Tendons {
			dg.Tendons = append(dg.Tendons, makeRecord(t))
		}
		doc.Groups = append(doc.Groups, dg)
	}
	return doc
}

func makeRecord(t *plan.Tendon) Record {
	r := Record{
		ID:          t.ID,
		Length:      t.Length,
		Start:       [2]float64{t.Start.X(), t.Start.Y()},
		End:         [2]float64{t.End.X(), t.End.Y()},
		Type:        t.Type,
		StrandType:  t.StrandType,
		StrandCount: t.StrandCount,
		StartAnchor: t.StartAnchor.String(),
		EndAnchor:   t.EndAnchor.String(),
		Grouped:     t.Grouped,
	}
	for _, p := range t.Points {
		r.Profile = append(r.Profile, ProfileEntry{Distance: p.Distance, Height: p.Height})
	}
	return r
}

// EncodeYAML renders the document as YAML.
func (d *Document) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal placement document: %w", err)
	}
	return data, nil
}

// EncodeXML renders the document as XML.
func (d *Document) EncodeXML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("placement")
	root.CreateAttr("batch", d.Batch)
	root.CreateAttr("source", d.Source)
	root.CreateAttr("created", d.Created.Format(time.RFC3339))
	root.CreateAttr("units", d.Units)
	root.CreateAttr("aligned", strconv.FormatBool(d.Aligned))

	if d.Alignment != nil {
		a := root.CreateElement("alignment")
		a.CreateAttr("angle_deg", formatFloat(d.Alignment.AngleDeg))
		a.CreateAttr("dx", formatFloat(d.Alignment.Dx))
		a.CreateAttr("dy", formatFloat(d.Alignment.Dy))
		a.CreateAttr("error", formatFloat(d.Alignment.Error))
	}

	for _, g := range d.Groups {
		ge := root.CreateElement("group")
		ge.CreateAttr("representative", strconv.Itoa(g.Representative))
		for _, t := range g.Tendons {
			te := ge.CreateElement("tendon")
			te.CreateAttr("id", strconv.Itoa(t.ID))
			te.CreateAttr("length", formatFloat(t.Length))
			te.CreateAttr("type", strconv.Itoa(t.Type))
			te.CreateAttr("strand_type", formatFloat(t.StrandType))
			te.CreateAttr("strand_count", strconv.Itoa(t.StrandCount))
			te.CreateAttr("start_anchor", t.StartAnchor)
			te.CreateAttr("end_anchor", t.EndAnchor)
			if t.Grouped {
				te.CreateAttr("grouped", "true")
			}

			s := te.CreateElement("start")
			s.CreateAttr("x", formatFloat(t.Start[0]))
			s.CreateAttr("y", formatFloat(t.Start[1]))

			e := te.CreateElement("end")
			e.CreateAttr("x", formatFloat(t.End[0]))
			e.CreateAttr("y", formatFloat(t.End[1]))

			for _, p := range t.Profile {
				pe := te.CreateElement("point")
				pe.CreateAttr("distance", formatFloat(p.Distance))
				pe.CreateAttr("height", strconv.Itoa(p.Height))
			}
		}
	}

	doc.Indent(2)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to serialize placement document: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
