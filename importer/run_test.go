package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"

	"ptdi/config"
	"ptdi/plan"
	"ptdi/state"
)

const testExport = `Tendon No. 1
Length :  10.000m
End Point co-orinates, start: ( 0.0, 0.0 ) end: ( 10.0, 0.0 )
Type : 1
Type of strands : 12.7
Number of strands : 3

Tendon No. 2
Length :  10.000m
End Point co-orinates, start: ( 0.0, 1.0 ) end: ( 10.0, 1.0 )
Type : 1
Type of strands : 12.7
Number of strands : 3
`

const testOutline = `{
  "type": "Polygon",
  "coordinates": [[[50000, 50000], [64000, 50000], [64000, 56000], [50000, 56000], [50000, 50000]]]
}`

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("unable to load default configuration: %v", err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestProcess_EndToEnd(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)
	outline := writeTestFile(t, tmpDir, "outline.geojson", testOutline)
	dst := filepath.Join(tmpDir, "out")

	if err := process(ctx, src, dst, plan.UnitMM, "yaml", outline, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "job.yaml"))
	if err != nil {
		t.Fatalf("placement document not written: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("placement document is not valid YAML: %v", err)
	}

	if doc.Source != "job.txt" {
		t.Errorf("Source = %q, want job.txt", doc.Source)
	}
	if doc.Units != "mm" {
		t.Errorf("Units = %q, want mm", doc.Units)
	}
	if !doc.Aligned || doc.Alignment == nil {
		t.Fatal("layout should have been aligned to the outline")
	}
	if len(doc.Groups) != 1 {
		t.Fatalf("document has %d groups, want 1 (parallel run)", len(doc.Groups))
	}
	if len(doc.Groups[0].Tendons) != 2 {
		t.Fatalf("group has %d tendons, want 2", len(doc.Groups[0].Tendons))
	}

	// endpoints moved from export coordinates into the outline
	for _, td := range doc.Groups[0].Tendons {
		for _, p := range [][2]float64{td.Start, td.End} {
			if p[0] < 50000 || p[0] > 64000 || p[1] < 50000 || p[1] > 56000 {
				t.Errorf("tendon %d endpoint %v outside the outline", td.ID, p)
			}
		}
	}
}

func TestProcess_NoOutline(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)

	if err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", "", env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "job.yaml"))
	if err != nil {
		t.Fatalf("placement document not written: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("placement document is not valid YAML: %v", err)
	}
	if doc.Aligned || doc.Alignment != nil {
		t.Error("document without outline must stay unaligned")
	}
	// coordinates stay at export values
	if doc.Groups[0].Tendons[0].Start != [2]float64{0, 0} {
		t.Errorf("Start = %v, want export coordinates (0, 0)", doc.Groups[0].Tendons[0].Start)
	}
}

func TestProcess_XMLFormat(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)

	if err := process(ctx, src, tmpDir, plan.UnitMM, "xml", "", env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	parsed := etree.NewDocument()
	if err := parsed.ReadFromFile(filepath.Join(tmpDir, "job.xml")); err != nil {
		t.Fatalf("placement document is not valid XML: %v", err)
	}
	if root := parsed.Root(); root == nil || root.Tag != "placement" {
		t.Errorf("unexpected XML root: %v", parsed.Root())
	}
}

func TestProcess_ExistingDestination(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)
	writeTestFile(t, tmpDir, "job.yaml", "old content\n")

	err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", "", env.Log)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("process() error = %v, want destination conflict", err)
	}

	// with overwrite requested the old document is replaced
	env.Overwrite = true
	if err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", "", env.Log); err != nil {
		t.Fatalf("process() with overwrite error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(tmpDir, "job.yaml"))
	if err != nil {
		t.Fatalf("unable to read placement document: %v", err)
	}
	if strings.Contains(string(data), "old content") {
		t.Error("existing document was not overwritten")
	}
}

func TestProcess_EmptyExport(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "empty.txt", "nothing to see here\n")

	err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", "", env.Log)
	if err == nil || !strings.Contains(err.Error(), "no tendons") {
		t.Fatalf("process() error = %v, want no-tendons failure", err)
	}
}

func TestProcess_GroupingDisabled(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	env.NoGroup = true

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)

	if err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", "", env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "job.yaml"))
	if err != nil {
		t.Fatalf("placement document not written: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("placement document is not valid YAML: %v", err)
	}
	if len(doc.Groups) != 2 {
		t.Errorf("document has %d groups, want 2 singletons with grouping off", len(doc.Groups))
	}
}

func TestProcess_NoFitKeepsCoordinates(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	src := writeTestFile(t, tmpDir, "job.txt", testExport)
	// outline far too small for the 10 m layout
	outline := writeTestFile(t, tmpDir, "outline.geojson",
		`{"type": "Polygon", "coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]}`)

	if err := process(ctx, src, tmpDir, plan.UnitMM, "yaml", outline, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	var doc Document
	data, err := os.ReadFile(filepath.Join(tmpDir, "job.yaml"))
	if err != nil {
		t.Fatalf("placement document not written: %v", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("placement document is not valid YAML: %v", err)
	}
	if doc.Aligned {
		t.Error("no-fit import must not claim to be aligned")
	}
	if doc.Groups[0].Tendons[0].Start != [2]float64{0, 0} {
		t.Errorf("Start = %v, want untouched export coordinates", doc.Groups[0].Tendons[0].Start)
	}
}
