package viz

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"dataflow-debugger/core/eventlog"
	"dataflow-debugger/core/models"
	"dataflow-debugger/core/store"
)

func loadedStore(t *testing.T) *store.Store {
	t.Helper()
	d1 := &models.Dataset{ID: 1, Type: "ParallelCollection", Origin: "parallelize at app.go:10"}
	d2 := &models.Dataset{ID: 2, Type: "MappedDataset", Origin: "map at app.go:11",
		Deps: []models.Dependency{{Kind: models.DependencyNarrow, Parent: d1}}}
	d3 := &models.Dataset{ID: 3, Type: "ShuffledDataset", Origin: "groupByKey at app.go:12",
		Deps: []models.Dependency{{Kind: models.DependencyWide, Parent: d2}}}
	s1 := &models.Stage{ID: 1, Dataset: d2}
	s2 := &models.Stage{ID: 2, Dataset: d3, Parents: []*models.Stage{s1}}

	var buf bytes.Buffer
	w := eventlog.NewWriter(&buf)
	err := w.Append(&models.Event{Kind: models.EventJobStart, Job: &models.Job{ID: 1, FinalStage: s2}})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	s, err := store.Replay(eventlog.NewReader(io.NopCloser(&buf)))
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	return s
}

func TestDOTNodesAndEdges(t *testing.T) {
	e := NewExporter(loadedStore(t), "", "")
	dot := e.DOT()

	for _, want := range []string{
		`1 [label="1: ParallelCollection\nparallelize at app.go:10"]`,
		`2 [label="2: MappedDataset\nmap at app.go:11"]`,
		`3 [label="3: ShuffledDataset\ngroupByKey at app.go:12"]`,
		"2 -> 1;",
		`3 -> 2 [style=dashed label="wide"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}

	if got := strings.Count(dot, "label="); got != 4 {
		t.Errorf("got %d labeled items, want 3 nodes + 1 wide edge", got)
	}
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("got %d edges, want exactly one per dependency (2)", got)
	}
}

func TestVisualizeGeneratesOutputPath(t *testing.T) {
	outDir := t.TempDir()
	// "true" exits zero without reading stdin; rendering itself is not under test.
	e := NewExporter(loadedStore(t), "true", outDir)

	path, err := e.Visualize("", "")
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("returned path %q is not absolute", path)
	}
	if filepath.Dir(path) != outDir {
		t.Errorf("path %q not under output dir %q", path, outDir)
	}
	if filepath.Ext(path) != "."+DefaultFormat {
		t.Errorf("path %q does not use the default format", path)
	}

	svg, err := e.Visualize("svg", filepath.Join(outDir, "graph.svg"))
	if err != nil {
		t.Fatalf("Visualize with explicit path failed: %v", err)
	}
	if filepath.Base(svg) != "graph.svg" {
		t.Errorf("explicit path not honored: %q", svg)
	}
}

func TestVisualizeMissingRenderer(t *testing.T) {
	e := NewExporter(loadedStore(t), "definitely-not-a-renderer-binary", t.TempDir())
	if _, err := e.Visualize("png", ""); err == nil {
		t.Fatal("expected error for missing renderer binary")
	}
}

func TestListing(t *testing.T) {
	got := Listing(loadedStore(t))

	if !strings.HasPrefix(got, "3 registered datasets") {
		t.Errorf("listing header wrong:\n%s", got)
	}
	for _, want := range []string{
		"1: ParallelCollection (parallelize at app.go:10)",
		"2: MappedDataset (map at app.go:11)",
		"3: ShuffledDataset (groupByKey at app.go:12)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}
