// Package viz renders the registered lineage graph through an external
// Graphviz-compatible renderer and produces human-readable listings.
package viz

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dataflow-debugger/core/models"
	"dataflow-debugger/core/store"

	"github.com/google/uuid"
)

// DefaultFormat is the image format used when the caller does not pick one
const DefaultFormat = "png"

// Exporter renders the dataset registry of a loaded store
type Exporter struct {
	store  *store.Store
	binary string
	outDir string
}

// NewExporter creates an exporter over a loaded store. binary and outDir
// default to "dot" and the system temp directory.
func NewExporter(s *store.Store, binary, outDir string) *Exporter {
	if binary == "" {
		binary = "dot"
	}
	if outDir == "" {
		outDir = os.TempDir()
	}
	return &Exporter{store: s, binary: binary, outDir: outDir}
}

// DOT builds the directed-graph description: one node per registered dataset
// labeled with id, type tag, and origin; one edge per dependency pointing at
// the parent dataset. Wide edges are drawn dashed.
func (e *Exporter) DOT() string {
	var b strings.Builder
	b.WriteString("digraph lineage {\n")
	b.WriteString("\tnode [shape=box];\n")
	for _, ds := range e.store.Datasets() {
		fmt.Fprintf(&b, "\t%d [label=%q];\n", ds.ID, nodeLabel(ds))
		for _, dep := range ds.Deps {
			if dep.Kind == models.DependencyWide {
				fmt.Fprintf(&b, "\t%d -> %d [style=dashed label=\"wide\"];\n", ds.ID, dep.Parent.ID)
			} else {
				fmt.Fprintf(&b, "\t%d -> %d;\n", ds.ID, dep.Parent.ID)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func nodeLabel(ds *models.Dataset) string {
	label := fmt.Sprintf("%d: %s", ds.ID, ds.Type)
	if ds.Origin != "" {
		label += "\n" + ds.Origin
	}
	return label
}

// Visualize pipes the graph description into the external renderer and blocks
// until it exits. An empty format falls back to DefaultFormat; an empty path
// gets a generated file name under the output directory. Returns the absolute
// output path. There is no timeout: the caller inherits the renderer's own
// failure or hang behavior.
func (e *Exporter) Visualize(format, path string) (string, error) {
	if format == "" {
		format = DefaultFormat
	}
	if path == "" {
		path = filepath.Join(e.outDir, fmt.Sprintf("lineage-%s.%s", uuid.New().String(), format))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	cmd := exec.Command(e.binary, "-T"+format, "-o", abs)
	cmd.Stdin = strings.NewReader(e.DOT())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("render graph with %s: %w: %s", e.binary, err, msg)
		}
		return "", fmt.Errorf("render graph with %s: %w", e.binary, err)
	}
	return abs, nil
}
