package output

import (
	"flatcode/internal/core/flatten"
	"path/filepath"
	"strings"
	"testing"
)

func sampleReport(base string) *flatten.Report {
	entry := filepath.Join(base, "out", "entry.js")
	index := filepath.Join(base, "lib", "m", "index.js")
	sibling := filepath.Join(base, "lib", "m", "x.js")
	gone := filepath.Join(base, "lib", "gone")
	return &flatten.Report{
		Files: []flatten.FileRecord{
			{Role: flatten.RoleSibling, Module: "./x", Dest: sibling},
			{Role: flatten.RoleModule, Module: "m", Dest: index},
			{Role: flatten.RoleEntry, Dest: entry},
		},
		Edges: []flatten.Edge{
			{From: index, To: sibling, Module: "./x", Line: 1, Kind: flatten.EdgeSibling},
			{From: entry, To: index, Module: "m", Line: 1, Kind: flatten.EdgeModule},
			{From: entry, Module: "host", Line: 2, Kind: flatten.EdgeSkipped},
			{From: entry, To: gone, Module: "gone", Line: 3, Kind: flatten.EdgeDangling},
		},
	}
}

func TestDOTGenerator(t *testing.T) {
	base := filepath.FromSlash("/work")
	dot, err := NewDOTGenerator(sampleReport(base), base).Generate()
	if err != nil {
		t.Fatal(err)
	}

	entry := filepath.Join(base, "out", "entry.js")
	index := filepath.Join(base, "lib", "m", "index.js")
	if !strings.Contains(dot, "digraph flatcode") {
		t.Error("DOT output missing digraph header")
	}
	if !strings.Contains(dot, "[label=\"out/entry.js\"]") {
		t.Error("DOT output missing relative entry label")
	}
	if !strings.Contains(dot, "\""+entry+"\" -> \""+index+"\"") {
		t.Errorf("DOT output missing module edge:\n%s", dot)
	}
	if !strings.Contains(dot, "DANGLING") {
		t.Error("DOT output missing DANGLING label")
	}
	if !strings.Contains(dot, "\"skipped:host\" [label=\"host\"") {
		t.Errorf("DOT output missing skipped node:\n%s", dot)
	}
}

func TestTSVGenerator(t *testing.T) {
	base := filepath.FromSlash("/work")
	tsv, err := NewTSVGenerator(sampleReport(base)).Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 5 {
		t.Errorf("Expected 5 lines in TSV, got %d", len(lines))
	}
	want := filepath.Join(base, "out", "entry.js") + "\t\thost\t2\tskipped"
	if lines[3] != want {
		t.Errorf("Unexpected TSV line: %q", lines[3])
	}
}
