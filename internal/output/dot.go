package output

import (
	"flatcode/internal/core/flatten"
	"fmt"
	"path/filepath"
	"strings"
)

// DOTGenerator renders the references of one run as a Graphviz digraph.
// Node labels are paths relative to base.
type DOTGenerator struct {
	report *flatten.Report
	base   string
}

func NewDOTGenerator(report *flatten.Report, base string) *DOTGenerator {
	return &DOTGenerator{report: report, base: base}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph flatcode {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	roles := make(map[string]flatten.Role)
	order := make([]string, 0, len(d.report.Files)+len(d.report.Reused))
	for _, group := range [][]flatten.FileRecord{d.report.Files, d.report.Reused} {
		for _, f := range group {
			if _, ok := roles[f.Dest]; !ok {
				order = append(order, f.Dest)
			}
			roles[f.Dest] = f.Role
		}
	}

	buf.WriteString("  subgraph cluster_entries {\n")
	buf.WriteString("    label=\"Entries\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\", color=\"darkslategrey\"];\n")
	for _, dest := range order {
		if roles[dest] == flatten.RoleEntry {
			buf.WriteString(fmt.Sprintf("    %q [label=%q];\n", dest, d.label(dest)))
		}
	}
	buf.WriteString("  }\n\n")

	buf.WriteString("  subgraph cluster_flat {\n")
	buf.WriteString("    label=\"Flat Tree\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"aliceblue\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, dest := range order {
		switch roles[dest] {
		case flatten.RoleModule:
			buf.WriteString(fmt.Sprintf("    %q [label=%q, color=\"forestgreen\"];\n", dest, d.label(dest)))
		case flatten.RoleSibling:
			buf.WriteString(fmt.Sprintf("    %q [label=%q, color=\"grey\"];\n", dest, d.label(dest)))
		}
	}
	buf.WriteString("  }\n\n")

	// Nodes for references that never became files.
	declared := make(map[string]bool)
	for _, e := range d.report.Edges {
		id := d.target(e)
		if _, ok := roles[id]; ok || declared[id] {
			continue
		}
		declared[id] = true
		switch e.Kind {
		case flatten.EdgeDangling:
			buf.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled,dashed\"];\n", id, d.label(e.To)))
		default:
			buf.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=\"gainsboro\", color=\"grey\", style=\"rounded,filled\"];\n", id, e.Module))
		}
	}
	buf.WriteString("\n")

	for _, e := range d.report.Edges {
		from, to := e.From, d.target(e)
		switch e.Kind {
		case flatten.EdgeModule:
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"forestgreen\", penwidth=1.8];\n", from, to))
		case flatten.EdgeSibling:
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey\"];\n", from, to))
		case flatten.EdgeDangling:
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"red\", penwidth=2.0, label=\"DANGLING\"];\n", from, to))
		default:
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey\", style=dashed, label=%q];\n", from, to, strings.ToUpper(string(e.Kind))))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// target is the node id an edge points at. References kept as written are
// keyed by module name so repeats share one node.
func (d *DOTGenerator) target(e flatten.Edge) string {
	if e.To != "" {
		return e.To
	}
	return string(e.Kind) + ":" + e.Module
}

func (d *DOTGenerator) label(path string) string {
	if d.base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(d.base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
