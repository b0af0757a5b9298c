package formats

import (
	"fmt"
	"strings"

	"depscope/internal/engine/graph"
)

// DOTGenerator renders a graph in Graphviz DOT syntax with cycle members and
// cycle edges highlighted.
type DOTGenerator struct {
	graph   graph.Graph
	name    string
	labeler NodeLabeler
}

func NewDOTGenerator(g graph.Graph, name string) *DOTGenerator {
	return &DOTGenerator{graph: g, name: name}
}

func (d *DOTGenerator) SetLabeler(l NodeLabeler) {
	d.labeler = l
}

func (d *DOTGenerator) Generate(cycles []graph.Cycle) (string, error) {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("digraph %s {\n", sanitizeID(d.name)))
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(cycles)
	inCycle := cycleNodeSet(cycles)

	for _, id := range d.graph.NodeIDs() {
		lbl := escapeLabel(label(d.labeler, id))
		if inCycle[id] {
			buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\", style=\"rounded,filled\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", id, lbl))
		} else {
			buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\", color=\"darkslategrey\"];\n", id, lbl))
		}
	}
	buf.WriteString("\n")

	for _, from := range d.graph.NodeIDs() {
		for _, to := range d.graph.Forward(from) {
			if cycleEdges[from+"->"+to] {
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", from, to))
			} else {
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\"];\n", from, to))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
