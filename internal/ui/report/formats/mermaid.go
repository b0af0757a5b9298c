package formats

import (
	"fmt"
	"strings"

	"depscope/internal/engine/graph"
)

// MermaidGenerator renders a graph as a Mermaid flowchart.
type MermaidGenerator struct {
	graph   graph.Graph
	labeler NodeLabeler
}

func NewMermaidGenerator(g graph.Graph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

func (m *MermaidGenerator) SetLabeler(l NodeLabeler) {
	m.labeler = l
}

func (m *MermaidGenerator) Generate(cycles []graph.Cycle) (string, error) {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	names := m.graph.NodeIDs()
	ids := makeIDs(names)
	for _, name := range names {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[name], escapeLabel(strings.ReplaceAll(label(m.labeler, name), "\\n", "<br/>"))))
	}

	inCycle := cycleNodeSet(cycles)
	var cycleIDs []string
	for _, name := range names {
		if inCycle[name] {
			cycleIDs = append(cycleIDs, ids[name])
		}
	}
	if len(cycleIDs) > 0 {
		b.WriteString("\n  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px,color:#000000;\n")
		b.WriteString(fmt.Sprintf("  class %s cycleNode;\n", strings.Join(cycleIDs, ",")))
	}

	b.WriteString("\n")
	cycleEdges := cycleEdgeSet(cycles)
	linkIndex := 0
	var cycleLinks []int
	for _, from := range names {
		for _, to := range m.graph.Forward(from) {
			edgeLabel := ""
			if cycleEdges[from+"->"+to] {
				edgeLabel = "|CYCLE|"
				cycleLinks = append(cycleLinks, linkIndex)
			}
			b.WriteString(fmt.Sprintf("  %s -->%s %s\n", ids[from], edgeLabel, ids[to]))
			linkIndex++
		}
	}
	if len(cycleLinks) > 0 {
		b.WriteString(fmt.Sprintf("\n  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinks)))
	}
	return b.String(), nil
}
