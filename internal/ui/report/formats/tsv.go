package formats

import (
	"fmt"
	"strings"

	"depscope/internal/engine/graph"
)

type TSVGenerator struct {
	graph graph.Graph
	kind  string
}

// NewTSVGenerator emits rows tagged with kind, e.g. "call" or "import".
func NewTSVGenerator(g graph.Graph, kind string) *TSVGenerator {
	return &TSVGenerator{graph: g, kind: kind}
}

// Generate lists every forward edge. Edges on a reported cycle are flagged.
func (t *TSVGenerator) Generate(cycles []graph.Cycle) (string, error) {
	var buf strings.Builder
	buf.WriteString("Type\tFrom\tTo\tInCycle\n")

	cycleEdges := cycleEdgeSet(cycles)
	for _, from := range t.graph.NodeIDs() {
		for _, to := range t.graph.Forward(from) {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%t\n", t.kind, from, to, cycleEdges[from+"->"+to]))
		}
	}
	return buf.String(), nil
}

// GenerateCoupling lists coupling metrics in the given row order.
func (t *TSVGenerator) GenerateCoupling(rows []graph.CouplingMetrics) (string, error) {
	var buf strings.Builder
	buf.WriteString("Type\tNode\tAfferent\tEfferent\tInstability\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s_coupling\t%s\t%d\t%d\t%.4f\n",
			t.kind,
			row.Node,
			row.Afferent,
			row.Efferent,
			row.Instability,
		))
	}
	return buf.String(), nil
}
