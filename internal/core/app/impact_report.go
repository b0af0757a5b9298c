package app

import (
	"fmt"
	"strings"

	"depscope/internal/engine/graph"
)

// FormatImpactReport renders the dependents of a node as plain text.
func FormatImpactReport(report graph.ImpactReport) string {
	var b strings.Builder

	b.WriteString("Impact Analysis\n")
	b.WriteString("===============\n")
	fmt.Fprintf(&b, "Target: %s\n\n", report.Target)

	fmt.Fprintf(&b, "Direct dependents (%d)\n", len(report.Direct))
	for _, id := range report.Direct {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Transitive impact (%d)\n", len(report.Transitive))
	for _, id := range report.Transitive {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	return b.String()
}

// FormatChain renders a dependency chain one node per line.
func FormatChain(chain []string) string {
	if len(chain) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dependency chain: %s -> %s\n\n", chain[0], chain[len(chain)-1])
	for i, id := range chain {
		if i > 0 {
			b.WriteString("  -> ")
		}
		b.WriteString(id)
		b.WriteString("\n")
	}
	return b.String()
}
