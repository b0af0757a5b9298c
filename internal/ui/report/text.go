package report

import (
	"fmt"
	"sort"
	"strings"

	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"
	"depscope/internal/shared/util"

	"github.com/jedib0t/go-pretty/v6/table"
)

const rule = "================================================================================"

// Input carries everything the text report renders.
type Input struct {
	RepoPath    string
	CallGraph   *graph.CallGraph
	ImportGraph *graph.ImportGraph
	// Cycles are listed in the given order, call-graph cycles first.
	Cycles []graph.Cycle
	// Coupling is the call-graph coupling.
	Coupling    map[string]graph.CouplingMetrics
	ParseErrors map[string][]string
	Complexity  graph.ComplexityStats
	Hotspots    []graph.ComplexityHotspot
	// Architecture is nil when no rules are configured; the section is
	// omitted then.
	Architecture *architecture.EvaluationResult

	TopCoupled           int
	InstabilityThreshold float64
}

// Text renders the human-readable analysis report.
func Text(in Input) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("DEPENDENCY ANALYSIS REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "\nRepository: %s\n\n", in.RepoPath)

	writeCallGraph(&b, in.CallGraph)
	writeImportGraph(&b, in.ImportGraph)
	writeParseErrors(&b, in.ParseErrors)
	writeCycles(&b, in.Cycles)
	writeCoupling(&b, in.Coupling, in.TopCoupled)
	writeInstability(&b, in.Coupling, in.InstabilityThreshold)
	writeArchitecture(&b, in.Architecture)
	writeComplexity(&b, in.Complexity, in.Hotspots)

	return b.String()
}

// WriteText renders the report to path, creating parent directories.
func WriteText(path string, in Input) error {
	return util.WriteStringWithDirs(path, Text(in), 0o644)
}

func writeCallGraph(b *strings.Builder, g *graph.CallGraph) {
	b.WriteString("## Call Graph\n")
	if g == nil {
		b.WriteString("  Not built\n\n")
		return
	}
	fmt.Fprintf(b, "  Total functions: %d\n", len(g.NodeIDs()))
	fmt.Fprintf(b, "  Total calls: %d\n", g.CallNameCount())
	fmt.Fprintf(b, "  Resolved call edges: %d\n\n", graph.EdgeCount(g))
}

func writeImportGraph(b *strings.Builder, g *graph.ImportGraph) {
	b.WriteString("## Import Graph\n")
	if g == nil {
		b.WriteString("  Not built\n\n")
		return
	}
	unresolved := 0
	for _, n := range g.Nodes {
		unresolved += len(n.Unresolved)
	}
	fmt.Fprintf(b, "  Total modules: %d\n", len(g.NodeIDs()))
	fmt.Fprintf(b, "  Total imports: %d\n", graph.EdgeCount(g))
	fmt.Fprintf(b, "  Unresolved imports: %d\n\n", unresolved)
}

func writeParseErrors(b *strings.Builder, errs map[string][]string) {
	files := make([]string, 0, len(errs))
	for path, msgs := range errs {
		if len(msgs) > 0 {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return
	}
	sort.Strings(files)

	b.WriteString("## Parse Errors\n")
	for _, path := range files {
		for _, msg := range errs[path] {
			fmt.Fprintf(b, "  %s: %s\n", path, msg)
		}
	}
	b.WriteString("\n")
}

func writeCycles(b *strings.Builder, cycles []graph.Cycle) {
	b.WriteString("## Circular Dependencies\n")
	if len(cycles) == 0 {
		b.WriteString("No circular dependencies detected\n\n")
		return
	}
	for i, c := range cycles {
		fmt.Fprintf(b, "\n### Cycle %d (%s severity, %s)\n", i+1, c.Severity, c.Kind)
		for _, node := range c.Nodes {
			fmt.Fprintf(b, "  → %s\n", node)
		}
	}
	b.WriteString("\n")
}

func writeCoupling(b *strings.Builder, metrics map[string]graph.CouplingMetrics, n int) {
	fmt.Fprintf(b, "## Coupling Metrics (Top %d Most Coupled)\n", n)
	top := graph.TopCoupled(metrics, n)
	if len(top) == 0 {
		b.WriteString("No coupling data\n\n")
		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Node", "Afferent (incoming)", "Efferent (outgoing)", "Instability"})
	for _, m := range top {
		tbl.AppendRow(table.Row{m.Node, m.Afferent, m.Efferent, fmt.Sprintf("%.2f", m.Instability)})
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n\n")
}

func writeInstability(b *strings.Builder, metrics map[string]graph.CouplingMetrics, threshold float64) {
	fmt.Fprintf(b, "## High Instability Nodes (>%g)\n", threshold)
	unstable := graph.HighInstability(metrics, threshold)
	if len(unstable) == 0 {
		b.WriteString("No highly unstable nodes\n\n")
		return
	}
	for _, m := range unstable {
		fmt.Fprintf(b, "  %s: %.2f\n", m.Node, m.Instability)
	}
	b.WriteString("\n")
}

func writeArchitecture(b *strings.Builder, res *architecture.EvaluationResult) {
	if res == nil {
		return
	}
	fmt.Fprintf(b, "## Architecture Rules (%d files checked)\n", res.EvaluatedModules)
	if len(res.Violations) == 0 {
		b.WriteString("No architecture violations\n\n")
		return
	}
	for _, v := range res.Violations {
		switch v.Type {
		case architecture.ViolationFileCount:
			fmt.Fprintf(b, "  [%s] %s: %d files, limit %d\n", v.Rule, v.Module, v.Actual, v.Limit)
		default:
			fmt.Fprintf(b, "  [%s] %s imports %s\n", v.Rule, v.Module, v.Target)
		}
	}
	b.WriteString("\n")
}

func writeComplexity(b *strings.Builder, stats graph.ComplexityStats, hotspots []graph.ComplexityHotspot) {
	b.WriteString("## Complexity\n")
	if stats.Functions == 0 {
		b.WriteString("  No functions\n")
		return
	}
	fmt.Fprintf(b, "  Average complexity: %.2f\n", stats.Average)
	fmt.Fprintf(b, "  Max complexity: %d\n", stats.Max)
	fmt.Fprintf(b, "  Functions above %d: %d\n", stats.Threshold, stats.AboveThreshold)
	if len(hotspots) == 0 {
		return
	}
	b.WriteString("  Most complex:\n")
	for _, h := range hotspots {
		fmt.Fprintf(b, "    %s (%s:%d): %d\n", h.Node, h.File, h.Line, h.Complexity)
	}
}
