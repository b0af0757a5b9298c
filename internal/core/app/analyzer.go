// # internal/core/app/analyzer.go
package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"
	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"
	"depscope/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// AnalysisResult bundles both graphs with their cycles and coupling.
type AnalysisResult struct {
	RepoPath       string                           `json:"repo_path"`
	Summary        parser.Summary                   `json:"summary"`
	CallGraph      *graph.CallGraph                 `json:"call_graph"`
	ImportGraph    *graph.ImportGraph               `json:"import_graph"`
	CallCycles     []graph.Cycle                    `json:"-"`
	ImportCycles   []graph.Cycle                    `json:"-"`
	CallCoupling   map[string]graph.CouplingMetrics `json:"coupling_metrics"`
	ImportCoupling map[string]graph.CouplingMetrics `json:"import_coupling_metrics"`
	Complexity     graph.ComplexityStats            `json:"complexity"`
	Hotspots       []graph.ComplexityHotspot        `json:"complexity_hotspots"`
	ParseErrors    map[string][]string              `json:"parse_errors"`
	// Architecture is nil when no rules are configured.
	Architecture *architecture.EvaluationResult `json:"architecture,omitempty"`
}

// Cycles returns call-graph cycles followed by import-graph cycles.
func (r *AnalysisResult) Cycles() []graph.Cycle {
	out := make([]graph.Cycle, 0, len(r.CallCycles)+len(r.ImportCycles))
	out = append(out, r.CallCycles...)
	return append(out, r.ImportCycles...)
}

// Violations returns the architecture violations, if rules were evaluated.
func (r *AnalysisResult) Violations() []architecture.Violation {
	if r.Architecture == nil {
		return nil
	}
	return r.Architecture.Violations
}

func (r *AnalysisResult) HasHighSeverity() bool {
	return graph.HasHighSeverity(r.Cycles())
}

// MaxInstability is the highest call-graph instability among nodes with
// outgoing edges.
func (r *AnalysisResult) MaxInstability() float64 {
	maxI := 0.0
	for _, m := range r.CallCoupling {
		if m.Efferent > 0 && m.Instability > maxI {
			maxI = m.Instability
		}
	}
	return maxI
}

// Analyze builds the import graph, then the call graph, detects cycles on both
// and computes coupling. root is where go.mod is looked up; it defaults to the
// repository path of the extraction.
func (a *App) Analyze(ctx context.Context, repo *parser.RepositoryExtractionResult, root string) (*AnalysisResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyze")
	defer span.End()
	start := time.Now()

	if root == "" {
		root = repo.RepoPath
	}
	if abs, err := filepath.Abs(root); err == nil && root != "" {
		root = abs
	}
	// Node ids are root-relative whatever the extraction keys look like.
	repo = repo.RelativeTo(root)

	mod, err := resolver.FindGoModule(root)
	if err != nil {
		// A broken go.mod only disables Go import resolution.
		slog.WarnContext(ctx, "go.mod ignored", "root", root, "error", err)
		mod = nil
	}

	stage := time.Now()
	importResolver := resolver.NewImportResolver(repo.Paths(), a.Config.Resolver.ExternalPackages).WithGoModule(mod)
	importGraph := graph.BuildImportGraph(repo, importResolver)
	observability.AnalysisDuration.WithLabelValues("import_graph").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	callGraph, err := graph.BuildCallGraph(repo, graph.CallGraphOptions{
		Resolver: a.Config.Resolver.Calls,
		Imports:  importGraph.ImportMap(),
	})
	if err != nil {
		return nil, err
	}
	observability.AnalysisDuration.WithLabelValues("call_graph").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	opts := graph.DetectOptions{Canonical: a.Config.Analysis.DedupeCycles}
	callCycles := graph.DetectCycles(callGraph, graph.CycleFunctionCall, opts)
	importCycles := graph.DetectCycles(importGraph, graph.CycleModuleImport, opts)
	observability.AnalysisDuration.WithLabelValues("cycles").Observe(time.Since(stage).Seconds())

	res := &AnalysisResult{
		RepoPath:       repo.RepoPath,
		Summary:        repo.Summary(),
		CallGraph:      callGraph,
		ImportGraph:    importGraph,
		CallCycles:     callCycles,
		ImportCycles:   importCycles,
		CallCoupling:   graph.ComputeCoupling(callGraph),
		ImportCoupling: graph.ComputeCoupling(importGraph),
		Complexity:     callGraph.Complexity(a.Config.Analysis.HighComplexity),
		Hotspots:       callGraph.TopComplexity(a.Config.Analysis.TopComplex),
		ParseErrors:    make(map[string][]string),
	}
	for _, path := range repo.Paths() {
		if f := repo.Files[path]; f.Failed() {
			res.ParseErrors[path] = f.ParseErrors
		}
	}
	if len(a.Config.Architecture.Rules) > 0 {
		eval := a.Rules.Evaluate(importGraph)
		res.Architecture = &eval
		for _, v := range eval.Violations {
			observability.ArchitectureViolations.WithLabelValues(v.Rule, v.Type).Inc()
		}
	}

	recordGraph("calls", callGraph)
	recordGraph("imports", importGraph)
	for _, c := range res.Cycles() {
		observability.CyclesTotal.WithLabelValues(string(c.Kind), string(c.Severity)).Inc()
	}
	observability.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("functions", len(callGraph.NodeIDs())),
		attribute.Int("modules", len(importGraph.NodeIDs())),
		attribute.Int("cycles", len(callCycles)+len(importCycles)),
	)
	slog.InfoContext(ctx, "analysis complete",
		"functions", len(callGraph.NodeIDs()),
		"call_edges", graph.EdgeCount(callGraph),
		"modules", len(importGraph.NodeIDs()),
		"import_edges", graph.EdgeCount(importGraph),
		"call_cycles", len(callCycles),
		"import_cycles", len(importCycles),
		"resolver", a.Config.Resolver.Calls,
		"duration", time.Since(start))
	return res, nil
}

func recordGraph(name string, g graph.Graph) {
	observability.GraphNodes.WithLabelValues(name).Set(float64(len(g.NodeIDs())))
	observability.GraphEdges.WithLabelValues(name).Set(float64(graph.EdgeCount(g)))
}
