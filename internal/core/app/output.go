package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/engine/graph"
	"depscope/internal/shared/observability"
	"depscope/internal/shared/util"
	"depscope/internal/shared/version"
	"depscope/internal/ui/report"
	"depscope/internal/ui/report/formats"
)

type analysisDocument struct {
	*AnalysisResult
	CircularDependencies []graph.Cycle `json:"circular_dependencies"`
}

// EncodeAnalysisJSON renders the analysis result with cycles in report order.
func EncodeAnalysisJSON(res *AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(analysisDocument{AnalysisResult: res, CircularDependencies: res.Cycles()}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode analysis json")
	}
	return data, nil
}

// ReportInput adapts an analysis result to the text report.
func (a *App) ReportInput(res *AnalysisResult) report.Input {
	return report.Input{
		RepoPath:             res.RepoPath,
		CallGraph:            res.CallGraph,
		ImportGraph:          res.ImportGraph,
		Cycles:               res.Cycles(),
		Coupling:             res.CallCoupling,
		ParseErrors:          res.ParseErrors,
		Complexity:           res.Complexity,
		Hotspots:             res.Hotspots,
		Architecture:         res.Architecture,
		TopCoupled:           a.Config.Analysis.TopCoupled,
		InstabilityThreshold: a.Config.Analysis.InstabilityThreshold,
	}
}

// WriteOutputs writes every output configured in [output]. Empty paths are
// skipped.
func (a *App) WriteOutputs(ctx context.Context, res *AnalysisResult) error {
	ctx, span := observability.Tracer.Start(ctx, "write_outputs")
	defer span.End()

	out := a.Config.Output
	writers := []struct {
		path   string
		render func() (string, error)
	}{
		{out.Report, func() (string, error) { return report.Text(a.ReportInput(res)), nil }},
		{out.AnalysisJSON, func() (string, error) {
			data, err := EncodeAnalysisJSON(res)
			return string(data), err
		}},
		{out.DOTCalls, func() (string, error) {
			gen := formats.NewDOTGenerator(res.CallGraph, "calls")
			gen.SetLabeler(formats.CouplingLabeler(res.CallCoupling))
			return gen.Generate(res.CallCycles)
		}},
		{out.DOTImports, func() (string, error) {
			gen := formats.NewDOTGenerator(res.ImportGraph, "imports")
			gen.SetLabeler(formats.CouplingLabeler(res.ImportCoupling))
			return gen.Generate(res.ImportCycles)
		}},
		{out.Mermaid, func() (string, error) { return a.importMermaid(res) }},
		{out.PlantUML, func() (string, error) {
			gen := formats.NewPlantUMLGenerator(res.ImportGraph)
			gen.SetViolations(res.Violations())
			return gen.Generate(res.ImportCycles)
		}},
		{out.TSVEdges, func() (string, error) { return edgesTSV(res) }},
		{out.TSVCoupling, func() (string, error) { return couplingTSV(res) }},
		{out.SARIF, func() (string, error) {
			data, err := formats.GenerateSARIF(formats.SARIFInput{
				ToolVersion: version.Version,
				CallGraph:   res.CallGraph,
				Cycles:      res.Cycles(),
				ParseErrors: res.ParseErrors,
				Violations:  res.Violations(),
			})
			return string(data), err
		}},
	}

	for _, w := range writers {
		if strings.TrimSpace(w.path) == "" {
			continue
		}
		content, err := w.render()
		if err != nil {
			return errors.AddContext(err, errors.CtxPath, w.path)
		}
		if err := util.WriteStringWithDirs(w.path, content, 0o644); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write output"), errors.CtxPath, w.path)
		}
		slog.InfoContext(ctx, "wrote output", "path", w.path)
	}

	if out.Markdown != "" {
		diagram, err := a.importMermaid(res)
		if err != nil {
			return err
		}
		sections := []report.Section{
			report.MermaidSection(out.MarkdownMarker, diagram),
			optional(report.FencedSection(out.MarkdownMarker+"-report", "text", report.Text(a.ReportInput(res)))),
		}
		if err := report.InjectFile(out.Markdown, sections...); err != nil {
			return err
		}
		slog.InfoContext(ctx, "updated markdown", "path", out.Markdown, "marker", out.MarkdownMarker)
	}
	return nil
}

func optional(s report.Section) report.Section {
	s.Optional = true
	return s
}

func (a *App) importMermaid(res *AnalysisResult) (string, error) {
	return formats.NewMermaidGenerator(res.ImportGraph).Generate(res.ImportCycles)
}

func edgesTSV(res *AnalysisResult) (string, error) {
	calls, err := formats.NewTSVGenerator(res.CallGraph, "call").Generate(res.CallCycles)
	if err != nil {
		return "", err
	}
	imports, err := formats.NewTSVGenerator(res.ImportGraph, "import").Generate(res.ImportCycles)
	if err != nil {
		return "", err
	}
	return calls + dropHeader(imports), nil
}

func couplingTSV(res *AnalysisResult) (string, error) {
	calls, err := formats.NewTSVGenerator(res.CallGraph, "call").GenerateCoupling(graph.TopCoupled(res.CallCoupling, len(res.CallCoupling)))
	if err != nil {
		return "", err
	}
	imports, err := formats.NewTSVGenerator(res.ImportGraph, "import").GenerateCoupling(graph.TopCoupled(res.ImportCoupling, len(res.ImportCoupling)))
	if err != nil {
		return "", err
	}
	return calls + dropHeader(imports), nil
}

func dropHeader(tsv string) string {
	if _, rest, ok := strings.Cut(tsv, "\n"); ok {
		return rest
	}
	return ""
}
