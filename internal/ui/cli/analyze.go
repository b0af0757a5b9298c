package cli

import (
	"context"
	"fmt"
	"os"

	"depscope/internal/core/errors"
	"depscope/internal/engine/parser"
	"depscope/internal/ui/report"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	root       string
	report     string
	json       string
	dotCalls   string
	dotImports string
	mermaid    string
	plantuml   string
	tsv        string
	sarif      string
	resolver   string
	dedupe     bool
	failOnHigh bool
	failOnRule bool
}

func newAnalyzeCommand(rt *runtime) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [extraction.json|repo]",
		Short: "Build call and import graphs and report circular dependencies",
		Long: `Analyze reads an extraction document, or extracts a repository directory
first, then builds the call graph and import graph, detects cycles and
computes coupling. Without --report the text report goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := rt.cfg.Scan.Root
			if len(args) == 1 {
				input = args[0]
			}
			opts.apply(rt, cmd)
			return runAnalyze(cmd, rt, input, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.root, "root", "", "repository root for go.mod lookup (defaults to the extraction's repo path)")
	f.StringVar(&opts.report, "report", "", "write the text report to this file")
	f.StringVar(&opts.json, "json", "", "write the analysis result as JSON")
	f.StringVar(&opts.dotCalls, "dot-calls", "", "write the call graph as DOT")
	f.StringVar(&opts.dotImports, "dot-imports", "", "write the import graph as DOT")
	f.StringVar(&opts.mermaid, "mermaid", "", "write the import graph as a mermaid flowchart")
	f.StringVar(&opts.plantuml, "plantuml", "", "write the import graph as a PlantUML component diagram")
	f.StringVar(&opts.tsv, "tsv", "", "write call and import edges as TSV")
	f.StringVar(&opts.sarif, "sarif", "", "write cycles and parse errors as SARIF")
	f.StringVar(&opts.resolver, "resolver", "", "call resolver: heuristic or import-scoped")
	f.BoolVar(&opts.dedupe, "dedupe", false, "report each cycle once regardless of entry point")
	f.BoolVar(&opts.failOnHigh, "fail-on-high", false, "exit non-zero when a high-severity cycle exists")
	f.BoolVar(&opts.failOnRule, "fail-on-violation", false, "exit non-zero when an architecture rule is broken")
	return cmd
}

func (o *analyzeOptions) apply(rt *runtime, cmd *cobra.Command) {
	out := &rt.cfg.Output
	for _, pair := range []struct {
		dst *string
		src string
	}{
		{&out.Report, o.report},
		{&out.AnalysisJSON, o.json},
		{&out.DOTCalls, o.dotCalls},
		{&out.DOTImports, o.dotImports},
		{&out.Mermaid, o.mermaid},
		{&out.PlantUML, o.plantuml},
		{&out.TSVEdges, o.tsv},
		{&out.SARIF, o.sarif},
		{&rt.cfg.Resolver.Calls, o.resolver},
	} {
		if pair.src != "" {
			*pair.dst = pair.src
		}
	}
	if cmd.Flags().Changed("dedupe") {
		rt.cfg.Analysis.DedupeCycles = o.dedupe
	}
}

func runAnalyze(cmd *cobra.Command, rt *runtime, input string, opts *analyzeOptions) error {
	ctx := cmd.Context()
	repo, err := loadRepository(ctx, rt, input)
	if err != nil {
		return err
	}

	res, err := rt.app.Analyze(ctx, repo, opts.root)
	if err != nil {
		return err
	}
	if err := rt.app.WriteOutputs(ctx, res); err != nil {
		return err
	}
	if rt.cfg.Output.Report == "" {
		fmt.Fprint(cmd.OutOrStdout(), report.Text(rt.app.ReportInput(res)))
	}
	if _, _, err := rt.app.RecordHistory(ctx, res); err != nil {
		return err
	}

	if opts.failOnHigh && res.HasHighSeverity() {
		return errors.Newf(errors.CodeValidationError, "%d circular dependencies, at least one of high severity", len(res.Cycles()))
	}
	if opts.failOnRule && len(res.Violations()) > 0 {
		return errors.Newf(errors.CodeValidationError, "%d architecture rule violations", len(res.Violations()))
	}
	return nil
}

// loadRepository extracts a directory or decodes an extraction document.
func loadRepository(ctx context.Context, rt *runtime, input string) (*parser.RepositoryExtractionResult, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "analysis input"), errors.CtxPath, input)
	}
	if info.IsDir() {
		return rt.app.Extract(ctx, input)
	}
	return parser.ReadFile(input)
}
