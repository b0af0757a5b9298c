package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"depscope/internal/core/app"
	"depscope/internal/core/errors"
	"depscope/internal/engine/graph"

	"github.com/spf13/cobra"
)

func newImpactCommand(rt *runtime) *cobra.Command {
	var (
		graphName string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "impact <extraction.json|repo> <node>",
		Short: "List the modules or functions that depend on a node",
		Long: `Impact analyzes the input and walks reverse edges from node. On the import
graph node is a file path such as pkg/util.py; on the call graph it is a
function id such as pkg/util.py::helper.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := analyzedGraph(cmd.Context(), rt, args[0], graphName)
			if err != nil {
				return err
			}
			impact, err := graph.AnalyzeImpact(g, args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), impact)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), app.FormatImpactReport(impact))
			return err
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "imports", "graph to walk: imports or calls")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the impact report as JSON")
	return cmd
}

func newTraceCommand(rt *runtime) *cobra.Command {
	var graphName string
	cmd := &cobra.Command{
		Use:   "trace <extraction.json|repo> <from> <to>",
		Short: "Print a shortest dependency chain between two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := analyzedGraph(cmd.Context(), rt, args[0], graphName)
			if err != nil {
				return err
			}
			chain, err := graph.FindChain(g, args[1], args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), app.FormatChain(chain))
			return err
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "imports", "graph to walk: imports or calls")
	return cmd
}

// analyzedGraph runs the analysis on input and returns the graph named by
// name.
func analyzedGraph(ctx context.Context, rt *runtime, input, name string) (graph.Graph, error) {
	if name != "imports" && name != "calls" {
		return nil, errors.Newf(errors.CodeValidationError, "unknown graph %q (imports, calls)", name)
	}
	repo, err := loadRepository(ctx, rt, input)
	if err != nil {
		return nil, err
	}
	res, err := rt.app.Analyze(ctx, repo, "")
	if err != nil {
		return nil, err
	}
	if name == "calls" {
		return res.CallGraph, nil
	}
	return res.ImportGraph, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
