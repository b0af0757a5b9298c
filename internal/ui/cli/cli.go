package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"depscope/internal/core/config"
	"depscope/internal/core/errors"
	"depscope/internal/shared/version"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
	metricsOut string
	// maxFileSize is a human-readable size such as "512KiB".
	maxFileSize string
}

// Execute runs the depscope command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	rt := &runtime{}
	cmd := newRootCommand(rt)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if closeErr := rt.close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		slog.Debug("command failed", "code", errors.CodeOf(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(rt *runtime) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "depscope",
		Short: "Call-graph and import-graph analysis for Python, Go and script sources",
		Long: `depscope extracts functions, classes, imports and calls from a repository,
builds call and import graphs, and reports circular dependencies and coupling.

Commands:
  extract   Extract source entities into JSON or YAML
  analyze   Build graphs and write the analysis report
  history   Show recorded analysis runs
  impact    List what depends on a module or function
  trace     Print a dependency chain between two nodes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFile, "path to config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this file after the run")
	root.PersistentFlags().StringVar(&opts.maxFileSize, "max-file-size", "", "skip source files larger than this, e.g. 512KiB or 2MB")

	root.AddCommand(newExtractCommand(rt))
	root.AddCommand(newAnalyzeCommand(rt))
	root.AddCommand(newHistoryCommand(rt))
	root.AddCommand(newImpactCommand(rt))
	root.AddCommand(newTraceCommand(rt))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Show version information",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "depscope %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.BuildDate)
		},
	}
}
