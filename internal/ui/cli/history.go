package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"depscope/internal/core/errors"
	"depscope/internal/data/history"
	"depscope/internal/ui/report"

	"github.com/spf13/cobra"
)

func newHistoryCommand(rt *runtime) *cobra.Command {
	var (
		limit  int
		format string
		window time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history [repo]",
		Short: "Show recorded analysis runs of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := rt.cfg.Scan.Root
			if len(args) == 1 {
				repoPath = args[0]
			}
			abs, err := filepath.Abs(repoPath)
			if err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeIO, "resolve repository"), errors.CtxPath, repoPath)
			}

			store, err := history.Open(rt.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			snapshots, err := store.List(cmd.Context(), abs, limit)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No recorded runs for %s\n", abs)
				return nil
			}

			trend, err := history.BuildTrendReport(abs, snapshots, window)
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case "table":
				out = []byte(report.RenderTrendTable(trend) + "\n")
			case "tsv":
				out, err = report.RenderTrendTSV(trend)
			case "json":
				out, err = report.RenderTrendJSON(trend)
			default:
				return errors.Newf(errors.CodeValidationError, "unknown history format %q (table, tsv, json)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of most recent runs to show; 0 shows all")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, tsv or json")
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "moving-average window for cycle counts")
	return cmd
}
