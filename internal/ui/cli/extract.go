package cli

import (
	"fmt"
	"os"

	"depscope/internal/engine/parser"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const defaultExtractionPath = "extraction.json"

func newExtractCommand(rt *runtime) *cobra.Command {
	var output, pattern string
	cmd := &cobra.Command{
		Use:   "extract [repo]",
		Short: "Extract functions, classes, imports and calls into JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rt.cfg.Scan.Root
			if len(args) == 1 {
				root = args[0]
			}
			if pattern != "" {
				rt.cfg.Scan.Pattern = pattern
				if err := rt.rebuild(); err != nil {
					return err
				}
			}

			repo, err := rt.app.Extract(cmd.Context(), root)
			if err != nil {
				return err
			}

			out := firstNonEmpty(output, rt.cfg.Output.Extraction, defaultExtractionPath)
			if err := parser.WriteFile(out, repo); err != nil {
				return err
			}

			s := repo.Summary()
			size := "?"
			if info, err := os.Stat(out); err == nil {
				size = humanize.IBytes(uint64(info.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files (%d functions, %d classes, %d imports, %d calls, %d with errors) to %s (%s)\n",
				s.TotalFiles, s.TotalFunctions, s.TotalClasses, s.TotalImports, s.TotalCalls, s.FilesWithError, out, size)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; .yaml or .yml selects YAML")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob of files to include, e.g. **/*.py")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
