package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mapfbench/internal/analysis"
	"mapfbench/internal/diag"
	"mapfbench/internal/report"
)

var (
	flagFormat    string
	flagReportDir string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [stats-csv]",
		Short: "Summarize a statistics table per solver variant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(flagReportDir, "latest", "stats.csv")
			if len(args) > 0 {
				path = args[0]
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("resolving stats table: %w", err)
			}
			f, err := os.Open(resolved)
			if err != nil {
				return err
			}
			defer f.Close()

			results, _, err := analysis.ReadStatsCSV(f)
			if err != nil {
				return fmt.Errorf("reading stats table %s: %w", resolved, err)
			}
			var c diag.Collector
			if err := report.Generate(report.Summarize(results, &c), flagFormat, os.Stdout); err != nil {
				return err
			}
			c.Emit()
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	cmd.Flags().StringVar(&flagReportDir, "dir", "results", "results directory holding the latest run")
	return cmd
}
