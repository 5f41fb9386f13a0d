package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mapfbench/internal/analysis"
	"mapfbench/internal/diag"
	"mapfbench/internal/report"
	"mapfbench/internal/trial"
)

var (
	flagTimeoutSecs     int
	flagIncludeCensored bool
	flagPair            string
	flagMaxRepeats      int
	flagNoAvg           bool
	flagXLSX            string
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <raw-csv> <stats-csv>",
		Short: "Aggregate a raw trial table into the statistics views",
		Args:  cobra.ExactArgs(2),
		RunE:  runAnalyze,
	}
	cmd.Flags().IntVar(&flagTimeoutSecs, "timeout-secs", 60, "experiment timeout used as the censoring penalty")
	cmd.Flags().BoolVar(&flagIncludeCensored, "include-censored", false, "admit censored sentinel values into the percentile pools")
	cmd.Flags().StringVar(&flagPair, "pair", "decbs,ecbs", "comparator solvers for the pairwise exclusion filter")
	cmd.Flags().IntVar(&flagMaxRepeats, "max-repeats", 2, "max rows per solver on one matched instance")
	cmd.Flags().BoolVar(&flagNoAvg, "no-avg", false, "skip the average-time view")
	cmd.Flags().StringVar(&flagXLSX, "xlsx", "", "also write an xlsx workbook to this path")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rawPath, statsPath := args[0], args[1]

	var c diag.Collector
	table, err := trial.Load(rawPath, trial.LoadOptions{TimeoutMicros: float64(flagTimeoutSecs) * 1e6}, &c)
	if err != nil {
		return err
	}
	analysis.CheckConsistency(table, &c)

	results := analysis.GroupStats(table, analysis.StatsOptions{IncludeCensored: flagIncludeCensored})
	if err := writeFile(statsPath, func(w io.Writer) error {
		return analysis.WriteStatsCSV(w, table.Metrics, results)
	}); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d groups)\n", statsPath, len(results))

	var avg []analysis.AvgTimeResult
	if !flagNoAvg {
		a, b, err := splitPair(flagPair)
		if err != nil {
			return err
		}
		filtered, err := analysis.FilterPairwise(table, analysis.PairwiseOptions{A: a, B: b, MaxRepeats: flagMaxRepeats})
		if err != nil {
			return err
		}
		avg = analysis.AvgTime(filtered)
		avgPath := analysis.AvgTimePath(statsPath)
		if err := writeFile(avgPath, func(w io.Writer) error {
			return analysis.WriteAvgTimeCSV(w, avg)
		}); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d groups)\n", avgPath, len(avg))
	}

	if flagXLSX != "" {
		if err := report.WriteXLSX(flagXLSX, table.Metrics, results, avg); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", flagXLSX)
	}

	c.Emit()
	if n := c.Len(); n > 0 {
		fmt.Printf("%d warnings\n", n)
	}
	return nil
}

// splitPair parses the comparator pair flag, "decbs,ecbs" style.
func splitPair(s string) (string, string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("pair must be two comma-separated solver names, got %q", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
