// Package report renders aggregated benchmark results for people: a
// per-solver summary in table, markdown or JSON form, and an xlsx workbook
// mirroring the CSV outputs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"mapfbench/internal/analysis"
	"mapfbench/internal/diag"
	"mapfbench/internal/trial"
)

// SolverSummary folds every group of one displayed solver variant into a
// single row. MeanP50Seconds is zero when all of the variant's groups are
// fully censored.
type SolverSummary struct {
	Name            string  `json:"name"`
	Groups          int     `json:"groups"`
	MeanSuccessRate float64 `json:"mean_success_rate"`
	MeanP50Seconds  float64 `json:"mean_p50_seconds"`
}

// Summarize aggregates group results by display name, folding agent counts
// and suboptimality bounds together. Solvers without a display name keep
// their raw name and are reported once to the collector.
func Summarize(results []analysis.GroupResult, c *diag.Collector) []SolverSummary {
	type accum struct {
		groups int
		rates  []float64
		p50s   []float64
	}
	byName := map[string]*accum{}
	warned := map[string]bool{}

	for _, res := range results {
		name, ok := trial.DisplayName(res.Key.Solver, res.Key.Flags)
		if !ok {
			if c != nil && !warned[res.Key.Solver] {
				warned[res.Key.Solver] = true
				c.Add(diag.Warning{
					Kind:   diag.UnknownSolver,
					Solver: res.Key.Solver,
					Detail: fmt.Sprintf("no display name for solver %q", res.Key.Solver),
				})
			}
			name = res.Key.Solver
		}
		a, found := byName[name]
		if !found {
			a = &accum{}
			byName[name] = a
		}
		a.groups++
		a.rates = append(a.rates, res.SuccessRate)
		if res.Time.Defined() {
			a.p50s = append(a.p50s, res.Time.P50/1e6)
		}
	}

	var summaries []SolverSummary
	for name, a := range byName {
		s := SolverSummary{
			Name:            name,
			Groups:          a.groups,
			MeanSuccessRate: stat.Mean(a.rates, nil),
		}
		if len(a.p50s) > 0 {
			s.MeanP50Seconds = stat.Mean(a.p50s, nil)
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// Generate writes the summaries in the requested format. Unrecognized
// formats fall back to the plain table.
func Generate(summaries []SolverSummary, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	default:
		return writeTable(summaries, w)
	}
}

func writeTable(summaries []SolverSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOLVER\tGROUPS\tMEAN SUCCESS\tMEAN MEDIAN TIME")
	fmt.Fprintln(tw, strings.Repeat("-", 56))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t%s\n",
			s.Name, s.Groups, s.MeanSuccessRate, formatSeconds(s.MeanP50Seconds))
	}
	return tw.Flush()
}

func writeMarkdown(summaries []SolverSummary, w io.Writer) error {
	fmt.Fprintln(w, "| Solver | Groups | Mean Success | Mean Median Time |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, s := range summaries {
		fmt.Fprintf(w, "| %s | %d | %.2f%% | %s |\n",
			s.Name, s.Groups, s.MeanSuccessRate, formatSeconds(s.MeanP50Seconds))
	}
	return nil
}

func writeJSON(summaries []SolverSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

func formatSeconds(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3fs", v)
}

// WriteXLSX writes both result views into one workbook: a "stats" sheet
// with the percentile table and an "avg_time" sheet with the coarse
// averages. Cells that parse as numbers are written as numbers so the
// workbook sorts and charts without retyping.
func WriteXLSX(path string, metrics []trial.Metric, results []analysis.GroupResult, avg []analysis.AvgTimeResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "stats"); err != nil {
		return fmt.Errorf("naming stats sheet: %w", err)
	}
	if err := writeSheet(f, "stats", analysis.StatsRows(metrics, results)); err != nil {
		return err
	}
	if _, err := f.NewSheet("avg_time"); err != nil {
		return fmt.Errorf("adding avg_time sheet: %w", err)
	}
	if err := writeSheet(f, "avg_time", analysis.AvgTimeRows(avg)); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, cell := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("addressing cell in %s: %w", sheet, err)
			}
			var value any = cell
			if r > 0 {
				if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) {
					value = v
				}
			}
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				return fmt.Errorf("writing cell %s!%s: %w", sheet, ref, err)
			}
		}
	}
	return nil
}
