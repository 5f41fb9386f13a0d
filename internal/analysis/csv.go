package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"mapfbench/internal/trial"
)

// statsFixedColumns lead the primary statistics table, before the percentile
// triples.
var statsFixedColumns = []string{
	"solver", "num_agents", "op_PC", "op_BC", "op_TR",
	"high_level_suboptimal", "low_level_suboptimal", "success_rate",
}

// StatsRows renders the primary statistics view as rows of cells, header
// first. Both the CSV writer and the workbook export feed from it, so the
// two stay column-identical.
func StatsRows(metrics []trial.Metric, results []GroupResult) [][]string {
	header := append([]string(nil), statsFixedColumns...)
	header = append(header, tripleColumns("time")...)
	for _, m := range metrics {
		header = append(header, tripleColumns(m.Short)...)
	}

	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, header)
	for _, res := range results {
		row := []string{
			res.Key.Solver,
			strconv.Itoa(res.Key.NumAgents),
			strconv.FormatBool(res.Key.Flags.PC),
			strconv.FormatBool(res.Key.Flags.BC),
			strconv.FormatBool(res.Key.Flags.TR),
			res.Key.HighSub.String(),
			res.Key.LowSub.String(),
			strconv.FormatFloat(res.SuccessRate, 'f', 2, 64),
		}
		row = append(row, tripleCells(res.Time)...)
		for _, p := range res.Expanded {
			row = append(row, tripleCells(p)...)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteStatsCSV emits the primary statistics table. Results arrive in sorted
// key order, so repeated runs over the same input produce identical bytes.
func WriteStatsCSV(w io.Writer, metrics []trial.Metric, results []GroupResult) error {
	return csv.NewWriter(w).WriteAll(StatsRows(metrics, results))
}

// AvgTimeRows renders the average-time view, header first.
func AvgTimeRows(results []AvgTimeResult) [][]string {
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, []string{
		"solver", "op_PC", "op_BC", "op_TR",
		"high_level_suboptimal", "low_level_suboptimal", "avg_time",
	})
	for _, res := range results {
		rows = append(rows, []string{
			res.Key.Solver,
			strconv.FormatBool(res.Key.Flags.PC),
			strconv.FormatBool(res.Key.Flags.BC),
			strconv.FormatBool(res.Key.Flags.TR),
			res.Key.HighSub.String(),
			res.Key.LowSub.String(),
			formatFloat(res.Seconds),
		})
	}
	return rows
}

// WriteAvgTimeCSV emits the average-time table in seconds.
func WriteAvgTimeCSV(w io.Writer, results []AvgTimeResult) error {
	return csv.NewWriter(w).WriteAll(AvgTimeRows(results))
}

// AvgTimePath derives the average-time output path from the primary path:
// results/stats.csv becomes results/stats_avg_time.csv.
func AvgTimePath(statsPath string) string {
	ext := filepath.Ext(statsPath)
	return strings.TrimSuffix(statsPath, ext) + "_avg_time" + ext
}

func tripleColumns(short string) []string {
	return []string{"P0" + short, "P50" + short, "P99" + short}
}

func tripleCells(p PercentileTriple) []string {
	return []string{formatFloat(p.P0), formatFloat(p.P50), formatFloat(p.P99)}
}

// formatFloat renders a result cell in shortest round-trip form, with NaN
// spelled out the way the loaders expect.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadStatsCSV parses a primary statistics table back into group results,
// recovering the metric set from the header's percentile triples.
func ReadStatsCSV(r io.Reader) ([]GroupResult, []trial.Metric, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty statistics table, no header row")
	}

	header := rows[0]
	if len(header) < len(statsFixedColumns)+3 {
		return nil, nil, fmt.Errorf("statistics header has %d columns, want at least %d", len(header), len(statsFixedColumns)+3)
	}
	for i, want := range statsFixedColumns {
		if header[i] != want {
			return nil, nil, fmt.Errorf("statistics column %d is %q, want %q", i, header[i], want)
		}
	}
	triples := header[len(statsFixedColumns):]
	if len(triples)%3 != 0 {
		return nil, nil, fmt.Errorf("statistics header has a truncated percentile triple")
	}
	if triples[0] != "P0time" {
		return nil, nil, fmt.Errorf("first percentile triple is %q, want P0time", triples[0])
	}
	var metrics []trial.Metric
	for i := 3; i < len(triples); i += 3 {
		short := strings.TrimPrefix(triples[i], "P0")
		m, ok := trial.MetricByShort(short)
		if !ok {
			return nil, nil, fmt.Errorf("unknown metric column %q", triples[i])
		}
		metrics = append(metrics, m)
	}

	results := make([]GroupResult, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if len(cells) != len(header) {
			return nil, nil, fmt.Errorf("statistics row has %d cells, want %d", len(cells), len(header))
		}
		res := GroupResult{
			Key: trial.Key{
				Solver:    cells[0],
				NumAgents: parseIntCell(cells[1]),
				Flags: trial.Flags{
					PC: parseBoolCell(cells[2]),
					BC: parseBoolCell(cells[3]),
					TR: parseBoolCell(cells[4]),
				},
				HighSub: trial.ParseFactor(cells[5]),
				LowSub:  trial.ParseFactor(cells[6]),
			},
			SuccessRate: parseFloatCell(cells[7]),
		}
		res.Time = parseTriple(cells[8:11])
		for i := range metrics {
			base := 11 + 3*i
			res.Expanded = append(res.Expanded, parseTriple(cells[base:base+3]))
		}
		results = append(results, res)
	}
	return results, metrics, nil
}

func parseTriple(cells []string) PercentileTriple {
	return PercentileTriple{
		P0:  parseFloatCell(cells[0]),
		P50: parseFloatCell(cells[1]),
		P99: parseFloatCell(cells[2]),
	}
}

func parseIntCell(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseBoolCell(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

func parseFloatCell(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
