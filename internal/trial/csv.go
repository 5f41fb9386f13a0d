package trial

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"mapfbench/internal/diag"
)

// requiredColumns is the schema contract. A table missing any of these is
// rejected outright; extra columns are ignored.
var requiredColumns = []string{
	"num_agents", "seed",
	"op_PC", "op_BC", "op_TR",
	"solver",
	"high_level_suboptimal", "low_level_suboptimal",
	"costs", TimeColumn,
	"high_level_expanded", "low_level_open_expanded",
	"low_level_focal_expanded", "total_low_level_expanded",
}

type LoadOptions struct {
	// TimeoutMicros is the censoring penalty written into the time field of
	// censored rows. Zero means DefaultTimeoutMicros.
	TimeoutMicros float64
}

// Load reads and normalizes the raw trial table at path. Data defects go to
// the collector; only unreadable input or a broken schema is an error.
func Load(path string, opts LoadOptions, c *diag.Collector) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trial table: %w", err)
	}
	defer f.Close()
	t, err := Read(f, opts, c)
	if err != nil {
		return nil, fmt.Errorf("reading trial table %s: %w", path, err)
	}
	return t, nil
}

// Read parses one raw trial table. Censored rows arrive shorter than the
// header because the runner leaves measured cells empty, so no fixed field
// count is enforced.
func Read(r io.Reader, opts LoadOptions, c *diag.Collector) (*Table, error) {
	if opts.TimeoutMicros <= 0 {
		opts.TimeoutMicros = DefaultTimeoutMicros
	}
	if c == nil {
		c = &diag.Collector{}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	raw, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty table, no header row")
	}

	col := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	metrics := make([]Metric, 0, len(knownMetrics))
	for _, m := range knownMetrics {
		if _, ok := col[m.Column]; ok {
			metrics = append(metrics, m)
		}
	}

	t := &Table{
		Metrics:       metrics,
		TimeoutMicros: opts.TimeoutMicros,
		Rows:          make([]Record, 0, len(raw)-1),
	}
	for _, cells := range raw[1:] {
		cell := func(name string) string {
			i := col[name]
			if i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}

		rec := Record{
			Solver:    cell("solver"),
			NumAgents: parseInt(cell("num_agents")),
			Seed:      parseInt(cell("seed")),
			Flags: Flags{
				PC: parseBool(cell("op_PC")),
				BC: parseBool(cell("op_BC")),
				TR: parseBool(cell("op_TR")),
			},
			HighSub: ParseFactor(cell("high_level_suboptimal")),
			LowSub:  ParseFactor(cell("low_level_suboptimal")),
		}

		costs := cell("costs")
		switch {
		case strings.Contains(costs, string(OutcomeTimeout)):
			rec.Outcome = OutcomeTimeout
		case strings.Contains(costs, string(OutcomeSolveFailure)):
			rec.Outcome = OutcomeSolveFailure
			c.Add(diag.Warning{
				Kind:      diag.SolveFailure,
				Solver:    rec.Solver,
				NumAgents: rec.NumAgents,
				Seed:      rec.Seed,
				Detail: fmt.Sprintf("solver failure at num_agents=%d seed=%d (%s, high %s, low %s)",
					rec.NumAgents, rec.Seed, rec.Flags, rec.HighSub, rec.LowSub),
			})
		default:
			rec.Outcome = OutcomeOK
		}

		if rec.Censored() {
			ApplyCensoring(&rec, opts.TimeoutMicros, len(metrics))
		} else {
			rec.Cost = parseNumber(costs)
			rec.TimeMicros = parseNumber(cell(TimeColumn))
			rec.Expanded = make([]float64, len(metrics))
			for i, m := range metrics {
				rec.Expanded[i] = parseNumber(cell(m.Column))
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

// parseNumber coerces one measured cell. Anything unparseable is a missing
// value, not an error; a single bad cell must never sink a million-row load.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// RawRow is one line of the append-only raw table: the trial record plus the
// run provenance the analysis side ignores.
type RawRow struct {
	MapPath    string
	ScenPath   string
	AgentsDist string
	Record     Record
}

// CSVWriter appends raw trial rows to a table file, emitting the header once
// when the file starts empty. A single writer owns the file; concurrent
// trial workers hand rows to it over a channel.
type CSVWriter struct {
	f       *os.File
	w       *csv.Writer
	metrics []Metric
}

// OpenCSVWriter opens the raw table at path for appending, creating it and
// its header on first use.
func OpenCSVWriter(path string, metrics []Metric) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening raw table: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	cw := &CSVWriter{f: f, w: csv.NewWriter(f), metrics: metrics}
	if info.Size() == 0 {
		if err := cw.w.Write(cw.header()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return cw, nil
}

func (cw *CSVWriter) header() []string {
	h := []string{
		"map_path", "yaml_path", "num_agents", "agents_dist", "seed", "solver",
		"high_level_suboptimal", "low_level_suboptimal", "op_PC", "op_BC", "op_TR",
		"costs", TimeColumn,
	}
	for _, m := range cw.metrics {
		h = append(h, m.Column)
	}
	return h
}

// Append writes one trial row. Censored rows keep the outcome marker in the
// costs cell and leave every measured cell empty.
func (cw *CSVWriter) Append(row *RawRow) error {
	rec := &row.Record
	cells := []string{
		row.MapPath,
		row.ScenPath,
		strconv.Itoa(rec.NumAgents),
		row.AgentsDist,
		strconv.Itoa(rec.Seed),
		rec.Solver,
		rec.HighSub.String(),
		rec.LowSub.String(),
		strconv.FormatBool(rec.Flags.PC),
		strconv.FormatBool(rec.Flags.BC),
		strconv.FormatBool(rec.Flags.TR),
	}
	if rec.Censored() {
		cells = append(cells, string(rec.Outcome), "")
		for range cw.metrics {
			cells = append(cells, "")
		}
	} else {
		cells = append(cells, formatCell(rec.Cost), formatCell(rec.TimeMicros))
		for i := range cw.metrics {
			v := math.NaN()
			if i < len(rec.Expanded) {
				v = rec.Expanded[i]
			}
			cells = append(cells, formatCell(v))
		}
	}
	if err := cw.w.Write(cells); err != nil {
		return err
	}
	cw.w.Flush()
	return cw.w.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		cw.f.Close()
		return err
	}
	return cw.f.Close()
}
