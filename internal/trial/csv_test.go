package trial_test

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"mapfbench/internal/diag"
	"mapfbench/internal/trial"
)

const sampleHeader = "map_path,yaml_path,num_agents,agents_dist,seed,solver," +
	"high_level_suboptimal,low_level_suboptimal,op_PC,op_BC,op_TR,costs,time(us)," +
	"high_level_expanded,low_level_open_expanded,low_level_focal_expanded,total_low_level_expanded"

func TestReadNormalizesCensoredRows(t *testing.T) {
	input := sampleHeader + "\n" +
		"m.map,s.yaml,10,[],0,ecbs,NaN,1.2,True,False,False,120,250000,5,40,12,52\n" +
		"m.map,s.yaml,10,[],1,ecbs,NaN,1.2,True,False,False,timeout\n"

	table, err := trial.Read(strings.NewReader(input), trial.LoadOptions{}, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	ok := table.Rows[0]
	if ok.Outcome != trial.OutcomeOK || ok.Cost != 120 || ok.TimeMicros != 250000 {
		t.Errorf("uncensored row parsed as %+v", ok)
	}
	if !ok.Flags.PC || ok.Flags.BC || ok.Flags.TR {
		t.Errorf("flags parsed as %v, want PC only", ok.Flags)
	}
	if ok.HighSub.Set || !ok.LowSub.Set || ok.LowSub.Value != 1.2 {
		t.Errorf("suboptimality parsed as high=%v low=%v", ok.HighSub, ok.LowSub)
	}

	censored := table.Rows[1]
	if censored.Outcome != trial.OutcomeTimeout {
		t.Fatalf("got outcome %q, want timeout", censored.Outcome)
	}
	if censored.Cost != trial.MaxSentinel {
		t.Errorf("censored cost = %v, want max sentinel", censored.Cost)
	}
	if censored.TimeMicros != trial.DefaultTimeoutMicros {
		t.Errorf("censored time = %v, want %v", censored.TimeMicros, float64(trial.DefaultTimeoutMicros))
	}
	if len(censored.Expanded) != len(table.Metrics) {
		t.Fatalf("got %d expanded cells, want %d", len(censored.Expanded), len(table.Metrics))
	}
	for i, v := range censored.Expanded {
		if v != trial.MaxSentinel {
			t.Errorf("expanded[%d] = %v, want max sentinel", i, v)
		}
	}
}

func TestReadTimeoutOverride(t *testing.T) {
	input := sampleHeader + "\n" +
		"m.map,s.yaml,10,[],1,ecbs,NaN,1.2,False,False,False,timeout\n"

	table, err := trial.Read(strings.NewReader(input), trial.LoadOptions{TimeoutMicros: 30_000_000}, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := table.Rows[0].TimeMicros; got != 30_000_000 {
		t.Errorf("censored time = %v, want 30000000", got)
	}
}

func TestReadSolveFailureWarning(t *testing.T) {
	input := sampleHeader + "\n" +
		"m.map,s.yaml,15,[],3,decbs,NaN,1.1,False,True,False,solvefailure\n"

	warnings := &diag.Collector{}
	table, err := trial.Read(strings.NewReader(input), trial.LoadOptions{}, warnings)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := table.Rows[0].Outcome; got != trial.OutcomeSolveFailure {
		t.Fatalf("got outcome %q, want solvefailure", got)
	}

	ws := warnings.ByKind(diag.SolveFailure)
	if len(ws) != 1 {
		t.Fatalf("got %d solve_failure warnings, want 1", len(ws))
	}
	w := ws[0]
	if w.Solver != "decbs" || w.NumAgents != 15 || w.Seed != 3 {
		t.Errorf("warning identifies %s num_agents=%d seed=%d", w.Solver, w.NumAgents, w.Seed)
	}
	if !strings.Contains(w.Detail, "BC=true") || !strings.Contains(w.Detail, "low 1.1") {
		t.Errorf("warning detail missing configuration: %q", w.Detail)
	}
}

func TestReadMissingColumns(t *testing.T) {
	input := "num_agents,seed,solver,costs\n10,0,cbs,42\n"

	_, err := trial.Read(strings.NewReader(input), trial.LoadOptions{}, nil)
	if err == nil {
		t.Fatal("expected schema error, got nil")
	}
	for _, col := range []string{"op_PC", "time(us)", "total_low_level_expanded"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name missing column %s", err, col)
		}
	}
}

func TestReadOptionalMddColumns(t *testing.T) {
	header := strings.Replace(sampleHeader,
		"low_level_focal_expanded,total_low_level_expanded",
		"low_level_focal_expanded,low_level_mdd_open_expanded,low_level_mdd_focal_expanded,total_low_level_expanded", 1)
	input := header + "\n" +
		"m.map,s.yaml,10,[],0,ecbs,NaN,1.2,False,False,False,120,250000,5,40,12,3,1,56\n"

	table, err := trial.Read(strings.NewReader(input), trial.LoadOptions{}, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	shorts := make([]string, 0, len(table.Metrics))
	for _, m := range table.Metrics {
		shorts = append(shorts, m.Short)
	}
	want := "high lowOpen lowFocal lowOpenMdd lowFocalMdd lowTotal"
	if got := strings.Join(shorts, " "); got != want {
		t.Errorf("metric order = %q, want %q", got, want)
	}
	if got := table.Rows[0].Expanded[4]; got != 1 {
		t.Errorf("lowFocalMdd = %v, want 1", got)
	}
}

func TestReadCoercesBadCells(t *testing.T) {
	input := sampleHeader + "\n" +
		"m.map,s.yaml,10,[],0,ecbs,NaN,1.2,False,False,False,120,oops,5,,12,52\n"

	table, err := trial.Read(strings.NewReader(input), trial.LoadOptions{}, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	row := table.Rows[0]
	if row.Outcome != trial.OutcomeOK {
		t.Fatalf("got outcome %q, want ok", row.Outcome)
	}
	if !math.IsNaN(row.TimeMicros) {
		t.Errorf("unparseable time = %v, want NaN", row.TimeMicros)
	}
	if !math.IsNaN(row.Expanded[1]) {
		t.Errorf("empty metric cell = %v, want NaN", row.Expanded[1])
	}
	if row.Expanded[3] != 52 {
		t.Errorf("intact metric cell = %v, want 52", row.Expanded[3])
	}
}

func TestParseFactor(t *testing.T) {
	tests := []struct {
		in   string
		want trial.Factor
	}{
		{"1.2", trial.FactorOf(1.2)},
		{"1", trial.FactorOf(1)},
		{"NaN", trial.Factor{}},
		{"", trial.Factor{}},
		{"bogus", trial.Factor{}},
	}
	for _, tt := range tests {
		if got := trial.ParseFactor(tt.in); got != tt.want {
			t.Errorf("ParseFactor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	metrics := trial.RequiredMetrics()

	w, err := trial.OpenCSVWriter(path, metrics)
	if err != nil {
		t.Fatalf("OpenCSVWriter: %v", err)
	}
	ok := trial.RawRow{
		MapPath:    "maps/den312d.map",
		ScenPath:   "scen/den312d-random-1.yaml",
		AgentsDist: "[]",
		Record: trial.Record{
			Solver:     "decbs",
			NumAgents:  20,
			Seed:       7,
			Flags:      trial.Flags{BC: true, TR: true},
			LowSub:     trial.FactorOf(1.02),
			Outcome:    trial.OutcomeOK,
			Cost:       340,
			TimeMicros: 81250,
			Expanded:   []float64{12, 480, 37, 517},
		},
	}
	censored := ok
	censored.Record.Seed = 8
	censored.Record.Outcome = trial.OutcomeTimeout
	if err := w.Append(&ok); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(&censored); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening must append below the existing header, not repeat it.
	w, err = trial.OpenCSVWriter(path, metrics)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	third := ok
	third.Record.Seed = 9
	if err := w.Append(&third); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	table, err := trial.Load(path, trial.LoadOptions{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	got := table.Rows[0]
	if got.Solver != "decbs" || got.Cost != 340 || got.TimeMicros != 81250 {
		t.Errorf("round-tripped row = %+v", got)
	}
	if got.Expanded[3] != 517 {
		t.Errorf("round-tripped lowTotal = %v, want 517", got.Expanded[3])
	}
	if !got.Flags.BC || !got.Flags.TR || got.Flags.PC {
		t.Errorf("round-tripped flags = %v", got.Flags)
	}
	re := table.Rows[1]
	if re.Outcome != trial.OutcomeTimeout || re.Cost != trial.MaxSentinel {
		t.Errorf("round-tripped censored row = %+v", re)
	}
}
