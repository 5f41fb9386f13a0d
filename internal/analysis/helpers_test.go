package analysis_test

import (
	"mapfbench/internal/trial"
)

func table(rows ...trial.Record) *trial.Table {
	return &trial.Table{
		Metrics:       trial.RequiredMetrics(),
		TimeoutMicros: trial.DefaultTimeoutMicros,
		Rows:          rows,
	}
}

func okRow(solver string, numAgents, seed int, cost, timeMicros float64) trial.Record {
	return trial.Record{
		Solver:     solver,
		NumAgents:  numAgents,
		Seed:       seed,
		Outcome:    trial.OutcomeOK,
		Cost:       cost,
		TimeMicros: timeMicros,
		Expanded:   []float64{1, 20, 4, 24},
	}
}

func censoredRow(solver string, numAgents, seed int, outcome trial.Outcome) trial.Record {
	r := trial.Record{Solver: solver, NumAgents: numAgents, Seed: seed, Outcome: outcome}
	trial.ApplyCensoring(&r, trial.DefaultTimeoutMicros, len(trial.RequiredMetrics()))
	return r
}
