package analysis_test

import (
	"strings"
	"testing"

	"mapfbench/internal/analysis"
	"mapfbench/internal/trial"
)

func pairRow(solver string, seed int, outcome trial.Outcome) trial.Record {
	var r trial.Record
	if outcome == trial.OutcomeOK {
		r = okRow(solver, 10, seed, 100, 5000)
	} else {
		r = censoredRow(solver, 10, seed, outcome)
	}
	r.LowSub = trial.FactorOf(1.2)
	return r
}

func TestDropsBothCensoredInstances(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
		pairRow("decbs", 1, trial.OutcomeTimeout),
		pairRow("ecbs", 1, trial.OutcomeOK),
		pairRow("decbs", 2, trial.OutcomeOK),
		pairRow("ecbs", 2, trial.OutcomeOK),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 4 {
		t.Fatalf("got %d rows, want 4 after dropping the double timeout", len(filtered.Rows))
	}
	for _, r := range filtered.Rows {
		if r.Seed == 0 {
			t.Errorf("row at seed 0 survived: %+v", r)
		}
	}
}

func TestKeepsAsymmetricCensoring(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeOK),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 2 {
		t.Errorf("got %d rows, want both kept", len(filtered.Rows))
	}
}

func TestSolveFailureCensorsForRemoval(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeSolveFailure),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 0 {
		t.Errorf("got %d rows, want the instance removed", len(filtered.Rows))
	}
}

func TestKeepsSoloComparator(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 5, trial.OutcomeTimeout),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 1 {
		t.Errorf("got %d rows, want solo censored row kept", len(filtered.Rows))
	}
}

func TestNonComparatorRowsPassThrough(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
		okRow("cbs", 10, 0, 90, 8000),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 1 || filtered.Rows[0].Solver != "cbs" {
		t.Errorf("got %d rows, want only the baseline row kept", len(filtered.Rows))
	}
}

func TestRepeatsWithinLimit(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{MaxRepeats: 2})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 0 {
		t.Errorf("got %d rows, want repeated double timeout removed", len(filtered.Rows))
	}
}

func TestRepeatLimitViolation(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeOK),
		pairRow("decbs", 0, trial.OutcomeOK),
		pairRow("decbs", 0, trial.OutcomeOK),
	}

	_, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{MaxRepeats: 2})
	if err == nil {
		t.Fatal("expected repeat limit error, got nil")
	}
	if !strings.Contains(err.Error(), "3 rows") || !strings.Contains(err.Error(), "decbs") {
		t.Errorf("error %q does not identify the violation", err)
	}
}

func TestCustomComparatorPair(t *testing.T) {
	rows := []trial.Record{
		pairRow("acbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
		pairRow("decbs", 0, trial.OutcomeTimeout),
	}

	filtered, err := analysis.FilterPairwise(table(rows...), analysis.PairwiseOptions{A: "acbs", B: "ecbs"})
	if err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(filtered.Rows) != 1 || filtered.Rows[0].Solver != "decbs" {
		t.Errorf("got %+v, want only the decbs row kept", filtered.Rows)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	rows := []trial.Record{
		pairRow("decbs", 0, trial.OutcomeTimeout),
		pairRow("ecbs", 0, trial.OutcomeTimeout),
	}
	tbl := table(rows...)

	if _, err := analysis.FilterPairwise(tbl, analysis.PairwiseOptions{}); err != nil {
		t.Fatalf("FilterPairwise: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Errorf("input table mutated to %d rows", len(tbl.Rows))
	}
}
