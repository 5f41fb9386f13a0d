package analysis

import (
	"fmt"

	"mapfbench/internal/trial"
)

// PairwiseOptions selects the two comparator solvers for the exclusion
// filter and bounds the repeated measurements expected per solver within one
// matched instance.
type PairwiseOptions struct {
	A          string
	B          string
	MaxRepeats int
}

func (o *PairwiseOptions) setDefaults() {
	if o.A == "" {
		o.A = "decbs"
	}
	if o.B == "" {
		o.B = "ecbs"
	}
	if o.MaxRepeats <= 0 {
		o.MaxRepeats = 2
	}
}

// FilterPairwise removes every matched instance on which both comparator
// solvers are fully censored. Such an instance carries no comparative signal
// and would inflate both averages by the same fixed penalty. Instances where
// only one comparator is present, or where at least one of the two produced
// a genuine measurement, pass through untouched. Removal is scoped to the
// comparator pair: rows from other solvers keep their instances even when
// they share the dropped key. The input table is not mutated.
//
// More rows for one comparator than MaxRepeats allows on a single instance
// means duplicated measurements in the raw table, which is an input error
// rather than a data defect.
func FilterPairwise(t *trial.Table, opts PairwiseOptions) (*trial.Table, error) {
	opts.setDefaults()

	type tally struct {
		rows       [2]int
		uncensored [2]int
	}
	counts := make(map[trial.PairKey]*tally)
	for i := range t.Rows {
		r := &t.Rows[i]
		var side int
		switch r.Solver {
		case opts.A:
			side = 0
		case opts.B:
			side = 1
		default:
			continue
		}
		key := r.PairKey()
		tl := counts[key]
		if tl == nil {
			tl = &tally{}
			counts[key] = tl
		}
		tl.rows[side]++
		if tl.rows[side] > opts.MaxRepeats {
			return nil, fmt.Errorf("pairwise filter: %d rows for %s at num_agents=%d seed=%d, expected at most %d per instance",
				tl.rows[side], r.Solver, key.NumAgents, key.Seed, opts.MaxRepeats)
		}
		if !r.Censored() {
			tl.uncensored[side]++
		}
	}

	drop := make(map[trial.PairKey]bool)
	for key, tl := range counts {
		if tl.rows[0] > 0 && tl.rows[1] > 0 && tl.uncensored[0] == 0 && tl.uncensored[1] == 0 {
			drop[key] = true
		}
	}

	out := &trial.Table{
		Metrics:       t.Metrics,
		TimeoutMicros: t.TimeoutMicros,
		Rows:          make([]trial.Record, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		if (r.Solver == opts.A || r.Solver == opts.B) && drop[r.PairKey()] {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}
