package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mapfbench/internal/trial"
)

// AvgTimeResult is one row of the average-time view: mean wall time in
// seconds per coarse key.
type AvgTimeResult struct {
	Key     trial.CoarseKey
	Trials  int
	Seconds float64
}

// AvgTime computes the mean wall time per (solver, flags, suboptimality)
// group, folding all agent counts together. Unlike the percentile view,
// censored rows stay in the mean: a timeout contributes its full penalty, so
// the result reads as expected cost per attempt. Rows with no time
// measurement at all drop out.
func AvgTime(t *trial.Table) []AvgTimeResult {
	samples := make(map[trial.CoarseKey][]float64)
	trials := make(map[trial.CoarseKey]int)
	for i := range t.Rows {
		r := &t.Rows[i]
		k := r.CoarseKey()
		trials[k]++
		if math.IsNaN(r.TimeMicros) {
			continue
		}
		samples[k] = append(samples[k], r.TimeMicros/1e6)
	}

	keys := make([]trial.CoarseKey, 0, len(trials))
	for k := range trials {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]AvgTimeResult, 0, len(keys))
	for _, k := range keys {
		seconds := math.NaN()
		if vals := samples[k]; len(vals) > 0 {
			seconds = stat.Mean(vals, nil)
		}
		out = append(out, AvgTimeResult{Key: k, Trials: trials[k], Seconds: seconds})
	}
	return out
}
