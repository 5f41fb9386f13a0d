package analysis

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"mapfbench/internal/trial"
)

// GroupResult is one output row of the primary statistics view.
type GroupResult struct {
	Key         trial.Key
	Trials      int
	SuccessRate float64
	Time        PercentileTriple
	// Expanded is aligned with the source table's Metrics list.
	Expanded []PercentileTriple
}

type StatsOptions struct {
	// IncludeCensored admits the sentinel values of censored rows into the
	// percentile pools. The default excludes them; the success rate is
	// unaffected either way.
	IncludeCensored bool
}

// GroupStats partitions the table by the fine-grained key and computes the
// success rate and percentile triples for every group. Groups are
// independent, so they are computed in parallel; the result order is the
// sorted key order regardless.
func GroupStats(t *trial.Table, opts StatsOptions) []GroupResult {
	byKey := make(map[trial.Key][]*trial.Record)
	for i := range t.Rows {
		r := &t.Rows[i]
		byKey[r.Key()] = append(byKey[r.Key()], r)
	}

	keys := make([]trial.Key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	results := make([]GroupResult, len(keys))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			results[i] = groupResult(k, byKey[k], t.Metrics, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func groupResult(k trial.Key, rows []*trial.Record, metrics []trial.Metric, opts StatsOptions) GroupResult {
	censored := 0
	for _, r := range rows {
		if r.Censored() {
			censored++
		}
	}
	timeoutRate := float64(censored) / float64(len(rows))

	res := GroupResult{
		Key:         k,
		Trials:      len(rows),
		SuccessRate: (1 - timeoutRate) * 100,
		Expanded:    make([]PercentileTriple, len(metrics)),
	}
	res.Time = percentiles(pool(rows, opts, func(r *trial.Record) float64 { return r.TimeMicros }))
	for i := range metrics {
		res.Expanded[i] = percentiles(pool(rows, opts, func(r *trial.Record) float64 { return r.Expanded[i] }))
	}
	return res
}

// pool gathers one metric's values for percentile computation. Censored rows
// drop out unless inclusion mode is on; missing cells always drop out.
func pool(rows []*trial.Record, opts StatsOptions, value func(*trial.Record) float64) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Censored() && !opts.IncludeCensored {
			continue
		}
		v := value(r)
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
