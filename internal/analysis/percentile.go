// Package analysis turns normalized trial tables into the derived views:
// consistency findings, per-group percentile statistics, the pairwise
// exclusion filter and the average-time table.
package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

// PercentileTriple is the (P0, P50, P99) summary of one metric over a
// group's value pool. All three are NaN when the pool is empty.
type PercentileTriple struct {
	P0  float64
	P50 float64
	P99 float64
}

// Defined reports whether the triple came from a non-empty pool.
func (p PercentileTriple) Defined() bool {
	return !math.IsNaN(p.P50)
}

// percentiles computes the nearest-rank triple. The input must not contain
// NaN; pools are cleaned before they get here.
func percentiles(values []float64) PercentileTriple {
	if len(values) == 0 {
		nan := math.NaN()
		return PercentileTriple{P0: nan, P50: nan, P99: nan}
	}
	p0, _ := stats.PercentileNearestRank(values, 0)
	p50, _ := stats.PercentileNearestRank(values, 50)
	p99, _ := stats.PercentileNearestRank(values, 99)
	return PercentileTriple{P0: p0, P50: p50, P99: p99}
}
