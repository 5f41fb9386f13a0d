package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mapfbench/internal/diag"
	"mapfbench/internal/trial"
)

// CheckConsistency verifies the optimality invariant over every
// (num_agents, seed) instance: the exact baseline must report one cost no
// matter which flags it ran with, and no variant may report a cost below the
// baseline optimum. Baseline rows with a missing cost join neither check, so
// an instance whose baseline never produced a real cost goes unchecked.
// Violations become warnings on the collector; the check never fails the
// run. Instances are visited in sorted order so warning output is
// deterministic.
func CheckConsistency(t *trial.Table, c *diag.Collector) {
	byInstance := make(map[trial.Instance][]*trial.Record)
	for i := range t.Rows {
		r := &t.Rows[i]
		byInstance[r.Instance()] = append(byInstance[r.Instance()], r)
	}

	instances := make([]trial.Instance, 0, len(byInstance))
	for inst := range byInstance {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].NumAgents != instances[j].NumAgents {
			return instances[i].NumAgents < instances[j].NumAgents
		}
		return instances[i].Seed < instances[j].Seed
	})

	for _, inst := range instances {
		checkInstance(inst, byInstance[inst], c)
	}
}

func checkInstance(inst trial.Instance, rows []*trial.Record, c *diag.Collector) {
	var baseline []*trial.Record
	for _, r := range rows {
		if r.Solver == trial.Baseline && !r.Censored() && !math.IsNaN(r.Cost) {
			baseline = append(baseline, r)
		}
	}
	if len(baseline) == 0 {
		return
	}

	seen := make(map[float64]bool)
	var costs []float64
	var configs []string
	for _, r := range baseline {
		if seen[r.Cost] {
			continue
		}
		seen[r.Cost] = true
		costs = append(costs, r.Cost)
		configs = append(configs, r.Flags.String())
	}
	if len(costs) > 1 {
		c.Add(diag.Warning{
			Kind:      diag.CostInconsistency,
			Solver:    trial.Baseline,
			NumAgents: inst.NumAgents,
			Seed:      inst.Seed,
			Detail: fmt.Sprintf("baseline reported %d distinct costs %v at num_agents=%d seed=%d (%s)",
				len(costs), costs, inst.NumAgents, inst.Seed, strings.Join(configs, "; ")),
		})
	}

	optimal := baseline[0].Cost
	for _, r := range baseline[1:] {
		if r.Cost < optimal {
			optimal = r.Cost
		}
	}

	// Censored variants carry the max sentinel and can never undercut the
	// optimum; missing costs are NaN and fail the comparison too.
	for _, r := range rows {
		if r.Solver == trial.Baseline {
			continue
		}
		if r.Cost < optimal {
			c.Add(diag.Warning{
				Kind:      diag.CostDiscrepancy,
				Solver:    r.Solver,
				NumAgents: inst.NumAgents,
				Seed:      inst.Seed,
				Detail: fmt.Sprintf("cost %v below baseline optimum %v at num_agents=%d seed=%d (%s, high %s, low %s)",
					r.Cost, optimal, inst.NumAgents, inst.Seed, r.Flags, r.HighSub, r.LowSub),
			})
		}
	}
}
