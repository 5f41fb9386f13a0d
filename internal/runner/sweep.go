package runner

import (
	"mapfbench/internal/config"
	"mapfbench/internal/trial"
)

// TrialSpec is one planned solver invocation.
type TrialSpec struct {
	MapPath   string
	ScenPath  string
	NumAgents int
	Seed      int
	Solver    string
	HighSub   trial.Factor
	LowSub    trial.Factor
	Flags     trial.Flags
	Repeat    int
}

// Sweep expands the experiment config into the full trial list. The bound
// mapping collapses axes a solver ignores, so the baseline runs once per
// configuration instead of once per sub_optimal value.
func Sweep(cfg *config.Config) ([]TrialSpec, error) {
	type variant struct {
		solver    string
		high, low trial.Factor
	}
	bounds := cfg.SubOptimal
	if len(bounds) == 0 {
		bounds = []float64{1}
	}
	var variants []variant
	seen := make(map[variant]bool)
	for _, s := range bounds {
		for _, solver := range cfg.Solvers {
			high, low, err := trial.Suboptimality(solver, s)
			if err != nil {
				return nil, err
			}
			v := variant{solver: solver, high: high, low: low}
			if seen[v] {
				continue
			}
			seen[v] = true
			variants = append(variants, v)
		}
	}

	var flagSets []trial.Flags
	for _, pc := range cfg.PrioritizeConflicts {
		for _, bc := range cfg.BypassConflicts {
			for _, tr := range cfg.TargetReasoning {
				flagSets = append(flagSets, trial.Flags{PC: pc, BC: bc, TR: tr})
			}
		}
	}

	var specs []TrialSpec
	for _, mapPath := range cfg.MapPaths {
		for _, scenPath := range cfg.ScenPaths {
			for _, agents := range cfg.NumAgents {
				for seed := 0; seed < cfg.SeedCount; seed++ {
					for _, v := range variants {
						for _, flags := range flagSets {
							for rep := 1; rep <= cfg.Repeats; rep++ {
								specs = append(specs, TrialSpec{
									MapPath:   mapPath,
									ScenPath:  scenPath,
									NumAgents: agents,
									Seed:      seed,
									Solver:    v.solver,
									HighSub:   v.high,
									LowSub:    v.low,
									Flags:     flags,
									Repeat:    rep,
								})
							}
						}
					}
				}
			}
		}
	}
	return specs, nil
}
