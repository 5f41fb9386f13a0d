package result

import "time"

// RunMeta summarizes one sweep invocation. It is written next to the raw
// CSV so a results directory stays interpretable after the config that
// produced it has moved on.
type RunMeta struct {
	Name      string    `json:"name"`
	Started   time.Time `json:"started"`
	Solvers   []string  `json:"solvers"`
	MapPaths  []string  `json:"map_paths"`
	Trials    int       `json:"trials"`
	Completed int       `json:"completed"`
	Timeouts  int       `json:"timeouts"`
	Failures  int       `json:"failures"`
	DurationS int       `json:"duration_s"`
}

// StoredRun is one run directory found under a results tree. Meta is nil
// when the run has no readable meta.json, which happens for sweeps that
// were interrupted before finishing.
type StoredRun struct {
	Dir  string
	Meta *RunMeta
}
