package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"mapfbench/internal/config"
	"mapfbench/internal/docker"
	"mapfbench/internal/trial"
)

// SolverStats is the metrics file a solver writes when it solves an
// instance. A timed-out or failed run leaves no stats file behind, which is
// what lets the runner classify it.
type SolverStats struct {
	Costs                    float64 `json:"costs"`
	TimeMicros               float64 `json:"time_us"`
	HighLevelExpanded        float64 `json:"high_level_expanded"`
	LowLevelOpenExpanded     float64 `json:"low_level_open_expanded"`
	LowLevelFocalExpanded    float64 `json:"low_level_focal_expanded"`
	LowLevelMddOpenExpanded  float64 `json:"low_level_mdd_open_expanded"`
	LowLevelMddFocalExpanded float64 `json:"low_level_mdd_focal_expanded"`
	TotalLowLevelExpanded    float64 `json:"total_low_level_expanded"`
}

func (s *SolverStats) metric(column string) float64 {
	switch column {
	case "high_level_expanded":
		return s.HighLevelExpanded
	case "low_level_open_expanded":
		return s.LowLevelOpenExpanded
	case "low_level_focal_expanded":
		return s.LowLevelFocalExpanded
	case "low_level_mdd_open_expanded":
		return s.LowLevelMddOpenExpanded
	case "low_level_mdd_focal_expanded":
		return s.LowLevelMddFocalExpanded
	case "total_low_level_expanded":
		return s.TotalLowLevelExpanded
	}
	return math.NaN()
}

type TrialOpts struct {
	Spec      *TrialSpec
	SolverBin string
	Timeout   time.Duration
	StatsPath string
	Metrics   []trial.Metric
	Docker    *config.Docker
}

// OutcomeFrom classifies a finished solver run: hitting the deadline is a
// timeout, any other nonzero exit or an unreadable stats file is a solver
// failure.
func OutcomeFrom(exitCode int, timedOut bool, statsErr error) trial.Outcome {
	switch {
	case timedOut:
		return trial.OutcomeTimeout
	case exitCode != 0 || statsErr != nil:
		return trial.OutcomeSolveFailure
	default:
		return trial.OutcomeOK
	}
}

// BuildSolverArgs assembles the command line the solver binary accepts.
func BuildSolverArgs(spec *TrialSpec, statsPath string, timeout time.Duration) []string {
	args := []string{
		"--map-path", spec.MapPath,
		"--yaml-path", spec.ScenPath,
		"--num-agents", strconv.Itoa(spec.NumAgents),
		"--seed", strconv.Itoa(spec.Seed),
		"--solver", spec.Solver,
		"--stats-json", statsPath,
		"--timeout-secs", strconv.Itoa(int(timeout / time.Second)),
	}
	if spec.HighSub.Set {
		args = append(args, "--high-level-sub-optimal", spec.HighSub.String())
	}
	if spec.LowSub.Set {
		args = append(args, "--low-level-sub-optimal", spec.LowSub.String())
	}
	if spec.Flags.PC {
		args = append(args, "--op-prioritize-conflicts")
	}
	if spec.Flags.BC {
		args = append(args, "--op-bypass-conflicts")
	}
	if spec.Flags.TR {
		args = append(args, "--op-target-reasoning")
	}
	return args
}

// ReadSolverStats loads a per-trial metrics file.
func ReadSolverStats(path string) (*SolverStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s SolverStats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing solver stats %s: %w", path, err)
	}
	return &s, nil
}

// RunTrial executes one planned trial to completion and returns its
// normalized record. Solver-level failures and timeouts are data rows, not
// errors; an error here means the trial could not be executed at all.
func RunTrial(ctx context.Context, opts *TrialOpts) (trial.Record, error) {
	var exitCode int
	var timedOut bool
	if opts.Docker != nil {
		res, err := runInContainer(ctx, opts)
		if err != nil {
			return trial.Record{}, err
		}
		exitCode, timedOut = res.ExitCode, res.TimedOut
	} else {
		var err error
		exitCode, timedOut, err = runLocal(ctx, opts)
		if err != nil {
			return trial.Record{}, err
		}
	}

	stats, statsErr := ReadSolverStats(opts.StatsPath)
	return buildRecord(opts, OutcomeFrom(exitCode, timedOut, statsErr), stats), nil
}

func runLocal(ctx context.Context, opts *TrialOpts) (exitCode int, timedOut bool, err error) {
	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// Stdout and stderr stay nil so no pipes are created; a solver that
	// leaves children behind would otherwise hold Run open past the kill.
	cmd := exec.CommandContext(runCtx, opts.SolverBin, BuildSolverArgs(opts.Spec, opts.StatsPath, opts.Timeout)...)
	runErr := cmd.Run()
	timedOut = runCtx.Err() == context.DeadlineExceeded
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if !timedOut {
			return 0, false, fmt.Errorf("running solver: %w", runErr)
		}
	}
	return exitCode, timedOut, nil
}

func runInContainer(ctx context.Context, opts *TrialOpts) (*docker.RunResult, error) {
	// Inside the container the data dir is mounted at /data and the stats
	// dir at /stats, so the trial's paths are rewritten onto those roots.
	spec := *opts.Spec
	spec.MapPath = path.Join("/data", spec.MapPath)
	spec.ScenPath = path.Join("/data", spec.ScenPath)
	statsPath := path.Join("/stats", filepath.Base(opts.StatsPath))

	return docker.RunSolver(ctx, &docker.RunOpts{
		Image:       opts.Docker.Image,
		Command:     append([]string{opts.Docker.Command}, BuildSolverArgs(&spec, statsPath, opts.Timeout)...),
		DataDir:     opts.Docker.DataDir,
		StatsDir:    filepath.Dir(opts.StatsPath),
		Timeout:     opts.Timeout,
		CPULimit:    opts.Docker.CPULimit,
		MemoryLimit: int64(opts.Docker.MemoryGB * (1 << 30)),
	})
}

func buildRecord(opts *TrialOpts, outcome trial.Outcome, stats *SolverStats) trial.Record {
	spec := opts.Spec
	rec := trial.Record{
		Solver:    spec.Solver,
		NumAgents: spec.NumAgents,
		Seed:      spec.Seed,
		Flags:     spec.Flags,
		HighSub:   spec.HighSub,
		LowSub:    spec.LowSub,
		Outcome:   outcome,
	}
	if outcome.Censored() {
		trial.ApplyCensoring(&rec, opts.Timeout.Seconds()*1e6, len(opts.Metrics))
		return rec
	}
	rec.Cost = stats.Costs
	rec.TimeMicros = stats.TimeMicros
	rec.Expanded = make([]float64, len(opts.Metrics))
	for i, m := range opts.Metrics {
		rec.Expanded[i] = stats.metric(m.Column)
	}
	return rec
}
