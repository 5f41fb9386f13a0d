package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mapfbench/internal/analysis"
	"mapfbench/internal/config"
	"mapfbench/internal/diag"
	"mapfbench/internal/report"
	"mapfbench/internal/result"
	"mapfbench/internal/runner"
	"mapfbench/internal/trial"
)

var (
	flagMaxWorkers int
	flagDocker     bool
	flagDryRun     bool
	flagCleanup    bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured benchmark sweep",
		RunE:  runSweep,
	}
	cmd.Flags().IntVar(&flagMaxWorkers, "max-workers", 4, "max concurrent solver trials")
	cmd.Flags().BoolVar(&flagDocker, "docker", false, "run solvers in containers even when the config leaves docker disabled")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the trial plan without running solvers")
	cmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "prune labeled containers after the run")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagDocker {
		cfg.Docker.Enabled = true
		if err := cfg.ValidateDocker(); err != nil {
			return err
		}
	}

	specs, err := runner.Sweep(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Planned %d trials\n", len(specs))
	if flagDryRun {
		for _, s := range specs {
			fmt.Printf("  %s agents=%d seed=%d high=%s low=%s %s repeat=%d %s\n",
				s.Solver, s.NumAgents, s.Seed, s.HighSub, s.LowSub, s.Flags, s.Repeat, s.ScenPath)
		}
		return nil
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)

	rawPath := cfg.OutputCSV
	if rawPath == "" {
		rawPath = result.RawCSVPath(runDir)
	}
	metrics := trial.RequiredMetrics()
	if cfg.MddMetrics {
		metrics = trial.AllMetrics()
	}
	writer, statsDir, err := prepareRunOutputs(runDir, rawPath, metrics)
	if err != nil {
		return err
	}

	ctx := context.Background()
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	var dockerCfg *config.Docker
	if cfg.Docker.Enabled {
		dockerCfg = &cfg.Docker
	}

	jobs := make([]runner.Job, 0, len(specs))
	for i := range specs {
		i, spec := i, specs[i]
		jobs = append(jobs, func() (trial.RawRow, error) {
			rec, err := runner.RunTrial(ctx, &runner.TrialOpts{
				Spec:      &spec,
				SolverBin: cfg.SolverBin,
				Timeout:   timeout,
				StatsPath: filepath.Join(statsDir, fmt.Sprintf("trial-%04d.json", i)),
				Metrics:   metrics,
				Docker:    dockerCfg,
			})
			if err != nil {
				return trial.RawRow{}, err
			}
			return trial.RawRow{
				MapPath:    spec.MapPath,
				ScenPath:   spec.ScenPath,
				AgentsDist: agentsDistFor(cfg, spec.NumAgents),
				Record:     rec,
			}, nil
		})
	}

	// A single goroutine owns the raw table; workers hand finished rows over
	// the channel.
	rows := make(chan trial.RawRow, flagMaxWorkers*2)
	var completed, timeouts, failures int
	writeDone := make(chan error, 1)
	go func() {
		var werr error
		for row := range rows {
			switch row.Record.Outcome {
			case trial.OutcomeTimeout:
				timeouts++
			case trial.OutcomeSolveFailure:
				failures++
			default:
				completed++
			}
			if werr == nil {
				werr = writer.Append(&row)
			}
		}
		writeDone <- werr
	}()

	started := time.Now()
	errs := runner.RunPool(flagMaxWorkers, jobs, rows)
	close(rows)
	werr := <-writeDone
	if cerr := writer.Close(); werr == nil {
		werr = cerr
	}
	for _, err := range errs {
		fmt.Printf("  ERROR: %v\n", err)
	}
	if werr != nil {
		return fmt.Errorf("writing raw table: %w", werr)
	}

	meta := &result.RunMeta{
		Name:      cfg.Name,
		Started:   started.UTC(),
		Solvers:   cfg.Solvers,
		MapPaths:  cfg.MapPaths,
		Trials:    len(specs),
		Completed: completed,
		Timeouts:  timeouts,
		Failures:  failures,
		DurationS: int(time.Since(started).Seconds()),
	}
	if err := result.WriteRunMeta(runDir, meta); err != nil {
		return err
	}

	if flagCleanup && cfg.Docker.Enabled {
		cleanupContainers()
	}

	var c diag.Collector
	table, err := trial.Load(rawPath, trial.LoadOptions{TimeoutMicros: timeout.Seconds() * 1e6}, &c)
	if err != nil {
		return err
	}
	analysis.CheckConsistency(table, &c)
	results := analysis.GroupStats(table, analysis.StatsOptions{})
	if err := writeFile(result.StatsCSVPath(runDir), func(w io.Writer) error {
		return analysis.WriteStatsCSV(w, table.Metrics, results)
	}); err != nil {
		return err
	}
	filtered, err := analysis.FilterPairwise(table, analysis.PairwiseOptions{})
	if err != nil {
		return err
	}
	if err := writeFile(result.AvgTimeCSVPath(runDir), func(w io.Writer) error {
		return analysis.WriteAvgTimeCSV(w, analysis.AvgTime(filtered))
	}); err != nil {
		return err
	}
	summaries := report.Summarize(results, &c)
	c.Emit()

	fmt.Println("\n--- Results ---")
	return report.Generate(summaries, "table", os.Stdout)
}

// prepareRunOutputs creates the per-run stats directory and then opens the
// raw CSV writer; an error return leaves nothing open.
func prepareRunOutputs(runDir, rawPath string, metrics []trial.Metric) (*trial.CSVWriter, string, error) {
	statsDir := filepath.Join(runDir, "stats-json")
	if err := os.MkdirAll(statsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating stats dir: %w", err)
	}
	writer, err := trial.OpenCSVWriter(rawPath, metrics)
	if err != nil {
		return nil, "", err
	}
	return writer, statsDir, nil
}

// agentsDistFor maps an agent count back to its configured distribution
// parameter. The two lists are parallel; counts past the end of agents_dist
// have no parameter.
func agentsDistFor(cfg *config.Config, numAgents int) string {
	for i, n := range cfg.NumAgents {
		if n == numAgents {
			if i < len(cfg.AgentsDist) {
				return strconv.Itoa(cfg.AgentsDist[i])
			}
			return ""
		}
	}
	return ""
}

// cleanupContainers prunes stopped trial containers. Best effort; a missing
// docker binary just means nothing to prune.
func cleanupContainers() {
	fmt.Println("Pruning labeled containers...")
	exec.Command("docker", "container", "prune", "-f", "--filter", "label=mapfbench=true").Run()
}
