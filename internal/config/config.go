package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mapfbench/internal/trial"
)

type Config struct {
	Name        string    `yaml:"name"`
	MapPaths    []string  `yaml:"map_path"`
	ScenPaths   []string  `yaml:"yaml_path"`
	NumAgents   []int     `yaml:"num_agents"`
	AgentsDist  []int     `yaml:"agents_dist"`
	SeedCount   int       `yaml:"seed_num"`
	SubOptimal  []float64 `yaml:"sub_optimal"`
	Solvers     []string  `yaml:"solver"`
	TimeoutSecs int       `yaml:"time_out"`
	Repeats     int       `yaml:"repeats"`

	PrioritizeConflicts []bool `yaml:"op_prioritize_conflicts"`
	BypassConflicts     []bool `yaml:"op_bypass_conflicts"`
	TargetReasoning     []bool `yaml:"op_target_reasoning"`

	OutputCSV  string `yaml:"output_csv_result"`
	SolverBin  string `yaml:"solver_bin"`
	MddMetrics bool   `yaml:"mdd_metrics"`

	Docker  Docker  `yaml:"docker"`
	Results Results `yaml:"results"`
}

// Docker configures containerized solver execution. Map and scenario paths
// must be relative to DataDir when it is used.
type Docker struct {
	Enabled  bool    `yaml:"enabled"`
	Image    string  `yaml:"image"`
	Command  string  `yaml:"command"`
	DataDir  string  `yaml:"data_dir"`
	CPULimit float64 `yaml:"cpu_limit"`
	MemoryGB float64 `yaml:"memory_gb"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Name == "" {
		cfg.Name = "experiment"
	}
	if len(cfg.MapPaths) == 0 {
		return fmt.Errorf("no map_path entries defined")
	}
	if len(cfg.ScenPaths) == 0 {
		return fmt.Errorf("no yaml_path entries defined")
	}
	if len(cfg.NumAgents) == 0 {
		return fmt.Errorf("no num_agents values defined")
	}
	for _, n := range cfg.NumAgents {
		if n < 1 {
			return fmt.Errorf("num_agents values must be positive, got %d", n)
		}
	}
	if len(cfg.Solvers) == 0 {
		return fmt.Errorf("no solvers defined")
	}
	needsBound := false
	for _, s := range cfg.Solvers {
		if !trial.Recognized(s) {
			return fmt.Errorf("unrecognized solver %q (known: %s)", s, strings.Join(trial.Solvers(), ", "))
		}
		if s != trial.Baseline {
			needsBound = true
		}
	}
	if needsBound && len(cfg.SubOptimal) == 0 {
		return fmt.Errorf("sub_optimal values are required for bounded solvers")
	}
	for _, s := range cfg.SubOptimal {
		if s < 1 {
			return fmt.Errorf("sub_optimal values must be at least 1, got %v", s)
		}
	}
	if cfg.SeedCount < 1 {
		cfg.SeedCount = 1
	}
	if cfg.TimeoutSecs < 1 {
		cfg.TimeoutSecs = 60
	}
	if cfg.Repeats < 1 {
		cfg.Repeats = 1
	}
	if len(cfg.PrioritizeConflicts) == 0 {
		cfg.PrioritizeConflicts = []bool{false}
	}
	if len(cfg.BypassConflicts) == 0 {
		cfg.BypassConflicts = []bool{false}
	}
	if len(cfg.TargetReasoning) == 0 {
		cfg.TargetReasoning = []bool{false}
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	if cfg.Docker.Command == "" {
		cfg.Docker.Command = "mapf-solver"
	}
	if cfg.Docker.Enabled {
		if err := cfg.ValidateDocker(); err != nil {
			return err
		}
	} else if cfg.SolverBin == "" {
		return fmt.Errorf("solver_bin is required when docker is disabled")
	}
	return nil
}

// ValidateDocker checks the fields containerized execution needs. It runs
// again when docker mode is switched on from the command line rather than
// the config file.
func (c *Config) ValidateDocker() error {
	if c.Docker.Image == "" {
		return fmt.Errorf("docker.image is required when docker is enabled")
	}
	if c.Docker.DataDir == "" {
		return fmt.Errorf("docker.data_dir is required when docker is enabled")
	}
	return nil
}
