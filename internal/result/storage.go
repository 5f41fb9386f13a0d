package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

func RawCSVPath(runDir string) string {
	return filepath.Join(runDir, "raw.csv")
}

func StatsCSVPath(runDir string) string {
	return filepath.Join(runDir, "stats.csv")
}

func AvgTimeCSVPath(runDir string) string {
	return filepath.Join(runDir, "stats_avg_time.csv")
}

func WriteRunMeta(runDir string, meta *RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, "meta.json"), data, 0o644)
}

func ReadRunMeta(runDir string) (*RunMeta, error) {
	data, err := os.ReadFile(filepath.Join(runDir, "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing meta: %w", err)
	}
	return &meta, nil
}

// ListRuns returns the run directories under baseDir, newest first. Runs
// without a readable meta.json are kept with a nil Meta.
func ListRuns(baseDir string) ([]StoredRun, error) {
	runsDir := filepath.Join(baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs dir: %w", err)
	}

	var runs []StoredRun
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(runsDir, e.Name())
		meta, err := ReadRunMeta(dir)
		if err != nil {
			meta = nil
		}
		runs = append(runs, StoredRun{Dir: dir, Meta: meta})
	}
	// Run directory names are UTC timestamps, so lexicographic order is
	// chronological.
	sort.Slice(runs, func(i, j int) bool { return runs[i].Dir > runs[j].Dir })
	return runs, nil
}
