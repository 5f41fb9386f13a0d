package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"mapfbench/internal/config"
	"mapfbench/internal/trial"
)

func TestPrepareRunOutputs(t *testing.T) {
	t.Run("creates stats dir and raw writer", func(t *testing.T) {
		runDir := t.TempDir()
		rawPath := filepath.Join(runDir, "raw.csv")

		writer, statsDir, err := prepareRunOutputs(runDir, rawPath, trial.RequiredMetrics())
		if err != nil {
			t.Fatalf("prepareRunOutputs: %v", err)
		}
		defer writer.Close()

		if want := filepath.Join(runDir, "stats-json"); statsDir != want {
			t.Errorf("stats dir = %q, want %q", statsDir, want)
		}
		if info, err := os.Stat(statsDir); err != nil || !info.IsDir() {
			t.Errorf("stats dir not created: %v", err)
		}
		if _, err := os.Stat(rawPath); err != nil {
			t.Errorf("raw table not created: %v", err)
		}
	})

	t.Run("blocked stats dir leaves no raw table behind", func(t *testing.T) {
		runDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(runDir, "stats-json"), nil, 0o644); err != nil {
			t.Fatal(err)
		}

		rawPath := filepath.Join(runDir, "raw.csv")
		if _, _, err := prepareRunOutputs(runDir, rawPath, trial.RequiredMetrics()); err == nil {
			t.Fatal("prepareRunOutputs succeeded with a file on the stats dir path")
		}
		if _, err := os.Stat(rawPath); !os.IsNotExist(err) {
			t.Errorf("raw table exists after stats dir failure: stat err = %v", err)
		}
	})
}

func TestAgentsDistFor(t *testing.T) {
	cfg := &config.Config{
		NumAgents:  []int{10, 20, 30},
		AgentsDist: []int{5, 8},
	}

	tests := []struct {
		name      string
		numAgents int
		want      string
	}{
		{"first entry", 10, "5"},
		{"second entry", 20, "8"},
		{"count without a parameter", 30, ""},
		{"unknown count", 40, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agentsDistFor(cfg, tt.numAgents)
			if got != tt.want {
				t.Errorf("agentsDistFor(%d) = %q, want %q", tt.numAgents, got, tt.want)
			}
		})
	}
}
