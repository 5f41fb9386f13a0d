// Package diag carries the structured warnings the pipeline accumulates.
// Data defects are reported, never fatal; the schema contract is the only
// hard failure on the analysis path.
package diag

import (
	"fmt"
	"log"
	"sync"
)

// Kind classifies a warning.
type Kind string

const (
	SolveFailure      Kind = "solve_failure"
	CostInconsistency Kind = "cost_inconsistency"
	CostDiscrepancy   Kind = "cost_discrepancy"
	UnknownSolver     Kind = "unknown_solver"
)

// Warning is one structured diagnostic. Solver, NumAgents and Seed identify
// the offending configuration where one exists; Detail is the human-readable
// message.
type Warning struct {
	Kind      Kind
	Solver    string
	NumAgents int
	Seed      int
	Detail    string
}

func (w Warning) String() string {
	if w.Solver != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Kind, w.Solver, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// Collector accumulates warnings from every pipeline stage. Safe for
// concurrent use; group statistics run across goroutines.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

func (c *Collector) Add(w Warning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
}

// Warnings returns a copy of the accumulated warnings in emission order.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Warning(nil), c.warnings...)
}

// ByKind returns the accumulated warnings of one kind.
func (c *Collector) ByKind(k Kind) []Warning {
	var out []Warning
	for _, w := range c.Warnings() {
		if w.Kind == k {
			out = append(out, w)
		}
	}
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}

// Emit writes every warning through the standard logger.
func (c *Collector) Emit() {
	for _, w := range c.Warnings() {
		log.Printf("warning: %s", w)
	}
}
