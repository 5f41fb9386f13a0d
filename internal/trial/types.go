package trial

import (
	"fmt"
	"math"
	"strconv"
)

// MaxSentinel is the value censored costs and expansion counts carry after
// normalization. It stays numerically maximal so a censored cost can never
// win a cost comparison.
var MaxSentinel = float64(math.MaxInt64)

// DefaultTimeoutMicros is the experiment timeout written into the time field
// of censored rows when no explicit timeout is configured (60 seconds).
const DefaultTimeoutMicros = 60_000_000

// Outcome tags how a trial ended. Censoring lives here as an explicit state;
// downstream code branches on the tag, never on sentinel comparisons.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeSolveFailure Outcome = "solvefailure"
)

// Censored reports whether the trial produced no genuine measurement.
func (o Outcome) Censored() bool {
	return o == OutcomeTimeout || o == OutcomeSolveFailure
}

// Flags are the three independent search optimizations a solver may enable.
type Flags struct {
	PC bool // prioritize conflicts
	BC bool // bypass conflicts
	TR bool // target reasoning
}

func (f Flags) String() string {
	return fmt.Sprintf("PC=%t BC=%t TR=%t", f.PC, f.BC, f.TR)
}

func (f Flags) less(other Flags) bool {
	if f.PC != other.PC {
		return !f.PC
	}
	if f.BC != other.BC {
		return !f.BC
	}
	return !f.TR
}

// Factor is a suboptimality bound that may be absent: the exact baseline
// carries no bounds, and the input renders absence as "NaN". Keeping absence
// explicit makes Factor usable as a map key, which a raw NaN float is not.
type Factor struct {
	Set   bool
	Value float64
}

func FactorOf(v float64) Factor {
	return Factor{Set: true, Value: v}
}

// ParseFactor reads a wire cell. "NaN", empty and unparseable content all
// mean absent.
func ParseFactor(s string) Factor {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return Factor{}
	}
	return FactorOf(v)
}

func (f Factor) String() string {
	if !f.Set {
		return "NaN"
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// Less orders absent before any set value, then by value.
func (f Factor) Less(other Factor) bool {
	if f.Set != other.Set {
		return !f.Set
	}
	return f.Value < other.Value
}

// Record is one normalized trial row.
type Record struct {
	Solver     string
	NumAgents  int
	Seed       int
	Flags      Flags
	HighSub    Factor
	LowSub     Factor
	Outcome    Outcome
	Cost       float64
	TimeMicros float64
	// Expanded holds the expansion-count metrics in the order of the owning
	// Table's Metrics list. NaN marks a missing cell.
	Expanded []float64
}

func (r Record) Censored() bool {
	return r.Outcome.Censored()
}

// Key is the fine-grained grouping key for the primary statistics view.
type Key struct {
	Solver    string
	NumAgents int
	Flags     Flags
	HighSub   Factor
	LowSub    Factor
}

// Less is the stable total ordering used for deterministic output rows.
func (k Key) Less(other Key) bool {
	if k.Solver != other.Solver {
		return k.Solver < other.Solver
	}
	if k.NumAgents != other.NumAgents {
		return k.NumAgents < other.NumAgents
	}
	if k.Flags != other.Flags {
		return k.Flags.less(other.Flags)
	}
	if k.HighSub != other.HighSub {
		return k.HighSub.Less(other.HighSub)
	}
	return k.LowSub.Less(other.LowSub)
}

// CoarseKey omits the agent count; the average-time view groups by it.
type CoarseKey struct {
	Solver  string
	Flags   Flags
	HighSub Factor
	LowSub  Factor
}

func (k CoarseKey) Less(other CoarseKey) bool {
	if k.Solver != other.Solver {
		return k.Solver < other.Solver
	}
	if k.Flags != other.Flags {
		return k.Flags.less(other.Flags)
	}
	if k.HighSub != other.HighSub {
		return k.HighSub.Less(other.HighSub)
	}
	return k.LowSub.Less(other.LowSub)
}

// Instance identifies one routing problem independent of solver and flags.
type Instance struct {
	NumAgents int
	Seed      int
}

// PairKey identifies a matched instance for the pairwise exclusion filter:
// everything except the solver.
type PairKey struct {
	Seed      int
	NumAgents int
	Flags     Flags
	HighSub   Factor
	LowSub    Factor
}

func (r Record) Key() Key {
	return Key{Solver: r.Solver, NumAgents: r.NumAgents, Flags: r.Flags, HighSub: r.HighSub, LowSub: r.LowSub}
}

func (r Record) CoarseKey() CoarseKey {
	return CoarseKey{Solver: r.Solver, Flags: r.Flags, HighSub: r.HighSub, LowSub: r.LowSub}
}

func (r Record) Instance() Instance {
	return Instance{NumAgents: r.NumAgents, Seed: r.Seed}
}

func (r Record) PairKey() PairKey {
	return PairKey{Seed: r.Seed, NumAgents: r.NumAgents, Flags: r.Flags, HighSub: r.HighSub, LowSub: r.LowSub}
}

// Metric describes one tracked column and the short name its output columns
// carry.
type Metric struct {
	Column string
	Short  string
}

// TimeColumn is the runtime column. It is always required and always leads
// the metric output order.
const TimeColumn = "time(us)"

// knownMetrics lists every expansion metric in canonical output order. The
// MDD pair is optional on the wire.
var knownMetrics = []Metric{
	{Column: "high_level_expanded", Short: "high"},
	{Column: "low_level_open_expanded", Short: "lowOpen"},
	{Column: "low_level_focal_expanded", Short: "lowFocal"},
	{Column: "low_level_mdd_open_expanded", Short: "lowOpenMdd"},
	{Column: "low_level_mdd_focal_expanded", Short: "lowFocalMdd"},
	{Column: "total_low_level_expanded", Short: "lowTotal"},
}

var optionalColumns = map[string]bool{
	"low_level_mdd_open_expanded":  true,
	"low_level_mdd_focal_expanded": true,
}

// RequiredMetrics returns the expansion metrics every schema version carries.
func RequiredMetrics() []Metric {
	out := make([]Metric, 0, len(knownMetrics))
	for _, m := range knownMetrics {
		if optionalColumns[m.Column] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AllMetrics returns every known expansion metric, including the optional
// MDD pair.
func AllMetrics() []Metric {
	return append([]Metric(nil), knownMetrics...)
}

// MetricByShort resolves an output short name back to its metric.
func MetricByShort(short string) (Metric, bool) {
	for _, m := range knownMetrics {
		if m.Short == short {
			return m, true
		}
	}
	return Metric{}, false
}

// ApplyCensoring sets the sentinel fields a censored record carries: maximal
// cost and counts, the timeout penalty on time.
func ApplyCensoring(r *Record, timeoutMicros float64, metricCount int) {
	r.Cost = MaxSentinel
	r.TimeMicros = timeoutMicros
	r.Expanded = make([]float64, metricCount)
	for i := range r.Expanded {
		r.Expanded[i] = MaxSentinel
	}
}

// Table is a normalized trial table. Metrics lists the expansion metrics
// present in the source schema, in canonical order; every Record's Expanded
// slice is aligned with it. The table is never mutated once loaded; derived
// views allocate fresh tables.
type Table struct {
	Metrics       []Metric
	TimeoutMicros float64
	Rows          []Record
}
