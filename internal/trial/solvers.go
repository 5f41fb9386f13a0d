package trial

import (
	"fmt"
	"math"
	"strings"
)

// Baseline is the exact reference solver. Its reported cost is the optimum
// the consistency checker measures every variant against.
const Baseline = "cbs"

var solvers = []string{"cbs", "lbcbs", "hbcbs", "bcbs", "ecbs", "decbs", "acbs"}

// Solvers returns the recognized solver identifiers.
func Solvers() []string {
	return append([]string(nil), solvers...)
}

func Recognized(solver string) bool {
	for _, s := range solvers {
		if s == solver {
			return true
		}
	}
	return false
}

// DisplayName maps a solver and its flag configuration to the figure-facing
// name, for example ("decbs", BC+TR) becomes "DECBS+BC+TR". The mapping is
// total: unrecognized solvers yield ("Unknown", false) so callers can warn
// instead of dropping rows.
func DisplayName(solver string, f Flags) (string, bool) {
	if !Recognized(solver) {
		return "Unknown", false
	}
	name := strings.ToUpper(solver)
	if f.PC {
		name += "+PC"
	}
	if f.BC {
		name += "+BC"
	}
	if f.TR {
		name += "+TR"
	}
	return name, true
}

// Suboptimality expands the single configured bound into the (high, low)
// pair a solver variant accepts. The baseline takes no bounds, the focal
// family bounds the low level, hbcbs bounds the high level, and bcbs splits
// the bound as sqrt(s) across both levels.
func Suboptimality(solver string, s float64) (high, low Factor, err error) {
	switch solver {
	case "cbs":
		return Factor{}, Factor{}, nil
	case "lbcbs", "ecbs", "decbs", "acbs":
		if s < 1 {
			return Factor{}, Factor{}, fmt.Errorf("suboptimality bound %v for %s must be at least 1", s, solver)
		}
		return Factor{}, FactorOf(s), nil
	case "hbcbs":
		if s < 1 {
			return Factor{}, Factor{}, fmt.Errorf("suboptimality bound %v for %s must be at least 1", s, solver)
		}
		return FactorOf(s), Factor{}, nil
	case "bcbs":
		if s < 1 {
			return Factor{}, Factor{}, fmt.Errorf("suboptimality bound %v for %s must be at least 1", s, solver)
		}
		r := math.Sqrt(s)
		return FactorOf(r), FactorOf(r), nil
	default:
		return Factor{}, Factor{}, fmt.Errorf("unrecognized solver %q", solver)
	}
}
