package fuzzy

import (
	"fmt"
	"strings"
)

// Method selects a defuzzification algorithm
type Method int

const (
	// CenterOfGravity averages the consequents' center-of-gravity indexes, weighted by firing strength.
	CenterOfGravity Method = iota
	// WeightedAverage is the zero-order Takagi-Sugeno method over singleton consequents.
	WeightedAverage
)

func (m Method) String() string {
	switch m {
	case CenterOfGravity:
		return "cog"
	case WeightedAverage:
		return "wavg"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod parses a method name as used in configuration files
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "cog", "centroid", "center_of_gravity":
		return CenterOfGravity, nil
	case "wavg", "tsk0", "weighted_average":
		return WeightedAverage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

type activation struct {
	term     *Term
	strength float64
}

// Evaluate fires the rule set against the percepts and defuzzifies the result.
// fired is false when no rule fired; that is a valid outcome and the caller
// picks the fallback value.
func Evaluate(rs *RuleSet, percepts Percepts, method Method) (value float64, fired bool, err error) {
	if method != CenterOfGravity && method != WeightedAverage {
		return 0, false, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}

	out, err := rs.OutputDomain()
	if err != nil {
		return 0, false, err
	}

	if method == WeightedAverage {
		for _, r := range rs.rules {
			if _, ok := r.Consequent.singletonPoint(); !ok {
				return 0, false, fmt.Errorf("%w: %s in %s", ErrNotSingleton, r.Consequent, rs.name)
			}
		}
	}

	active, err := activations(rs, percepts)
	if err != nil {
		return 0, false, err
	}
	if len(active) == 0 {
		return 0, false, nil
	}

	switch method {
	case CenterOfGravity:
		return centerOfGravity(out, active), true, nil
	case WeightedAverage:
		return weightedAverage(active), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
}

func activations(rs *RuleSet, percepts Percepts) ([]activation, error) {
	var active []activation
	for _, r := range rs.rules {
		w, err := r.FiringStrength(percepts)
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %w", rs.name, err)
		}
		if w > 0 {
			active = append(active, activation{term: r.Consequent, strength: w})
		}
	}
	return active, nil
}

func centerOfGravity(out *Domain, active []activation) float64 {
	var num, den float64
	for _, a := range active {
		num += a.term.CenterOfGravityIndex() * a.strength
		den += a.strength
	}
	index := num / den
	return out.low + index*(out.high-out.low)/float64(out.SampleCount())
}

func weightedAverage(active []activation) float64 {
	var num, den float64
	for _, a := range active {
		level, _ := a.term.singletonPoint()
		num += level * a.strength
		den += a.strength
	}
	return num / den
}
