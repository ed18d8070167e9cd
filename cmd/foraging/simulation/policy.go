package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/picogrid/swarm-foraging/cmd/foraging/config"
	"github.com/picogrid/swarm-foraging/cmd/foraging/env"
)

// Policy picks the coordinator action for each environment step
type Policy interface {
	Name() string
	Act(obs env.Observation) env.Action
	// EndEpisode advances any per-episode schedule
	EndEpisode()
	Epsilon() float64
}

// NewPolicy builds the policy named in cfg. nearObject is the distance under
// which the swarm is carrying the object rather than approaching it.
func NewPolicy(cfg config.PolicyConfig, nearObject float64, rng *rand.Rand) (Policy, error) {
	base := &HeuristicPolicy{
		Threshold:  cfg.BearingThresholdDegrees * math.Pi / 180,
		NearObject: nearObject,
	}

	switch cfg.Type {
	case "heuristic":
		return base, nil
	case "epsilon_greedy":
		return NewEpsilonGreedy(base, cfg.Epsilon, cfg.EpsilonDecay, cfg.EpsilonMin, rng), nil
	case "random":
		return NewEpsilonGreedy(base, 1, 1, 1, rng), nil
	default:
		return nil, fmt.Errorf("unknown policy type: %s", cfg.Type)
	}
}

// HeuristicPolicy rotates until the current target lies within Threshold of the
// formation heading, then translates
type HeuristicPolicy struct {
	Threshold  float64
	NearObject float64
}

func (p *HeuristicPolicy) Name() string     { return "heuristic" }
func (p *HeuristicPolicy) EndEpisode()      {}
func (p *HeuristicPolicy) Epsilon() float64 { return 0 }

func (p *HeuristicPolicy) Act(obs env.Observation) env.Action {
	bearing := obs.BearingToObject
	if obs.DistanceToObject <= p.NearObject {
		bearing = obs.BearingToGoal
	}
	if math.Abs(bearing) > p.Threshold {
		return env.ActionRotate
	}
	return env.ActionTranslate
}

// EpsilonGreedy explores with a uniformly random action with probability epsilon
// and otherwise defers to the wrapped policy. Epsilon decays once per episode.
type EpsilonGreedy struct {
	base    Policy
	rng     *rand.Rand
	epsilon float64
	decay   float64
	floor   float64
}

func NewEpsilonGreedy(base Policy, epsilon, decay, floor float64, rng *rand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{
		base:    base,
		rng:     rng,
		epsilon: epsilon,
		decay:   decay,
		floor:   floor,
	}
}

func (p *EpsilonGreedy) Name() string {
	if p.epsilon == 1 && p.decay == 1 {
		return "random"
	}
	return "epsilon_greedy"
}

func (p *EpsilonGreedy) Epsilon() float64 { return p.epsilon }

func (p *EpsilonGreedy) Act(obs env.Observation) env.Action {
	if p.rng.Float64() < p.epsilon {
		return env.Action(p.rng.IntN(env.ActionCount))
	}
	return p.base.Act(obs)
}

func (p *EpsilonGreedy) EndEpisode() {
	p.epsilon = math.Max(p.floor, p.epsilon*p.decay)
	p.base.EndEpisode()
}
