package simulation

import (
	"context"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/picogrid/swarm-foraging/cmd/foraging/config"
	"github.com/picogrid/swarm-foraging/cmd/foraging/env"
	"github.com/picogrid/swarm-foraging/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryParams(dir string) map[string]interface{} {
	return map[string]interface{}{
		"episodes":           2,
		"max_steps":          3,
		"policy":             "heuristic",
		"sensor_noise":       false,
		"enable_report":      true,
		"report_format":      "json",
		"report_output_path": dir,
		"object_x":           70.0,
		"object_y":           420.0,
		"home_x":             60.0,
		"home_y":             410.0,
	}
}

func TestRegistered(t *testing.T) {
	sim, err := simulation.DefaultRegistry.Get(SimulationName)
	require.NoError(t, err)
	assert.Equal(t, SimulationName, sim.Name())
	assert.NotEmpty(t, sim.Description())
}

func TestRunWritesReport(t *testing.T) {
	dir := t.TempDir()
	sim := NewForagingSimulation().(*ForagingSimulation)
	require.NoError(t, sim.Configure(deliveryParams(dir)))

	require.NoError(t, sim.Run(context.Background()))

	report := sim.Report()
	require.Len(t, report.Episodes, 2)
	for _, e := range report.Episodes {
		assert.Equal(t, string(env.OutcomeDelivered), e.Outcome)
		assert.Equal(t, 1, e.Steps)
		assert.Equal(t, 100.0, e.Reward)
	}
	assert.Equal(t, 1.0, report.SuccessRate())
	assert.Equal(t, "heuristic", report.Policy)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	summary := sim.Events().GetSummary()
	assert.Equal(t, 2, summary.Episodes)
	assert.Equal(t, 2, summary.Outcomes["delivered"])
}

func TestRunRespectsStepLimit(t *testing.T) {
	sim := NewForagingSimulation().(*ForagingSimulation)
	require.NoError(t, sim.Configure(map[string]interface{}{
		"episodes":      1,
		"max_steps":     2,
		"policy":        "random",
		"enable_report": false,
	}))

	require.NoError(t, sim.Run(context.Background()))
	require.Len(t, sim.Report().Episodes, 1)
	assert.LessOrEqual(t, sim.Report().Episodes[0].Steps, 2)
}

func TestStopBeforeRun(t *testing.T) {
	sim := NewForagingSimulation().(*ForagingSimulation)
	params := deliveryParams(t.TempDir())
	params["enable_report"] = false
	require.NoError(t, sim.Configure(params))

	require.NoError(t, sim.Stop())
	require.NoError(t, sim.Stop())
	require.NoError(t, sim.Run(context.Background()))
	assert.Empty(t, sim.Report().Episodes)
}

func TestRunCancelled(t *testing.T) {
	sim := NewForagingSimulation().(*ForagingSimulation)
	params := deliveryParams(t.TempDir())
	params["enable_report"] = false
	require.NoError(t, sim.Configure(params))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sim.Run(ctx), context.Canceled)
	assert.Empty(t, sim.Report().Episodes)
}

func TestConfigureRejectsBadOverrides(t *testing.T) {
	sim := NewForagingSimulation()
	err := sim.Configure(map[string]interface{}{"rotation_method": "mean_of_maxima"})
	assert.Error(t, err)
}

func TestLayoutNeedsEveryCoordinate(t *testing.T) {
	cfg := config.GetDefaultConfig()
	assert.Nil(t, layoutFromParams(map[string]interface{}{"object_x": 1.0}, cfg))

	l := layoutFromParams(map[string]interface{}{
		"object_x": 450, "object_y": "250", "home_x": 50.0, "home_y": 50.0,
	}, cfg)
	require.NotNil(t, l)
	assert.Equal(t, 450.0, l.Object.X)
	assert.Equal(t, 250.0, l.Start.X)
	assert.InDelta(t, 0, l.Heading, 1e-12)
}

func TestHeuristicPolicy(t *testing.T) {
	p := &HeuristicPolicy{Threshold: 0.2, NearObject: 40}

	assert.Equal(t, env.ActionRotate, p.Act(env.Observation{DistanceToObject: 100, BearingToObject: -0.5}))
	assert.Equal(t, env.ActionTranslate, p.Act(env.Observation{DistanceToObject: 100, BearingToObject: 0.1, BearingToGoal: 2}))
	assert.Equal(t, env.ActionRotate, p.Act(env.Observation{DistanceToObject: 30, BearingToGoal: 1}))
	assert.Equal(t, env.ActionTranslate, p.Act(env.Observation{DistanceToObject: 30, BearingToObject: 3, BearingToGoal: 0.1}))
}

func TestEpsilonGreedy(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	base := &HeuristicPolicy{Threshold: 0.2, NearObject: 40}
	obs := env.Observation{DistanceToObject: 100}

	greedy := NewEpsilonGreedy(base, 0, 0.5, 0, rng)
	for i := 0; i < 20; i++ {
		assert.Equal(t, env.ActionTranslate, greedy.Act(obs))
	}

	explorer := NewEpsilonGreedy(base, 1, 1, 1, rng)
	assert.Equal(t, "random", explorer.Name())
	seen := map[env.Action]bool{}
	for i := 0; i < 100; i++ {
		seen[explorer.Act(obs)] = true
	}
	assert.Len(t, seen, env.ActionCount)

	decaying := NewEpsilonGreedy(base, 0.5, 0.5, 0.1, rng)
	decaying.EndEpisode()
	assert.Equal(t, 0.25, decaying.Epsilon())
	decaying.EndEpisode()
	decaying.EndEpisode()
	assert.Equal(t, 0.1, decaying.Epsilon())
}

func TestNewPolicy(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	cfg := config.GetDefaultConfig().Policy

	p, err := NewPolicy(cfg, 40, rng)
	require.NoError(t, err)
	assert.Equal(t, "epsilon_greedy", p.Name())
	assert.Equal(t, 0.5, p.Epsilon())

	cfg.Type = "heuristic"
	p, err = NewPolicy(cfg, 40, rng)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Epsilon())

	cfg.Type = "sarsa"
	_, err = NewPolicy(cfg, 40, rng)
	assert.Error(t, err)
}
