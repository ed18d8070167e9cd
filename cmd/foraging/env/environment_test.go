package env

import (
	"math"
	"testing"

	"github.com/picogrid/swarm-foraging/cmd/foraging/controllers"
	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, modify func(*Config)) *Environment {
	t.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestResetIsDeterministicPerSeed(t *testing.T) {
	a := newEnv(t, nil).Reset()
	b := newEnv(t, nil).Reset()
	c := newEnv(t, func(c *Config) { c.Seed = 99 }).Reset()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Vector(), c.Vector())
	assert.Len(t, a.Vector(), 5)

	// the swarm starts facing the object
	assert.InDelta(t, 0, a.BearingToObject, 1e-9)
	assert.Greater(t, a.Heading, -1.0)
	assert.LessOrEqual(t, a.Heading, 1.0)
}

func TestStepTranslate(t *testing.T) {
	e := newEnv(t, nil)
	obs := e.Reset()

	res, err := e.Step(ActionTranslate)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Ticks)
	assert.False(t, res.Done)
	assert.Equal(t, OutcomeRunning, res.Outcome)
	assert.Contains(t, []float64{1, -1}, res.Reward)
	assert.LessOrEqual(t, res.Observation.DistanceToObject, obs.DistanceToObject)
	assert.Equal(t, controllers.Idle, e.Swarm().State())
	assert.Equal(t, 1, e.Steps())
	assert.False(t, res.Stalled)
}

func TestStepRotate(t *testing.T) {
	e := newEnv(t, nil)
	obs := e.Reset()

	res, err := e.Step(ActionRotate)
	require.NoError(t, err)
	assert.Greater(t, res.Ticks, 2)
	assert.Less(t, res.Ticks, DefaultConfig().MaxTicksPerAction)
	assert.Equal(t, controllers.Idle, e.Swarm().State())

	turned := math.Abs(geom.WrapAngle((res.Observation.Heading - obs.Heading) * math.Pi))
	assert.InDelta(t, controllers.DefaultFormationConfig().RotationStep, turned, 1e-9)
}

func TestStepReseatsStalledFormation(t *testing.T) {
	e := newEnv(t, func(c *Config) { c.MaxTicksPerAction = 2 })
	e.Reset()

	res, err := e.Step(ActionRotate)
	require.NoError(t, err)
	assert.True(t, res.Stalled)
	assert.Equal(t, 2, res.Ticks)
	assert.Equal(t, controllers.Idle, e.Swarm().State())

	slots := e.Swarm().Slots()
	for i, m := range e.Swarm().Members() {
		assert.InDelta(t, 0, m.Position().Dist(slots[i]), 1e-9, "member %d re-seated", i)
	}

	_, err = e.Step(ActionTranslate)
	assert.NoError(t, err)
}

func TestStepRejectsUnknownAction(t *testing.T) {
	e := newEnv(t, nil)
	e.Reset()

	_, err := e.Step(Action(2))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, 0, e.Steps())
}

func TestDelivery(t *testing.T) {
	e := newEnv(t, func(c *Config) {
		c.Layout = &Layout{
			Object: geom.Vec2{X: 70, Y: 420},
			Home:   geom.Vec2{X: 60, Y: 410},
			Start:  geom.Vec2{X: 250, Y: 250},
		}
	})
	e.Reset()

	res, err := e.Step(ActionTranslate)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, OutcomeDelivered, res.Outcome)
	assert.Equal(t, 100.0, res.Reward)

	_, err = e.Step(ActionTranslate)
	assert.ErrorIs(t, err, ErrEpisodeDone)

	e.Reset()
	assert.Equal(t, OutcomeRunning, e.Outcome())
	assert.Equal(t, 0.0, e.TotalReward())
}

func TestOutOfBounds(t *testing.T) {
	e := newEnv(t, func(c *Config) {
		c.Layout = &Layout{
			Object: geom.Vec2{X: 400, Y: 100},
			Home:   geom.Vec2{X: 60, Y: 410},
			Start:  geom.Vec2{X: 12, Y: 250},
		}
	})
	e.Reset()

	res, err := e.Step(ActionTranslate)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, OutcomeOutOfBounds, res.Outcome)
}

func TestTimeout(t *testing.T) {
	e := newEnv(t, func(c *Config) { c.MaxStepsPerEpisode = 2 })
	e.Reset()

	res, err := e.Step(ActionTranslate)
	require.NoError(t, err)
	require.False(t, res.Done)

	res, err = e.Step(ActionTranslate)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
}

func TestTaskModeSwitchesNearObject(t *testing.T) {
	e := newEnv(t, func(c *Config) {
		c.Layout = &Layout{
			Object: geom.Vec2{X: 300, Y: 250},
			Home:   geom.Vec2{X: 60, Y: 410},
			Start:  geom.Vec2{X: 250, Y: 250},
		}
	})
	e.Reset()
	assert.Equal(t, world.ModeObject, e.Swarm().Mode())

	e2 := newEnv(t, func(c *Config) {
		c.Layout = &Layout{
			Object: geom.Vec2{X: 255, Y: 250},
			Home:   geom.Vec2{X: 60, Y: 410},
			Start:  geom.Vec2{X: 250, Y: 250},
		}
	})
	e2.Reset()
	assert.Equal(t, world.ModeHome, e2.Swarm().Mode())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SwarmSize = 0
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Sensor.BeamCount = 1
	_, err = New(cfg)
	assert.Error(t, err)
}
