// Package env wraps the world and the swarm coordinator behind a reset/step
// interface. One Step issues one coordinator command and ticks the world until
// the swarm is idle again.
package env

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/picogrid/swarm-foraging/cmd/foraging/controllers"
	"github.com/picogrid/swarm-foraging/cmd/foraging/core"
	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

var (
	// ErrEpisodeDone is returned by Step after the episode ended; call Reset.
	ErrEpisodeDone = errors.New("episode is done")
	// ErrInvalidAction is returned for an action outside {0, 1}
	ErrInvalidAction = errors.New("invalid action")
)

// Action is what the policy picks each step
type Action int

const (
	ActionTranslate Action = 0
	ActionRotate    Action = 1
)

// ActionCount is the size of the action space
const ActionCount = 2

func (a Action) String() string {
	switch a {
	case ActionTranslate:
		return "translate"
	case ActionRotate:
		return "rotate"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Outcome tells why an episode ended
type Outcome string

const (
	OutcomeRunning     Outcome = "running"
	OutcomeDelivered   Outcome = "delivered"
	OutcomeOutOfBounds Outcome = "out_of_bounds"
	OutcomeTimeout     Outcome = "timeout"
)

// Observation is the policy input
type Observation struct {
	DistanceToObject float64
	BearingToObject  float64
	ObjectToGoal     float64
	BearingToGoal    float64
	Heading          float64 // formation heading divided by π, in (-1, 1]
}

// Vector returns the observation in its fixed 5-element order
func (o Observation) Vector() []float64 {
	return []float64{o.DistanceToObject, o.BearingToObject, o.ObjectToGoal, o.BearingToGoal, o.Heading}
}

// StepResult is the outcome of one Step
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Outcome     Outcome
	Ticks       int
	Stalled     bool // the action hit the tick limit and the formation was re-seated
}

// RewardConfig weights the reward policy
type RewardConfig struct {
	Delivery    float64
	Approach    float64
	Transport   float64
	Penalty     float64
	MinProgress float64
}

// DefaultRewardConfig is +100 delivery, +1 approach, +5 transport, -1 otherwise
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		Delivery:    100,
		Approach:    1,
		Transport:   5,
		Penalty:     -1,
		MinProgress: 0.1,
	}
}

// Layout pins the episode start instead of drawing it at random
type Layout struct {
	Object  geom.Vec2
	Home    geom.Vec2
	Start   geom.Vec2
	Heading float64
}

// Config assembles every component of an environment
type Config struct {
	SwarmSize          int
	RobotRadius        float64
	NearObject         float64
	MaxTicksPerAction  int
	MaxStepsPerEpisode int
	Seed               uint64

	World     world.Config
	Sensor    core.SensorConfig
	FLC       core.FLCConfig
	Motion    controllers.MotionConfig
	Formation controllers.FormationConfig
	Reward    RewardConfig
	Layout    *Layout
}

// DefaultConfig is three robots on the default board
func DefaultConfig() Config {
	return Config{
		SwarmSize:          3,
		RobotRadius:        10,
		NearObject:         40,
		MaxTicksPerAction:  2000,
		MaxStepsPerEpisode: 500,
		Seed:               1,
		World:              world.DefaultConfig(),
		Sensor:             core.DefaultSensorConfig(),
		FLC:                core.DefaultFLCConfig(),
		Motion:             controllers.DefaultMotionConfig(),
		Formation:          controllers.DefaultFormationConfig(),
		Reward:             DefaultRewardConfig(),
	}
}

// Environment owns one world, one swarm and the episode bookkeeping
type Environment struct {
	cfg   Config
	rng   *rand.Rand
	world *world.World
	swarm *controllers.SwarmController
	log   logger.Logger

	steps       int
	done        bool
	outcome     Outcome
	prevToObj   float64
	prevToGoal  float64
	totalReward float64
}

// New builds the world, the shared fuzzy controller and the swarm. Setup errors are
// returned unchanged so callers can match them with errors.Is.
func New(cfg Config) (*Environment, error) {
	if cfg.SwarmSize < 1 {
		return nil, fmt.Errorf("swarm size must be positive (got %d)", cfg.SwarmSize)
	}
	if cfg.MaxTicksPerAction < 1 {
		return nil, fmt.Errorf("max ticks per action must be positive (got %d)", cfg.MaxTicksPerAction)
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	e := &Environment{
		cfg:   cfg,
		rng:   rand.New(src),
		world: world.New(cfg.World),
		log:   logger.Named("env"),
	}

	flc, err := core.NewRobotFLC(cfg.FLC)
	if err != nil {
		return nil, err
	}

	cfg.Sensor.BodyRadius = cfg.RobotRadius
	cfg.Motion.TickRate = cfg.World.TickRate
	if cfg.World.TickRate > 0 {
		cfg.Formation.TranslationScale = 1 / cfg.World.TickRate
	}

	members := make([]*controllers.Robot, cfg.SwarmSize)
	for i := range members {
		body := e.world.AddRobot(geom.Vec2{}, 0, cfg.RobotRadius)
		sensor, err := core.NewLaserSensor(cfg.Sensor, e.world, src)
		if err != nil {
			return nil, err
		}
		members[i] = controllers.NewRobot(i, body, sensor, flc, e.world, cfg.Motion)
	}

	e.swarm = controllers.NewSwarmController(cfg.Formation, members, geom.Vec2{}, 0)
	e.cfg = cfg
	return e, nil
}

func (e *Environment) World() *world.World                  { return e.world }
func (e *Environment) Swarm() *controllers.SwarmController  { return e.swarm }
func (e *Environment) Steps() int                           { return e.steps }
func (e *Environment) TotalReward() float64                 { return e.totalReward }
func (e *Environment) Outcome() Outcome                     { return e.outcome }
func (e *Environment) SetEventSink(s controllers.EventSink) { e.swarm.SetEventSink(s) }

// Rand is the environment's seeded random source, shared with policies that
// need reproducible exploration
func (e *Environment) Rand() *rand.Rand { return e.rng }

// Reset starts a new episode and returns the first observation
func (e *Environment) Reset() Observation {
	var l Layout
	if e.cfg.Layout != nil {
		l = *e.cfg.Layout
	} else {
		l.Object, l.Home = world.RandomLayout(e.cfg.World, e.rng)
		l.Start = geom.Vec2{X: e.cfg.World.Width / 2, Y: e.cfg.World.Height / 2}
		l.Heading = l.Object.Sub(l.Start).Angle()
	}

	e.world.PlaceObject(l.Object)
	e.world.SetHome(l.Home)
	e.swarm.Reset(l.Start, l.Heading)

	e.steps = 0
	e.done = false
	e.outcome = OutcomeRunning
	e.totalReward = 0
	e.prevToObj = e.swarm.Center().Dist(l.Object)
	e.prevToGoal = l.Object.Dist(l.Home)
	e.selectMode(e.prevToObj <= e.cfg.NearObject)

	e.log.Debugf("reset: object=%v home=%v start=%v", l.Object, l.Home, l.Start)
	return e.observe()
}

// Step forwards the action to the coordinator and ticks until it is idle
func (e *Environment) Step(a Action) (StepResult, error) {
	if e.done {
		return StepResult{}, ErrEpisodeDone
	}
	if a != ActionTranslate && a != ActionRotate {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	if err := e.swarm.Command(controllers.Command(a)); err != nil {
		return StepResult{}, err
	}

	res := StepResult{Outcome: OutcomeRunning}
	ticks := 0
	dt := e.world.Dt()
	for {
		state := e.swarm.Run()
		e.world.Step(dt)
		ticks++
		if state == controllers.Idle {
			break
		}
		if ticks >= e.cfg.MaxTicksPerAction {
			e.log.Warnf("%s did not finish in %d ticks, re-seating formation", a, ticks)
			e.logStall()
			e.swarm.Reset(e.swarm.Center(), e.swarm.Heading())
			res.Stalled = true
			break
		}
	}

	e.steps++
	res.Ticks = ticks
	res.Reward, res.Outcome = e.score()
	res.Done = res.Outcome != OutcomeRunning
	res.Observation = e.observe()

	e.done = res.Done
	e.outcome = res.Outcome
	e.totalReward += res.Reward
	return res, nil
}

// logStall reports where each member was when an action ran out of ticks
func (e *Environment) logStall() {
	for _, m := range e.swarm.Members() {
		st, err := m.Status()
		if err != nil {
			e.log.Errorf("status: %v", err)
			continue
		}
		e.log.WithFields(map[string]interface{}{
			"robot":   st.Index,
			"id":      st.ID.String()[:8],
			"nearest": fmt.Sprintf("%.1f@%.2f", st.Nearest.Distance, st.Nearest.Angle),
			"avoid":   st.AvoidVote,
		}).Warnf("stalled at (%.1f, %.1f) heading %.2f", st.Position.X, st.Position.Y, st.Heading)
	}
}

// score applies the reward policy and the done conditions, and picks the next
// task mode
func (e *Environment) score() (float64, Outcome) {
	object := e.world.Object().Position
	toObj := e.swarm.Center().Dist(object)
	toGoal := object.Dist(e.world.Home())
	near := toObj <= e.cfg.NearObject
	r := e.cfg.Reward

	defer func() {
		e.prevToObj, e.prevToGoal = toObj, toGoal
		e.selectMode(near)
	}()

	if e.world.InGoal(object) {
		return r.Delivery, OutcomeDelivered
	}

	reward := r.Penalty
	switch {
	case !near && e.prevToObj-toObj > r.MinProgress:
		reward = r.Approach
	case near && e.prevToGoal-toGoal > r.MinProgress:
		reward = r.Transport
	}

	for _, m := range e.swarm.Members() {
		if !e.world.Contains(m.Position()) {
			return reward, OutcomeOutOfBounds
		}
	}
	if e.cfg.MaxStepsPerEpisode > 0 && e.steps >= e.cfg.MaxStepsPerEpisode {
		return reward, OutcomeTimeout
	}
	return reward, OutcomeRunning
}

func (e *Environment) observe() Observation {
	center, heading := e.swarm.Center(), e.swarm.Heading()
	object, home := e.world.Object().Position, e.world.Home()

	return Observation{
		DistanceToObject: center.Dist(object),
		BearingToObject:  geom.BearingTo(center, heading, object),
		ObjectToGoal:     object.Dist(home),
		BearingToGoal:    geom.BearingTo(object, heading, home),
		Heading:          geom.WrapAngle(heading) / math.Pi,
	}
}

// selectMode steers to the object until the swarm reaches it, then to home
func (e *Environment) selectMode(nearObject bool) {
	if nearObject {
		e.swarm.SetMode(world.ModeHome)
		return
	}
	e.swarm.SetMode(world.ModeObject)
}
