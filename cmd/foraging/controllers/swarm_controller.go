package controllers

import (
	"errors"
	"fmt"
	"math"

	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

// ErrInvalidCommand is returned for a command issued while busy or an unknown code.
// The coordinator state is unchanged.
var ErrInvalidCommand = errors.New("invalid swarm command")

// State is the coordination phase of the swarm
type State int

const (
	Idle State = iota
	TranslationInit
	TranslationStop
	RotationReposition
	RotationAlign
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case TranslationInit:
		return "TRANSLATION_INIT"
	case TranslationStop:
		return "TRANSLATION_STOP"
	case RotationReposition:
		return "ROTATION_REPOSITION"
	case RotationAlign:
		return "ROTATION_ALIGN"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// Command is an action code accepted in Idle
type Command int

const (
	Translate Command = 0
	Rotate    Command = 1
)

func (c Command) String() string {
	switch c {
	case Translate:
		return "translate"
	case Rotate:
		return "rotate"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// EventSink receives coordinator events for reporting
type EventSink interface {
	LogCommand(command string, accepted bool, reason string)
	LogTransition(from, to string)
}

// FormationConfig describes the U-shaped formation
type FormationConfig struct {
	Radius           float64
	Gap              float64 // radians left open in front of the formation
	RotationStep     float64 // radians per rotate command
	TranslationScale float64 // center displacement per unit of speed per tick
}

// DefaultFormationConfig is a radius 20 circle with a 2π/5 gap
func DefaultFormationConfig() FormationConfig {
	return FormationConfig{
		Radius:           20,
		Gap:              2 * math.Pi / 5,
		RotationStep:     math.Pi / 12,
		TranslationScale: 1.0 / 50,
	}
}

// SwarmController moves its members as one rigid formation. It is driven by Run,
// one state transition per tick, and is the only writer of the formation fields.
type SwarmController struct {
	cfg     FormationConfig
	members []*Robot
	center  geom.Vec2
	heading float64
	state   State
	mode    world.TaskMode

	avgTrans float64
	avgRot   float64

	// rotation buffers, valid only between Rotate and the return to Idle
	rotSign    float64
	slotTarget []geom.Vec2
	turnDir    []float64
	converged  []bool

	events EventSink
	log    logger.Logger
}

// NewSwarmController seats the members on the formation around center
func NewSwarmController(cfg FormationConfig, members []*Robot, center geom.Vec2, heading float64) *SwarmController {
	sc := &SwarmController{
		cfg:     cfg,
		members: members,
		mode:    world.ModeObject,
		log:     logger.Named("swarm"),
	}
	sc.Reset(center, heading)
	return sc
}

// SetEventSink attaches a reporter; nil disables reporting
func (sc *SwarmController) SetEventSink(sink EventSink) { sc.events = sink }

func (sc *SwarmController) State() State             { return sc.state }
func (sc *SwarmController) Center() geom.Vec2        { return sc.center }
func (sc *SwarmController) Heading() float64         { return sc.heading }
func (sc *SwarmController) Members() []*Robot        { return sc.members }
func (sc *SwarmController) Mode() world.TaskMode     { return sc.mode }
func (sc *SwarmController) SetMode(m world.TaskMode) { sc.mode = m }

// AverageVotes returns the averaged (vTrans, vRot) of the last accepted command
func (sc *SwarmController) AverageVotes() (float64, float64) { return sc.avgTrans, sc.avgRot }

// Reset forces Idle, drops rotation buffers and re-seats every member on its slot
// facing the formation heading.
func (sc *SwarmController) Reset(center geom.Vec2, heading float64) {
	sc.center = center
	sc.heading = geom.WrapAngle(heading)
	sc.state = Idle
	sc.avgTrans, sc.avgRot = 0, 0
	sc.clearRotation()

	for i, m := range sc.members {
		m.Place(sc.slot(i, sc.heading), sc.heading)
	}
}

// SlotAngle is the angle of member i around the center for a formation heading
func SlotAngle(heading, gap float64, i, n int) float64 {
	step := 0.0
	if n > 1 {
		step = (2*math.Pi - gap) / float64(n-1)
	}
	return heading + gap/2 + float64(i)*step
}

func (sc *SwarmController) slot(i int, heading float64) geom.Vec2 {
	return geom.Polar(sc.center, sc.cfg.Radius, SlotAngle(heading, sc.cfg.Gap, i, len(sc.members)))
}

// Slots returns the current slot of every member
func (sc *SwarmController) Slots() []geom.Vec2 {
	out := make([]geom.Vec2, len(sc.members))
	for i := range sc.members {
		out[i] = sc.slot(i, sc.heading)
	}
	return out
}

// Command starts a maneuver. Only accepted in Idle.
func (sc *SwarmController) Command(cmd Command) error {
	if sc.state != Idle {
		return sc.reject(cmd, fmt.Errorf("%w: %s while %s", ErrInvalidCommand, cmd, sc.state))
	}
	if cmd != Translate && cmd != Rotate {
		return sc.reject(cmd, fmt.Errorf("%w: unknown code %d", ErrInvalidCommand, int(cmd)))
	}

	if err := sc.collectVotes(); err != nil {
		return err
	}

	switch cmd {
	case Translate:
		sc.transition(TranslationInit)
	case Rotate:
		sc.startRotation()
	}

	if sc.events != nil {
		sc.events.LogCommand(cmd.String(), true, "")
	}
	return nil
}

func (sc *SwarmController) reject(cmd Command, err error) error {
	sc.log.Warnf("rejected: %v", err)
	if sc.events != nil {
		sc.events.LogCommand(cmd.String(), false, err.Error())
	}
	return err
}

func (sc *SwarmController) collectVotes() error {
	var sumTrans, sumRot float64
	for _, m := range sc.members {
		vt, vr, err := m.ComputeVelocities(sc.mode)
		if err != nil {
			return err
		}
		sumTrans += vt
		sumRot += vr
	}

	n := float64(len(sc.members))
	if n == 0 {
		sc.avgTrans, sc.avgRot = 0, 0
		return nil
	}
	sc.avgTrans, sc.avgRot = sumTrans/n, sumRot/n
	sc.log.Debugf("votes averaged: vtrans=%.3f vrot=%.3f", sc.avgTrans, sc.avgRot)
	return nil
}

// RotationSign is the direction a rotate command turns for an averaged rotational
// vote: +1 (clockwise) when positive, otherwise -1
func RotationSign(avgRot float64) float64 {
	if avgRot > 0 {
		return 1
	}
	return -1
}

// startRotation assigns every member the slot one rotation step ahead in the
// direction of the averaged vote and stops the formation.
func (sc *SwarmController) startRotation() {
	sc.rotSign = RotationSign(sc.avgRot)

	next := sc.heading + sc.rotSign*sc.cfg.RotationStep
	n := len(sc.members)
	sc.slotTarget = make([]geom.Vec2, n)
	sc.turnDir = make([]float64, n)
	sc.converged = make([]bool, n)
	for i, m := range sc.members {
		sc.slotTarget[i] = sc.slot(i, next)
		m.Stop()
	}

	sc.transition(RotationReposition)
}

// Run advances the state machine by one tick and returns the resulting state
func (sc *SwarmController) Run() State {
	switch sc.state {
	case TranslationInit:
		for _, m := range sc.members {
			m.Drive(sc.heading, sc.avgTrans)
		}
		sc.center = sc.center.Add(geom.FromAngle(sc.heading).Scale(sc.avgTrans * sc.cfg.TranslationScale))
		sc.transition(TranslationStop)

	case TranslationStop:
		for _, m := range sc.members {
			m.Stop()
		}
		sc.transition(Idle)

	case RotationReposition:
		if sc.allConverged(func(i int, m *Robot) bool { return m.MoveTo(sc.slotTarget[i]) }) {
			sc.heading = geom.WrapAngle(sc.heading + sc.rotSign*sc.cfg.RotationStep)
			for i, m := range sc.members {
				sc.turnDir[i] = geom.Sign(geom.WrapAngle(sc.heading - m.Heading()))
				sc.converged[i] = false
			}
			sc.transition(RotationAlign)
		}

	case RotationAlign:
		if sc.allConverged(func(i int, m *Robot) bool { return m.RotateTo(sc.heading, sc.turnDir[i]) }) {
			sc.clearRotation()
			sc.transition(Idle)
		}
	}

	return sc.state
}

// allConverged steps every unconverged member and reports whether all are done
func (sc *SwarmController) allConverged(step func(i int, m *Robot) bool) bool {
	done := true
	for i, m := range sc.members {
		if sc.converged[i] {
			continue
		}
		sc.converged[i] = step(i, m)
		done = done && sc.converged[i]
	}
	return done
}

func (sc *SwarmController) clearRotation() {
	sc.rotSign = 0
	sc.slotTarget = nil
	sc.turnDir = nil
	sc.converged = nil
}

func (sc *SwarmController) transition(to State) {
	from := sc.state
	sc.state = to
	sc.log.Debugf("%s -> %s", from, to)
	if sc.events != nil {
		sc.events.LogTransition(from.String(), to.String())
	}
}
