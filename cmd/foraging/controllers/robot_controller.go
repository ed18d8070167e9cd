package controllers

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/picogrid/swarm-foraging/cmd/foraging/core"
	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

// ErrUnknownTaskMode is returned when no target exists for a task mode
var ErrUnknownTaskMode = errors.New("unknown task mode")

// TargetLocator resolves a task mode to a world position
type TargetLocator interface {
	TargetFor(mode world.TaskMode) (geom.Vec2, bool)
}

// MotionConfig holds the approach and turn parameters of a robot
type MotionConfig struct {
	MaxSpeed         float64 // units/s when approaching a slot
	ArrivalThreshold float64 // squared distance
	TurnRate         float64 // rad/s
	TurnTolerance    float64 // rad
	TickRate         float64
}

// DefaultMotionConfig mirrors a 50 tick/s simulation
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		MaxSpeed:         10,
		ArrivalThreshold: 0.25,
		TurnRate:         math.Pi / 3,
		TurnTolerance:    0.1,
		TickRate:         50,
	}
}

// Robot wraps one world body with its sensor and fuzzy controller. It is the only
// writer of the body's velocities.
type Robot struct {
	ID    uuid.UUID
	Index int

	body    *world.Body
	sensor  *core.LaserSensor
	flc     *core.RobotFLC
	locator TargetLocator
	motion  MotionConfig
	log     logger.Logger

	vTrans float64
	vRot   float64
}

// NewRobot creates a controller for body
func NewRobot(index int, body *world.Body, sensor *core.LaserSensor, flc *core.RobotFLC, locator TargetLocator, motion MotionConfig) *Robot {
	id := uuid.New()
	return &Robot{
		ID:      id,
		Index:   index,
		body:    body,
		sensor:  sensor,
		flc:     flc,
		locator: locator,
		motion:  motion,
		log:     logger.Named(fmt.Sprintf("robot-%d", index)).WithField("id", id.String()[:8]),
	}
}

func (r *Robot) Position() geom.Vec2 { return r.body.Position }
func (r *Robot) Heading() float64    { return r.body.Heading }
func (r *Robot) Body() *world.Body   { return r.body }

// Status is a diagnostic snapshot of one robot built from its last scan
type Status struct {
	ID       uuid.UUID
	Index    int
	Position geom.Vec2
	Heading  float64
	VTrans   float64
	VRot     float64

	Nearest    core.Reading // shortest reading of the last scan
	AvoidFired bool         // the avoidance rules alone reach a decision
	AvoidVote  float64
}

// Status reports pose, last votes and what the avoidance rules make of the last
// scan. Before the first scan only the pose and votes are set.
func (r *Robot) Status() (Status, error) {
	st := Status{
		ID:       r.ID,
		Index:    r.Index,
		Position: r.body.Position,
		Heading:  r.body.Heading,
		VTrans:   r.vTrans,
		VRot:     r.vRot,
	}

	readings := r.sensor.ScanReadings()
	if len(readings) == 0 {
		return st, nil
	}

	dists := make([]float64, len(readings))
	st.Nearest = readings[0]
	for i, rd := range readings {
		dists[i] = rd.Distance
		if rd.Distance < st.Nearest.Distance {
			st.Nearest = rd
		}
	}

	left, front, right := core.Zones(dists)
	vote, fired, err := r.flc.Avoid(left, front, right)
	if err != nil {
		return st, fmt.Errorf("robot %d: %w", r.Index, err)
	}
	st.AvoidFired, st.AvoidVote = fired, vote
	return st, nil
}

// Velocities returns the last computed (vTrans, vRot) pair
func (r *Robot) Velocities() (float64, float64) { return r.vTrans, r.vRot }

// ComputeVelocities votes a velocity pair toward the entity selected by mode
func (r *Robot) ComputeVelocities(mode world.TaskMode) (float64, float64, error) {
	target, ok := r.locator.TargetFor(mode)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnknownTaskMode, mode)
	}
	return r.VelocitiesToward(target)
}

// VelocitiesToward scans, builds the percept vector and evaluates the fuzzy controller
func (r *Robot) VelocitiesToward(target geom.Vec2) (float64, float64, error) {
	r.sensor.UpdatePose(r.body.Position, r.body.Heading)
	readings := r.sensor.Scan()
	left, front, right := core.Zones(readings)

	p := core.Percept{
		Left:     left,
		Front:    front,
		Right:    right,
		Bearing:  geom.BearingTo(r.body.Position, r.body.Heading, target),
		Distance: r.body.Position.Dist(target),
	}

	vTrans, vRot, err := r.flc.Evaluate(p)
	if err != nil {
		return 0, 0, fmt.Errorf("robot %d: %w", r.Index, err)
	}
	r.vTrans, r.vRot = vTrans, vRot

	r.log.Debugf("percepts %+v -> vtrans=%.3f vrot=%.3f", p, vTrans, vRot)
	return vTrans, vRot, nil
}

// Move drives the body along its heading while turning
func (r *Robot) Move(vTrans, vRot float64) {
	r.body.Velocity = r.body.Forward().Scale(vTrans)
	r.body.AngularVelocity = vRot
}

// Drive moves the body at speed along heading, independent of its own orientation
func (r *Robot) Drive(heading, speed float64) {
	r.body.Velocity = geom.FromAngle(heading).Scale(speed)
	r.body.AngularVelocity = 0
}

// Stop zeroes both velocities
func (r *Robot) Stop() {
	r.body.Velocity = geom.Vec2{}
	r.body.AngularVelocity = 0
}

// MoveTo faces target and approaches it, slowing down near it. It returns true and
// stops once the squared distance is under the arrival threshold.
func (r *Robot) MoveTo(target geom.Vec2) bool {
	delta := target.Sub(r.body.Position)
	if delta.LenSqr() < r.motion.ArrivalThreshold {
		r.Stop()
		return true
	}

	r.body.Heading = delta.Angle()
	speed := math.Min(r.motion.MaxSpeed, delta.Len()*r.motion.TickRate/2)
	r.body.Velocity = r.body.Forward().Scale(speed)
	r.body.AngularVelocity = 0
	return false
}

// RotateTo turns in place in direction (+1 or -1) until the heading is within
// tolerance of angle. It returns true once aligned.
func (r *Robot) RotateTo(angle, direction float64) bool {
	r.body.Velocity = geom.Vec2{}
	if math.Abs(geom.WrapAngle(angle-r.body.Heading)) < r.motion.TurnTolerance {
		r.body.AngularVelocity = 0
		return true
	}
	r.body.AngularVelocity = direction * r.motion.TurnRate
	return false
}

// Place teleports the body, used on episode reset
func (r *Robot) Place(pos geom.Vec2, heading float64) {
	r.body.Position = pos
	r.body.Heading = geom.WrapAngle(heading)
	r.Stop()
	r.vTrans, r.vRot = 0, 0
}
