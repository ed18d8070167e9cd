// Package world is a minimal kinematic arena for the foraging swarm. It integrates
// commanded velocities, pushes the object on contact and answers the point queries
// the range sensor and the environment need.
package world

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/picogrid/swarm-foraging/pkg/geom"
)

// Marker is what a point query sees at a location
type Marker uint8

const (
	Background Marker = iota
	RobotMarker
	ObjectMarker
)

func (m Marker) String() string {
	switch m {
	case Background:
		return "background"
	case RobotMarker:
		return "robot"
	case ObjectMarker:
		return "object"
	default:
		return fmt.Sprintf("marker(%d)", uint8(m))
	}
}

// Surface answers point queries. The bool is false outside the arena.
type Surface interface {
	MarkerAt(p geom.Vec2) (Marker, bool)
}

// TaskMode selects which entity a robot steers toward
type TaskMode int

const (
	ModeObject TaskMode = 1
	ModeHome   TaskMode = 2
)

func (m TaskMode) String() string {
	switch m {
	case ModeObject:
		return "object"
	case ModeHome:
		return "home"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Body is a circular rigid body driven by commanded velocities.
type Body struct {
	Position        geom.Vec2
	Heading         float64
	Radius          float64
	Velocity        geom.Vec2
	AngularVelocity float64
	Marker          Marker
}

// Forward is the unit vector along the body heading
func (b *Body) Forward() geom.Vec2 {
	return geom.FromAngle(b.Heading)
}

// Contains reports whether p lies inside the body
func (b *Body) Contains(p geom.Vec2) bool {
	return b.Position.Sub(p).LenSqr() <= b.Radius*b.Radius
}

// Config describes the arena
type Config struct {
	Width      float64
	Height     float64
	TickRate   float64
	ObjectSide float64
	GoalRadius float64
}

// DefaultConfig is the 500x500 board at 50 ticks per second
func DefaultConfig() Config {
	return Config{
		Width:      500,
		Height:     500,
		TickRate:   50,
		ObjectSide: 20,
		GoalRadius: 30,
	}
}

// World holds the robots, the object and the home base
type World struct {
	cfg    Config
	robots []*Body
	object *Body
	home   geom.Vec2
}

// New creates an empty world. The object starts at the arena center until placed.
func New(cfg Config) *World {
	return &World{
		cfg: cfg,
		object: &Body{
			Position: geom.Vec2{X: cfg.Width / 2, Y: cfg.Height / 2},
			Radius:   cfg.ObjectSide / 2,
			Marker:   ObjectMarker,
		},
	}
}

func (w *World) Config() Config { return w.cfg }

// Dt is the duration of one tick in seconds
func (w *World) Dt() float64 {
	if w.cfg.TickRate <= 0 {
		return 0
	}
	return 1 / w.cfg.TickRate
}

// AddRobot places a new robot body in the world
func (w *World) AddRobot(pos geom.Vec2, heading, radius float64) *Body {
	b := &Body{
		Position: pos,
		Heading:  geom.WrapAngle(heading),
		Radius:   radius,
		Marker:   RobotMarker,
	}
	w.robots = append(w.robots, b)
	return b
}

// ClearRobots removes every robot body
func (w *World) ClearRobots() {
	w.robots = nil
}

func (w *World) Robots() []*Body { return w.robots }

func (w *World) Object() *Body { return w.object }

// PlaceObject moves the object to pos and zeroes its motion
func (w *World) PlaceObject(pos geom.Vec2) {
	w.object.Position = pos
	w.object.Velocity = geom.Vec2{}
	w.object.AngularVelocity = 0
}

func (w *World) Home() geom.Vec2 { return w.home }

func (w *World) SetHome(pos geom.Vec2) { w.home = pos }

// Step integrates every robot by dt and resolves robot/object contacts.
func (w *World) Step(dt float64) {
	for _, r := range w.robots {
		r.Position = r.Position.Add(r.Velocity.Scale(dt))
		r.Heading = geom.WrapAngle(r.Heading + r.AngularVelocity*dt)
	}

	for _, r := range w.robots {
		w.push(r)
	}
}

// push moves the object out of a robot it overlaps, along the line between centers
func (w *World) push(r *Body) {
	delta := w.object.Position.Sub(r.Position)
	minDist := r.Radius + w.object.Radius
	dist := delta.Len()
	if dist >= minDist {
		return
	}

	dir := delta.Normalize()
	if dist == 0 {
		dir = r.Forward()
	}
	w.object.Position = w.object.Position.Add(dir.Scale(minDist - dist))
}

// MarkerAt implements Surface. Robots and the object are solid; everything else
// inside the arena is background.
func (w *World) MarkerAt(p geom.Vec2) (Marker, bool) {
	if !w.Contains(p) {
		return Background, false
	}

	half := w.cfg.ObjectSide / 2
	o := w.object.Position
	if math.Abs(p.X-o.X) <= half && math.Abs(p.Y-o.Y) <= half {
		return ObjectMarker, true
	}

	for _, r := range w.robots {
		if r.Contains(p) {
			return RobotMarker, true
		}
	}
	return Background, true
}

// Contains reports whether p lies strictly inside the arena
func (w *World) Contains(p geom.Vec2) bool {
	return p.X > 0 && p.X < w.cfg.Width && p.Y > 0 && p.Y < w.cfg.Height
}

// InGoal reports whether p lies inside the home base region
func (w *World) InGoal(p geom.Vec2) bool {
	return p.Sub(w.home).LenSqr() <= w.cfg.GoalRadius*w.cfg.GoalRadius
}

// TargetFor returns the position a robot steers to in the given mode
func (w *World) TargetFor(mode TaskMode) (geom.Vec2, bool) {
	switch mode {
	case ModeObject:
		return w.object.Position, true
	case ModeHome:
		return w.home, true
	default:
		return geom.Vec2{}, false
	}
}

// RandomLayout picks an object position in the top-right region and a home base in
// the bottom-left region of the board.
func RandomLayout(cfg Config, rng *rand.Rand) (object, home geom.Vec2) {
	w, h := cfg.Width, cfg.Height

	object = geom.Vec2{
		X: uniform(rng, w-w/5, w-(w/5-w/25)),
		Y: uniform(rng, h/5-h/25, h/5+h/25),
	}
	home = geom.Vec2{
		X: uniform(rng, w/10, w/5-w/25),
		Y: uniform(rng, h-h/5, h-(h/5-h/25)),
	}
	return object, home
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round(lo + rng.Float64()*(hi-lo))
}
