package world

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIntegratesVelocities(t *testing.T) {
	w := New(DefaultConfig())
	b := w.AddRobot(geom.Vec2{X: 100, Y: 100}, 0, 10)
	b.Velocity = geom.Vec2{X: 50}
	b.AngularVelocity = math.Pi

	for i := 0; i < 50; i++ {
		w.Step(w.Dt())
	}

	assert.InDelta(t, 150, b.Position.X, 1e-9)
	assert.InDelta(t, 100, b.Position.Y, 1e-9)
	assert.InDelta(t, math.Pi, math.Abs(b.Heading), 1e-9)
}

func TestStepPushesObject(t *testing.T) {
	w := New(DefaultConfig())
	w.PlaceObject(geom.Vec2{X: 200, Y: 200})
	b := w.AddRobot(geom.Vec2{X: 175, Y: 200}, 0, 10)
	b.Velocity = geom.Vec2{X: 100}

	for i := 0; i < 25; i++ {
		w.Step(w.Dt())
	}

	// robot advanced 50, object kept one contact distance ahead
	assert.InDelta(t, 225, b.Position.X, 1e-9)
	assert.InDelta(t, 245, w.Object().Position.X, 1e-9)
	assert.InDelta(t, 200, w.Object().Position.Y, 1e-9)
}

func TestMarkerAt(t *testing.T) {
	w := New(DefaultConfig())
	w.PlaceObject(geom.Vec2{X: 400, Y: 100})
	w.AddRobot(geom.Vec2{X: 100, Y: 100}, 0, 10)

	tests := []struct {
		name     string
		p        geom.Vec2
		want     Marker
		inBounds bool
	}{
		{"object corner", geom.Vec2{X: 409, Y: 91}, ObjectMarker, true},
		{"robot", geom.Vec2{X: 105, Y: 105}, RobotMarker, true},
		{"free", geom.Vec2{X: 250, Y: 250}, Background, true},
		{"outside", geom.Vec2{X: -1, Y: 250}, Background, false},
		{"on the edge", geom.Vec2{X: 500, Y: 250}, Background, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := w.MarkerAt(tt.p)
			assert.Equal(t, tt.want, m)
			assert.Equal(t, tt.inBounds, ok)
		})
	}
}

func TestTargetFor(t *testing.T) {
	w := New(DefaultConfig())
	w.PlaceObject(geom.Vec2{X: 410, Y: 100})
	w.SetHome(geom.Vec2{X: 60, Y: 410})

	p, ok := w.TargetFor(ModeObject)
	require.True(t, ok)
	assert.Equal(t, geom.Vec2{X: 410, Y: 100}, p)

	p, ok = w.TargetFor(ModeHome)
	require.True(t, ok)
	assert.Equal(t, geom.Vec2{X: 60, Y: 410}, p)

	_, ok = w.TargetFor(TaskMode(7))
	assert.False(t, ok)

	assert.True(t, w.InGoal(geom.Vec2{X: 70, Y: 420}))
	assert.False(t, w.InGoal(geom.Vec2{X: 200, Y: 410}))
}

func TestRandomLayout(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 100; i++ {
		obj, home := RandomLayout(cfg, rng)
		assert.True(t, obj.X >= 400 && obj.X <= 420, "object x %v", obj.X)
		assert.True(t, obj.Y >= 80 && obj.Y <= 120, "object y %v", obj.Y)
		assert.True(t, home.X >= 50 && home.X <= 80, "home x %v", home.X)
		assert.True(t, home.Y >= 400 && home.Y <= 420, "home y %v", home.Y)
	}

	a1, b1 := RandomLayout(cfg, rand.New(rand.NewPCG(7, 7)))
	a2, b2 := RandomLayout(cfg, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}
