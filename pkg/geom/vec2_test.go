package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"minus pi maps to pi", -math.Pi, math.Pi},
		{"three halves pi", 1.5 * math.Pi, -0.5 * math.Pi},
		{"full turn", 2 * math.Pi, 0},
		{"negative over turn", -2.5 * math.Pi, -0.5 * math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapAngle(tt.in)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.True(t, got > -math.Pi && got <= math.Pi, "wrapped angle %v out of range", got)
		})
	}
}

func TestBearingTo(t *testing.T) {
	origin := Vec2{}

	assert.InDelta(t, 0, BearingTo(origin, 0, Vec2{X: 10}), 1e-12)
	assert.InDelta(t, math.Pi/2, BearingTo(origin, 0, Vec2{Y: 10}), 1e-12)
	assert.InDelta(t, -math.Pi/2, BearingTo(origin, math.Pi, Vec2{Y: 10}), 1e-12)
}

func TestPolarLiesOnCircle(t *testing.T) {
	center := Vec2{X: 100, Y: 50}
	for _, a := range []float64{0, 0.3, math.Pi, -2} {
		p := Polar(center, 20, a)
		assert.InDelta(t, 20, center.Dist(p), 1e-9)
	}
}

func TestNormalizeZero(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
	assert.InDelta(t, 1, Vec2{X: 3, Y: 4}.Normalize().Len(), 1e-12)
}
