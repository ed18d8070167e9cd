package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/fuzzy"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wall is solid for x >= at, inside a 1000x1000 arena
type wall struct{ at float64 }

func (w wall) MarkerAt(p geom.Vec2) (world.Marker, bool) {
	if p.X < 0 || p.Y < 0 || p.X > 1000 || p.Y > 1000 {
		return world.Background, false
	}
	if p.X >= w.at {
		return world.ObjectMarker, true
	}
	return world.Background, true
}

func noiseless() SensorConfig {
	cfg := DefaultSensorConfig()
	cfg.DistanceSigma = 0
	cfg.AngleSigma = 0
	return cfg
}

func TestScanHitsWall(t *testing.T) {
	s, err := NewLaserSensor(noiseless(), wall{at: 200}, nil)
	require.NoError(t, err)

	s.UpdatePose(geom.Vec2{X: 100, Y: 100}, 0)
	readings := s.Scan()
	require.Len(t, readings, 32)

	// beam 15 points along the heading: first solid sample at x=202
	assert.InDelta(t, 92, readings[15], 1e-9)
	// beam 0 points straight left of the heading and never reaches the wall
	assert.Equal(t, 400.0, readings[0])

	for i, r := range readings {
		assert.GreaterOrEqual(t, r, 0.0, "beam %d", i)
		assert.LessOrEqual(t, r, 400.0, "beam %d", i)
	}
}

func TestScanOutOfBoundsIsMaxRange(t *testing.T) {
	s, err := NewLaserSensor(noiseless(), wall{at: 5000}, nil)
	require.NoError(t, err)

	s.UpdatePose(geom.Vec2{X: 990, Y: 500}, 0)
	for _, r := range s.Scan() {
		assert.Equal(t, 400.0, r)
	}
}

func TestScanWithNoise(t *testing.T) {
	scan := func(seed uint64) []float64 {
		s, err := NewLaserSensor(DefaultSensorConfig(), wall{at: 112}, rand.NewPCG(seed, seed))
		require.NoError(t, err)
		s.UpdatePose(geom.Vec2{X: 100, Y: 100}, 0)
		return s.Scan()
	}

	a := scan(3)
	require.Len(t, a, 32)
	for _, r := range a {
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 400.0)
	}
	assert.Equal(t, a, scan(3), "same seed must give the same scan")
	assert.NotEqual(t, a, scan(4))
}

func TestScanReadings(t *testing.T) {
	s, err := NewLaserSensor(noiseless(), wall{at: 200}, nil)
	require.NoError(t, err)
	s.UpdatePose(geom.Vec2{X: 100, Y: 100}, math.Pi/2)
	s.Scan()

	readings := s.ScanReadings()
	require.Len(t, readings, 32)
	assert.InDelta(t, 0, readings[0].Angle, 1e-9)
	assert.InDelta(t, 92, readings[0].Distance, 1e-9)
}

func TestSensorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SensorConfig)
	}{
		{"too few beams", func(c *SensorConfig) { c.BeamCount = 2 }},
		{"zero range", func(c *SensorConfig) { c.RangeMax = 0 }},
		{"zero steps", func(c *SensorConfig) { c.Steps = 0 }},
		{"negative sigma", func(c *SensorConfig) { c.DistanceSigma = -1 }},
		{"one sigma", func(c *SensorConfig) { c.AngleSigma = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSensorConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidSensor)
		})
	}

	_, err := NewLaserSensor(DefaultSensorConfig(), wall{}, nil)
	assert.ErrorIs(t, err, ErrInvalidSensor)
}

func TestZones(t *testing.T) {
	readings := make([]float64, 32)
	for i := range readings {
		readings[i] = 400
	}
	readings[9] = 10
	readings[21] = 20
	readings[22] = 30

	left, front, right := Zones(readings)
	assert.Equal(t, 10.0, left)
	assert.Equal(t, 20.0, front)
	assert.Equal(t, 30.0, right)
}

func TestZonesSplitEvenly(t *testing.T) {
	tests := []struct {
		beams                  int
		left, front, rightSize int
	}{
		{30, 10, 10, 10},
		{31, 10, 11, 10},
		{32, 10, 12, 10},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d beams", tt.beams), func(t *testing.T) {
			readings := make([]float64, tt.beams)
			for i := range readings {
				readings[i] = float64(i)
			}
			// each zone minimum is its first index, so the boundaries show through
			left, front, right := Zones(readings)
			assert.Equal(t, 0.0, left)
			assert.Equal(t, float64(tt.left), front)
			assert.Equal(t, float64(tt.left+tt.front), right)
			assert.Equal(t, tt.rightSize, tt.beams-int(right))
		})
	}
}

func TestRobotFLCScenarios(t *testing.T) {
	flc, err := NewRobotFLC(DefaultFLCConfig())
	require.NoError(t, err)

	t.Run("clear and facing the target", func(t *testing.T) {
		_, vRot, err := flc.Evaluate(Percept{Left: 100, Front: 100, Right: 100, Bearing: 0, Distance: 0})
		require.NoError(t, err)
		assert.InDelta(t, 0, vRot, 1e-9)
	})

	t.Run("obstacle on the left turns right", func(t *testing.T) {
		v, fired, err := flc.Avoid(10, 100, 300)
		require.NoError(t, err)
		require.True(t, fired)
		assert.InDelta(t, 2, v, 1e-9)

		_, vRot, err := flc.Evaluate(Percept{Left: 10, Front: 100, Right: 300, Bearing: 0, Distance: 200})
		require.NoError(t, err)
		assert.Greater(t, vRot, 0.0)
	})

	t.Run("obstacle ahead with open left turns left", func(t *testing.T) {
		v, fired, err := flc.Avoid(400, 10, 50)
		require.NoError(t, err)
		require.True(t, fired)
		assert.Less(t, v, 0.0)
	})

	t.Run("bearing drives rotation sign", func(t *testing.T) {
		_, vRot, err := flc.Evaluate(Percept{Left: 400, Front: 400, Right: 400, Bearing: math.Pi / 3, Distance: 30})
		require.NoError(t, err)
		assert.Greater(t, vRot, 0.0)

		_, vRot, err = flc.Evaluate(Percept{Left: 400, Front: 400, Right: 400, Bearing: -math.Pi / 3, Distance: 30})
		require.NoError(t, err)
		assert.Less(t, vRot, 0.0)
	})

	t.Run("translation follows distance", func(t *testing.T) {
		vTrans, _, err := flc.Evaluate(Percept{Left: 400, Front: 400, Right: 400, Distance: 0})
		require.NoError(t, err)
		assert.InDelta(t, 0, vTrans, 1e-9)

		vTrans, _, err = flc.Evaluate(Percept{Left: 400, Front: 400, Right: 400, Distance: 600})
		require.NoError(t, err)
		assert.Greater(t, vTrans, 20.0)
		assert.LessOrEqual(t, vTrans, 40.0)
	})

	t.Run("rotation output stays within the singleton levels", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(9, 9))
		for i := 0; i < 200; i++ {
			p := Percept{
				Left:     rng.Float64() * 400,
				Front:    rng.Float64() * 400,
				Right:    rng.Float64() * 400,
				Bearing:  (rng.Float64()*2 - 1) * math.Pi,
				Distance: rng.Float64() * 800,
			}
			_, vRot, err := flc.Evaluate(p)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, vRot, -2.0)
			assert.LessOrEqual(t, vRot, 2.0)
		}
	})
}

func TestRobotFLCRuleSets(t *testing.T) {
	flc, err := NewRobotFLC(DefaultFLCConfig())
	require.NoError(t, err)

	sets := flc.RuleSets()
	require.Len(t, sets, 4)
	assert.Equal(t, sets[0].Len()+2*sets[1].Len(), sets[2].Len())
	for _, rs := range sets {
		_, err := rs.OutputDomain()
		assert.NoError(t, err, rs.Name())
	}

	_, err = NewRobotFLC(FLCConfig{PerceptionRange: 100, DistanceRange: 800})
	assert.ErrorIs(t, err, fuzzy.ErrConfiguration)
}

func TestRobotFLCRejectsShortPerceptionRange(t *testing.T) {
	for _, r := range []float64{80, FarFrom} {
		cfg := DefaultFLCConfig()
		cfg.PerceptionRange = r
		_, err := NewRobotFLC(cfg)
		assert.ErrorIs(t, err, ErrInvalidController, "range %g", r)
	}

	cfg := DefaultFLCConfig()
	cfg.DistanceRange = 0
	_, err := NewRobotFLC(cfg)
	assert.ErrorIs(t, err, ErrInvalidController)

	cfg = DefaultFLCConfig()
	cfg.PerceptionRange = FarFrom + 1
	flc, err := NewRobotFLC(cfg)
	require.NoError(t, err)
	left, ok := flc.System().Domain("left")
	require.True(t, ok)
	far := left.MustTerm("far")
	assert.Equal(t, 0.0, far.Membership(10), "a near obstacle is never far")
}
