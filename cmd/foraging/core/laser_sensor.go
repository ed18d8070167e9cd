package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// ErrInvalidSensor is returned for sensor settings that cannot produce a scan
var ErrInvalidSensor = errors.New("invalid sensor configuration")

// SensorConfig describes the beam fan of a laser range sensor
type SensorConfig struct {
	BeamCount     int
	StartAngle    float64 // radians, relative to the heading
	AngleSpacing  float64 // radians between consecutive beams
	RangeMax      float64
	Steps         int
	BodyRadius    float64
	DistanceSigma float64
	AngleSigma    float64
}

// DefaultSensorConfig is 32 beams from -90 degrees every 6 degrees up to 400 units
func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		BeamCount:     32,
		StartAngle:    -math.Pi / 2,
		AngleSpacing:  6 * math.Pi / 180,
		RangeMax:      400,
		Steps:         100,
		BodyRadius:    10,
		DistanceSigma: 0.5,
		AngleSigma:    0.01,
	}
}

// Validate checks the sensor configuration
func (c SensorConfig) Validate() error {
	if c.BeamCount < 3 {
		return fmt.Errorf("%w: beam count must be at least 3 (got %d)", ErrInvalidSensor, c.BeamCount)
	}
	if c.RangeMax <= 0 {
		return fmt.Errorf("%w: range must be positive", ErrInvalidSensor)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive", ErrInvalidSensor)
	}
	if c.BodyRadius < 0 {
		return fmt.Errorf("%w: body radius cannot be negative", ErrInvalidSensor)
	}
	if c.DistanceSigma < 0 || c.AngleSigma < 0 {
		return fmt.Errorf("%w: noise sigmas cannot be negative", ErrInvalidSensor)
	}
	if (c.DistanceSigma == 0) != (c.AngleSigma == 0) {
		return fmt.Errorf("%w: noise sigmas must both be zero or both be positive", ErrInvalidSensor)
	}
	return nil
}

// Reading is one noisy beam measurement
type Reading struct {
	Distance float64
	Angle    float64
}

// LaserSensor samples beams against a world surface
type LaserSensor struct {
	cfg      SensorConfig
	surface  world.Surface
	noise    *distmv.Normal
	position geom.Vec2
	heading  float64
	last     []Reading
}

// NewLaserSensor creates a sensor. src drives the noise model and may be nil only
// when both sigmas are zero.
func NewLaserSensor(cfg SensorConfig, surface world.Surface, src rand.Source) (*LaserSensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &LaserSensor{cfg: cfg, surface: surface}
	if cfg.DistanceSigma > 0 {
		if src == nil {
			return nil, fmt.Errorf("%w: noise needs a random source", ErrInvalidSensor)
		}
		cov := mat.NewSymDense(2, []float64{
			cfg.DistanceSigma * cfg.DistanceSigma, 0,
			0, cfg.AngleSigma * cfg.AngleSigma,
		})
		normal, ok := distmv.NewNormal([]float64{0, 0}, cov, src)
		if !ok {
			return nil, fmt.Errorf("%w: noise covariance is not positive definite", ErrInvalidSensor)
		}
		s.noise = normal
	}
	return s, nil
}

func (s *LaserSensor) Config() SensorConfig { return s.cfg }

// UpdatePose stores the pose used by the next scan
func (s *LaserSensor) UpdatePose(position geom.Vec2, heading float64) {
	s.position = position
	s.heading = heading
}

// Scan returns one distance per beam, in angular order, each in [0, RangeMax].
func (s *LaserSensor) Scan() []float64 {
	n := s.cfg.BeamCount
	distances := make([]float64, n)
	s.last = make([]Reading, n)

	for i := 0; i < n; i++ {
		angle := s.heading + s.cfg.StartAngle + float64(i)*s.cfg.AngleSpacing
		d := s.castBeam(angle)

		if s.noise != nil {
			jitter := s.noise.Rand(nil)
			d += jitter[0]
			angle += jitter[1]
		}

		d = geom.Clamp(d, 0, s.cfg.RangeMax)
		distances[i] = d
		s.last[i] = Reading{Distance: d, Angle: geom.WrapAngle(angle)}
	}
	return distances
}

// ScanReadings returns the (distance, angle) pairs of the last scan
func (s *LaserSensor) ScanReadings() []Reading {
	out := make([]Reading, len(s.last))
	copy(out, s.last)
	return out
}

// castBeam walks one beam from the body edge and returns the distance to the first
// non-background sample. Samples outside the arena count as free space.
func (s *LaserSensor) castBeam(angle float64) float64 {
	origin := geom.Polar(s.position, s.cfg.BodyRadius, angle)
	end := geom.Polar(origin, s.cfg.RangeMax, angle)

	for k := 1; k <= s.cfg.Steps; k++ {
		u := float64(k) / float64(s.cfg.Steps)
		p := geom.Lerp(origin, end, u)

		marker, inBounds := s.surface.MarkerAt(p)
		if !inBounds {
			continue
		}
		if marker != world.Background {
			return u * s.cfg.RangeMax
		}
	}
	return s.cfg.RangeMax
}

// Zones splits readings into left, front and right thirds and returns the minimum
// of each. The front zone absorbs the remainder.
func Zones(readings []float64) (left, front, right float64) {
	n := len(readings)
	a := n / 3
	b := n - a
	return minOf(readings[:a]), minOf(readings[a:b]), minOf(readings[b:])
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}
