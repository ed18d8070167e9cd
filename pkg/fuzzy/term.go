package fuzzy

import (
	"fmt"
	"math"
)

// SingletonTolerance is the absolute tolerance used when matching a singleton point.
// Exact float equality on singletons is unreliable.
const SingletonTolerance = 1e-9

// Shape is a membership function. Implementations return values in [0, 1].
type Shape interface {
	Membership(x float64) float64
	validate() error
}

// Linear is the clamped ramp m*x + b.
type Linear struct {
	M, B float64
}

// Ramp builds a Linear shape that is 0 at zero and 1 at one. zero > one gives a falling ramp.
func Ramp(zero, one float64) Linear {
	if zero == one {
		return Linear{M: math.NaN()}
	}
	m := 1 / (one - zero)
	return Linear{M: m, B: -m * zero}
}

func (l Linear) Membership(x float64) float64 {
	return clamp01(l.M*x + l.B)
}

func (l Linear) validate() error {
	if isBad(l.M) || isBad(l.B) {
		return fmt.Errorf("%w: linear coefficients must be finite (m=%g b=%g)", ErrInvalidShape, l.M, l.B)
	}
	return nil
}

// Triangular rises from Low to Peak and falls to High.
type Triangular struct {
	Low, Peak, High float64
}

func (tr Triangular) Membership(x float64) float64 {
	switch {
	case x <= tr.Low || x >= tr.High:
		return 0
	case x == tr.Peak:
		return 1
	case x < tr.Peak:
		return (x - tr.Low) / (tr.Peak - tr.Low)
	default:
		return (tr.High - x) / (tr.High - tr.Peak)
	}
}

func (tr Triangular) validate() error {
	if isBad(tr.Low) || isBad(tr.Peak) || isBad(tr.High) {
		return fmt.Errorf("%w: triangular vertices must be finite", ErrInvalidShape)
	}
	if !(tr.Low < tr.Peak && tr.Peak < tr.High) {
		return fmt.Errorf("%w: triangular vertices not strictly ordered (%g, %g, %g)",
			ErrInvalidShape, tr.Low, tr.Peak, tr.High)
	}
	return nil
}

// Singleton is full at Point (within SingletonTolerance) and none elsewhere.
type Singleton struct {
	Point float64
	None  float64
	Full  float64
}

// Crisp returns a singleton with the usual levels 0 and 1
func Crisp(point float64) Singleton {
	return Singleton{Point: point, None: 0, Full: 1}
}

func (s Singleton) Membership(x float64) float64 {
	if math.Abs(x-s.Point) <= SingletonTolerance {
		return s.Full
	}
	return s.None
}

func (s Singleton) validate() error {
	if isBad(s.Point) {
		return fmt.Errorf("%w: singleton point must be finite", ErrInvalidShape)
	}
	if !(0 <= s.None && s.None < s.Full && s.Full <= 1) {
		return fmt.Errorf("%w: singleton levels must satisfy 0 <= none < full <= 1 (none=%g full=%g)",
			ErrInvalidShape, s.None, s.Full)
	}
	return nil
}

// Term is a named membership function bound to one domain.
type Term struct {
	name   string
	domain *Domain
	shape  Shape
}

func (t *Term) Name() string    { return t.name }
func (t *Term) Domain() *Domain { return t.domain }
func (t *Term) Shape() Shape    { return t.shape }
func (t *Term) String() string  { return t.domain.name + "." + t.name }

// Membership evaluates the term at x
func (t *Term) Membership(x float64) float64 {
	return t.shape.Membership(x)
}

// CenterOfGravityIndex is the membership-weighted mean sample index over the
// domain's discretized range. A curve that is zero on every sample has index 0.
func (t *Term) CenterOfGravityIndex() float64 {
	n := t.domain.SampleCount()
	var num, den float64
	for i := 0; i < n; i++ {
		w := t.shape.Membership(t.domain.Sample(i))
		num += float64(i) * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// singletonPoint returns the level of a singleton consequent
func (t *Term) singletonPoint() (float64, bool) {
	s, ok := t.shape.(Singleton)
	if !ok {
		return 0, false
	}
	return s.Point, true
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
