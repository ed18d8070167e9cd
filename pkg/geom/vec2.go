package geom

import "math"

// Vec2 represents a point or direction in the 2D simulation plane.
// Screen convention: x grows right, y grows down, so a positive angle turns clockwise.
type Vec2 struct {
	X, Y float64
}

// FromAngle returns the unit vector pointing along angle (radians)
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Polar returns the point at distance r from center along angle
func Polar(center Vec2, r, angle float64) Vec2 {
	return center.Add(FromAngle(angle).Scale(r))
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// LenSqr returns the squared length, avoiding the square root for threshold checks
func (v Vec2) LenSqr() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between two points
func (v Vec2) Dist(o Vec2) float64 { return o.Sub(v).Len() }

// Angle returns the direction of v in radians, in (-pi, pi]
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Normalize returns the unit vector of v, or the zero vector when v has no length
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Lerp interpolates between a and b; u=0 yields a and u=1 yields b
func Lerp(a, b Vec2, u float64) Vec2 {
	return Vec2{X: (1-u)*a.X + u*b.X, Y: (1-u)*a.Y + u*b.Y}
}

// WrapAngle wraps an angle into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// BearingTo returns the heading error from an observer at pos facing heading
// toward target, wrapped into (-pi, pi]. Positive means the target lies clockwise.
func BearingTo(pos Vec2, heading float64, target Vec2) float64 {
	return WrapAngle(target.Sub(pos).Angle() - heading)
}

// Sign returns +1 for non-negative values and -1 otherwise
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
