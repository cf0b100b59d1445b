package ray

import (
	"math"

	"row-major/whitted/vmath/mat44"
	"row-major/whitted/vmath/vec3"
)

// Span is an interval of ray parameters.
type Span struct {
	Lo, Hi float64
}

func NaNSpan() Span {
	return Span{math.NaN(), math.NaN()}
}

func SpanOverlaps(a, b Span) bool {
	return !(a.Lo > b.Hi || a.Hi <= b.Lo)
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) IsFinite() bool {
	return !math.IsInf(s.Lo, 0) && !math.IsInf(s.Hi, 0)
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Ray is a half-line.  Direction need not be unit length; parametric times are
// measured in multiples of it.
type Ray struct {
	Origin    vec3.T
	Direction vec3.T
}

func New(origin, direction vec3.T) Ray {
	return Ray{Origin: origin, Direction: direction}
}

func (r *Ray) At(t float64) vec3.T {
	return vec3.T{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// ApplyTransform maps the ray through m: the origin as a point, the direction
// as a vector.  The direction is not renormalized, so a hit
// at time t in the transformed frame is the same point as time t in the
// original frame.
func (r *Ray) ApplyTransform(m mat44.T) {
	r.Origin = mat44.MulPoint(m, r.Origin)
	r.Direction = mat44.MulDir(m, r.Direction)
}

// Transformed is ApplyTransform on a copy.
func (r Ray) Transformed(m mat44.T) Ray {
	r.ApplyTransform(m)
	return r
}
