// Package vec3 holds the 3-vector used for points, directions, normals and RGB
// colors throughout the tracer.
package vec3

import "math"

type T [3]float64

func Zero() T {
	return T{}
}

func Splat(s float64) T {
	return T{s, s, s}
}

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize returns v scaled to unit length.  A zero vector has no direction,
// so it is returned unchanged rather than turned into NaNs.
func Normalize(v T) T {
	l := v.Norm()
	if l == 0 {
		return v
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the componentwise product, used to filter light colors through
// material coefficients.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Reject returns the component of b that is orthogonal to A.
func Reject(a, b T) T {
	return SubVV(b, MulVS(Normalize(a), IProd(a, b)/a.Norm()))
}

// Reflect mirrors the incoming direction a about the unit normal n.
func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

func (v T) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

func (v T) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Sanitize zeroes any NaN or infinite components.
func Sanitize(v T) T {
	for i, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			v[i] = 0
		}
	}
	return v
}

func Clamp(v T, lo, hi float64) T {
	for i := range v {
		if v[i] < lo {
			v[i] = lo
		}
		if v[i] > hi {
			v[i] = hi
		}
	}
	return v
}
