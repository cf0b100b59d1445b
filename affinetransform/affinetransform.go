// Package affinetransform describes how a primitive's model space is placed in
// world space.
package affinetransform

import (
	"math"

	"row-major/whitted/vmath/mat33"
	"row-major/whitted/vmath/mat44"
	"row-major/whitted/vmath/vec3"
)

type AffineTransform struct {
	Linear mat33.T
	Offset vec3.T
}

func Identity() AffineTransform {
	return AffineTransform{
		Linear: mat33.Identity(),
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Scale(s float64) AffineTransform {
	return ScaleXYZ(vec3.T{s, s, s})
}

// ScaleXYZ scales each axis independently.
func ScaleXYZ(s vec3.T) AffineTransform {
	return AffineTransform{
		Linear: mat33.T{Elts: [9]float64{s[0], 0.0, 0.0, 0.0, s[1], 0.0, 0.0, 0.0, s[2]}},
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Translate(x vec3.T) AffineTransform {
	result := Identity()
	result.Offset = x
	return result
}

// Rotate is a right-handed rotation of angle radians about axis.
func Rotate(axis vec3.T, angle float64) AffineTransform {
	a := vec3.Normalize(axis)
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	x, y, z := a[0], a[1], a[2]
	return AffineTransform{
		Linear: mat33.T{Elts: [9]float64{
			t*x*x + c, t*x*y - s*z, t*x*z + s*y,
			t*x*y + s*z, t*y*y + c, t*y*z - s*x,
			t*x*z - s*y, t*y*z + s*x, t*z*z + c,
		}},
	}
}

// Compose returns the transform that applies b, then a.
func Compose(a, b AffineTransform) AffineTransform {
	return AffineTransform{
		Linear: mat33.MulMM(a.Linear, b.Linear),
		Offset: vec3.AddVV(a.Offset, mat33.MulMV(a.Linear, b.Offset)),
	}
}

func (t AffineTransform) Mat44() mat44.T {
	l := t.Linear.Elts
	return mat44.T{
		l[0], l[1], l[2], t.Offset[0],
		l[3], l[4], l[5], t.Offset[1],
		l[6], l[7], l[8], t.Offset[2],
		0, 0, 0, 1,
	}
}

// Invert returns the inverse transform, and false if the linear part is
// singular.
func (t AffineTransform) Invert() (AffineTransform, bool) {
	inv, ok := mat44.Inverse(t.Mat44())
	if !ok {
		return AffineTransform{}, false
	}

	return AffineTransform{
		Linear: mat44.Upper33(inv),
		Offset: vec3.T{inv[3], inv[7], inv[11]},
	}, true
}

// NormalTransformMat is the transpose inverse of the linear part, which maps
// model-space normals to world-space normals even under non-uniform scale.
func (t AffineTransform) NormalTransformMat() (mat33.T, bool) {
	inv, ok := mat33.Inverse(t.Linear)
	if !ok {
		return mat33.T{}, false
	}
	return mat33.Transpose(inv), true
}

func TransformPoint(a AffineTransform, b vec3.T) vec3.T {
	return vec3.AddVV(mat33.MulMV(a.Linear, b), a.Offset)
}
