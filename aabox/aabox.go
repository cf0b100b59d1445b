package aabox

import (
	"math"

	"row-major/whitted/affinetransform"
	"row-major/whitted/ray"
	"row-major/whitted/vmath/vec3"
)

type AABox struct {
	X, Y, Z ray.Span
}

// AccumZeroAABox is the empty box, the identity for MinContainingAABox.
func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

// Infinite covers all of space.
func Infinite() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)},
		Y: ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)},
		Z: ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)},
	}
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

func GrowAABoxToPoint(a AABox, b vec3.T) AABox {
	return MinContainingAABox(a, AABox{
		X: ray.Span{Lo: b[0], Hi: b[0]},
		Y: ray.Span{Lo: b[1], Hi: b[1]},
		Z: ray.Span{Lo: b[2], Hi: b[2]},
	})
}

func (a AABox) Axis(i int) ray.Span {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	}
	return a.Z
}

// Pad grows every side of a finite box by eps plus eps times the magnitude of
// that side's coordinate, absorbing rounding in the transformed bounds.
func (a AABox) Pad(eps float64) AABox {
	pad := func(s ray.Span) ray.Span {
		return ray.Span{
			Lo: s.Lo - eps*(1+math.Abs(s.Lo)),
			Hi: s.Hi + eps*(1+math.Abs(s.Hi)),
		}
	}
	return AABox{X: pad(a.X), Y: pad(a.Y), Z: pad(a.Z)}
}

func (a AABox) IsFinite() bool {
	return a.X.IsFinite() && a.Y.IsFinite() && a.Z.IsFinite()
}

func (a AABox) SurfaceArea() float64 {
	xLen := a.X.Hi - a.X.Lo
	yLen := a.Y.Hi - a.Y.Lo
	zLen := a.Z.Hi - a.Z.Lo
	return 2 * (xLen*yLen + xLen*zLen + yLen*zLen)
}

// Transform returns the world box enclosing the eight transformed corners of a.
// It is only meaningful for finite boxes.
func (a AABox) Transform(t affinetransform.AffineTransform) AABox {
	result := AccumZeroAABox()
	for _, x := range []float64{a.X.Lo, a.X.Hi} {
		for _, y := range []float64{a.Y.Lo, a.Y.Hi} {
			for _, z := range []float64{a.Z.Lo, a.Z.Hi} {
				result = GrowAABoxToPoint(result, affinetransform.TransformPoint(t, vec3.T{x, y, z}))
			}
		}
	}
	return result
}

// RayTestAABox returns the span of ray parameters inside b, or a NaN span if
// the ray misses it.
func RayTestAABox(r ray.Ray, b AABox) ray.Span {
	cover := ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)}

	for i := 0; i < 3; i++ {
		axis := b.Axis(i)

		if r.Direction[i] == 0 {
			// Parallel to this slab; either always inside it or never.
			if r.Origin[i] < axis.Lo || r.Origin[i] > axis.Hi {
				return ray.NaNSpan()
			}
			continue
		}

		cur := ray.Span{
			Lo: (axis.Lo - r.Origin[i]) / r.Direction[i],
			Hi: (axis.Hi - r.Origin[i]) / r.Direction[i],
		}
		if cur.Hi < cur.Lo {
			cur.Lo, cur.Hi = cur.Hi, cur.Lo
		}

		if cur.Lo > cover.Lo {
			cover.Lo = cur.Lo
		}
		if cur.Hi < cover.Hi {
			cover.Hi = cur.Hi
		}
		if cover.Lo > cover.Hi {
			return ray.NaNSpan()
		}
	}

	return cover
}
