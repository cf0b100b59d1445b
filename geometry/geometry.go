// Package geometry holds the primitives a ray can hit.  Every primitive is
// intersected in its own model space; placing it in the world is the scene's
// job.
package geometry

import (
	"math"

	"row-major/whitted/aabox"
	"row-major/whitted/hit"
	"row-major/whitted/ray"
	"row-major/whitted/vmath/vec3"
)

// Hittable is implemented by every primitive.
type Hittable interface {
	// Intersect tests r, given in model space, against the primitive.  It
	// returns true and overwrites rec only for a hit at time t with
	// tMin < t < rec.Time.  Otherwise it returns false and leaves rec alone.
	Intersect(r ray.Ray, tMin float64, rec *hit.Record) bool

	// Bounds is the model-space bounding box.  Unbounded primitives return an
	// infinite box.
	Bounds() aabox.AABox
}

// accept reports whether t is a usable hit time for the current search.
func accept(t, tMin float64, rec *hit.Record) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0) && t > tMin && t < rec.Time
}

// Plane is the set of points P with dot(Normal, P) + Offset = 0.  Normal is
// taken to face outward; it is reported as-is (normalized) for every hit.
type Plane struct {
	Normal vec3.T
	Offset float64
}

func (p *Plane) Bounds() aabox.AABox {
	return aabox.Infinite()
}

func (p *Plane) Intersect(r ray.Ray, tMin float64, rec *hit.Record) bool {
	if p.Normal.IsZero() {
		return false
	}

	denom := vec3.IProd(p.Normal, r.Direction)
	if denom == 0 {
		// Parallel to the plane.
		return false
	}

	t := -(p.Offset + vec3.IProd(p.Normal, r.Origin)) / denom
	if !accept(t, tMin, rec) {
		return false
	}

	rec.Time = t
	rec.Normal = vec3.Normalize(p.Normal)
	return true
}

// Triangle is a triangle with per-vertex normals, shaded smoothly by
// barycentric interpolation of the normals.
type Triangle struct {
	Positions [3]vec3.T
	Normals   [3]vec3.T
}

// NewFlatTriangle builds a triangle whose vertex normals all equal the face
// normal, wound counter-clockwise.
func NewFlatTriangle(p0, p1, p2 vec3.T) *Triangle {
	n := vec3.Normalize(vec3.CProd(vec3.SubVV(p1, p0), vec3.SubVV(p2, p0)))
	return &Triangle{
		Positions: [3]vec3.T{p0, p1, p2},
		Normals:   [3]vec3.T{n, n, n},
	}
}

func (tri *Triangle) Bounds() aabox.AABox {
	b := aabox.AccumZeroAABox()
	for _, p := range tri.Positions {
		b = aabox.GrowAABoxToPoint(b, p)
	}
	return b
}

// determinantEpsilon bounds the system determinant relative to
// |(p0-p1) x (p0-p2)| * |d|, i.e. the cosine between the ray and the face
// normal.  Rays parallel to the triangle and zero-area triangles both fall
// below it, at any scene scale.
const determinantEpsilon = 1e-12

// Barycentric solves
//
//	[p0-p1 | p0-p2 | d] * (beta, gamma, t) = p0 - o
//
// by Cramer's rule.  ok is false when the system is singular.
func (tri *Triangle) Barycentric(r ray.Ray) (beta, gamma, t float64, ok bool) {
	p0 := tri.Positions[0]
	c0 := vec3.SubVV(p0, tri.Positions[1])
	c1 := vec3.SubVV(p0, tri.Positions[2])
	c2 := r.Direction
	b := vec3.SubVV(p0, r.Origin)

	det := vec3.IProd(c0, vec3.CProd(c1, c2))
	scale := vec3.CProd(c0, c1).Norm() * c2.Norm()
	if !(math.Abs(det) > determinantEpsilon*scale) || math.IsInf(det, 0) {
		return 0, 0, 0, false
	}

	beta = vec3.IProd(b, vec3.CProd(c1, c2)) / det
	gamma = vec3.IProd(c0, vec3.CProd(b, c2)) / det
	t = vec3.IProd(c0, vec3.CProd(c1, b)) / det
	return beta, gamma, t, true
}

func (tri *Triangle) Intersect(r ray.Ray, tMin float64, rec *hit.Record) bool {
	beta, gamma, t, ok := tri.Barycentric(r)
	if !ok {
		return false
	}
	if beta < 0 || gamma < 0 || beta+gamma > 1 {
		return false
	}
	if !accept(t, tMin, rec) {
		return false
	}

	alpha := 1 - beta - gamma
	n := vec3.AddVV(
		vec3.AddVV(vec3.MulVS(tri.Normals[0], alpha), vec3.MulVS(tri.Normals[1], beta)),
		vec3.MulVS(tri.Normals[2], gamma),
	)
	if n.IsZero() {
		n = vec3.CProd(vec3.SubVV(tri.Positions[1], tri.Positions[0]), vec3.SubVV(tri.Positions[2], tri.Positions[0]))
	}

	rec.Time = t
	rec.Normal = vec3.Normalize(n)
	return true
}

// Sphere is the unit sphere centered on the origin.  Scale and place it with
// the element transform.
type Sphere struct{}

func (s *Sphere) Bounds() aabox.AABox {
	return aabox.AABox{
		X: ray.Span{Lo: -1.0, Hi: 1.0},
		Y: ray.Span{Lo: -1.0, Hi: 1.0},
		Z: ray.Span{Lo: -1.0, Hi: 1.0},
	}
}

func (s *Sphere) Intersect(r ray.Ray, tMin float64, rec *hit.Record) bool {
	a := vec3.IProd(r.Direction, r.Direction)
	if a == 0 {
		return false
	}
	b := vec3.IProd(r.Direction, r.Origin)
	c := vec3.IProd(r.Origin, r.Origin) - 1.0

	disc := b*b - a*c
	if disc < 0 {
		return false
	}
	root := math.Sqrt(disc)

	// Prefer the near root; fall back to the far one when the ray starts
	// inside the sphere.
	t := (-b - root) / a
	if t <= tMin {
		t = (-b + root) / a
	}
	if !accept(t, tMin, rec) {
		return false
	}

	rec.Time = t
	rec.Normal = vec3.Normalize(r.At(t))
	return true
}

// Box is an axis-aligned box in model space.
type Box struct {
	Spans [3]ray.Span
}

func (b *Box) Bounds() aabox.AABox {
	return aabox.AABox{
		X: b.Spans[0],
		Y: b.Spans[1],
		Z: b.Spans[2],
	}
}

func (b *Box) Intersect(r ray.Ray, tMin float64, rec *hit.Record) bool {
	cover := ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)}

	entryAxis, exitAxis := -1, -1
	entrySign, exitSign := 0.0, 0.0

	for i := 0; i < 3; i++ {
		if r.Direction[i] == 0 {
			if r.Origin[i] < b.Spans[i].Lo || r.Origin[i] > b.Spans[i].Hi {
				return false
			}
			continue
		}

		cur := ray.Span{
			Lo: (b.Spans[i].Lo - r.Origin[i]) / r.Direction[i],
			Hi: (b.Spans[i].Hi - r.Origin[i]) / r.Direction[i],
		}

		// Entering through the Lo face means the outward normal points down
		// the axis.
		normalComponent := -1.0
		if cur.Hi < cur.Lo {
			cur.Hi, cur.Lo = cur.Lo, cur.Hi
			normalComponent = 1.0
		}

		if cur.Lo > cover.Lo {
			cover.Lo = cur.Lo
			entryAxis = i
			entrySign = normalComponent
		}
		if cur.Hi < cover.Hi {
			cover.Hi = cur.Hi
			exitAxis = i
			exitSign = -normalComponent
		}
		if cover.Lo > cover.Hi {
			return false
		}
	}

	t, axis, sign := cover.Lo, entryAxis, entrySign
	if t <= tMin {
		t, axis, sign = cover.Hi, exitAxis, exitSign
	}
	if axis < 0 || !accept(t, tMin, rec) {
		return false
	}

	n := vec3.T{}
	n[axis] = sign
	rec.Time = t
	rec.Normal = n
	return true
}
