package camera

import (
	"math"

	"row-major/whitted/ray"
	"row-major/whitted/vmath/mat33"
	"row-major/whitted/vmath/vec2"
	"row-major/whitted/vmath/vec3"
)

// Camera turns normalized device coordinates into primary rays.
type Camera interface {
	// GenerateRay returns the ray through ndc, where both coordinates run
	// from -1 (left, bottom) to 1 (right, top).
	GenerateRay(ndc vec2.T) ray.Ray

	// TMin is the smallest ray parameter accepted as a hit, rejecting hits
	// at or just beyond the ray origin.
	TMin() float64
}

// DefaultTMin is used when a camera is configured without one.
const DefaultTMin = 1e-4

// Perspective is a pinhole camera.  The columns of ApertureToWorld are the
// eye (forward), left, and up directions.
type Perspective struct {
	Center          vec3.T
	ApertureToWorld mat33.T

	// FOV is the vertical field of view in radians.
	FOV    float64
	Aspect float64

	MinT float64
}

// NewPerspective builds a camera at center looking along eye.  up need only be
// roughly perpendicular to eye.
func NewPerspective(center, eye, up vec3.T, fov, aspect, tMin float64) *Perspective {
	c := &Perspective{
		Center:          center,
		ApertureToWorld: mat33.Identity(),
		FOV:             fov,
		Aspect:          aspect,
		MinT:            tMin,
	}
	c.SetEye(eye)
	c.SetUp(up)
	return c
}

func (c *Perspective) TMin() float64 {
	if c.MinT <= 0 {
		return DefaultTMin
	}
	return c.MinT
}

func (c *Perspective) GenerateRay(ndc vec2.T) ray.Ray {
	halfHeight := math.Tan(c.FOV / 2)
	halfWidth := halfHeight * c.Aspect

	dir := vec3.AddVV(
		c.Eye(),
		vec3.AddVV(
			vec3.MulVS(c.Left(), -ndc[0]*halfWidth),
			vec3.MulVS(c.Up(), ndc[1]*halfHeight),
		),
	)

	return ray.Ray{
		Origin:    c.Center,
		Direction: vec3.Normalize(dir),
	}
}

func (c *Perspective) Eye() vec3.T {
	return vec3.T{
		c.ApertureToWorld.Elts[0],
		c.ApertureToWorld.Elts[3],
		c.ApertureToWorld.Elts[6],
	}
}

func (c *Perspective) Left() vec3.T {
	return vec3.T{
		c.ApertureToWorld.Elts[1],
		c.ApertureToWorld.Elts[4],
		c.ApertureToWorld.Elts[7],
	}
}

func (c *Perspective) Up() vec3.T {
	return vec3.T{
		c.ApertureToWorld.Elts[2],
		c.ApertureToWorld.Elts[5],
		c.ApertureToWorld.Elts[8],
	}
}

// SetEye points the camera along newEye, keeping the up vector as close to its
// old value as possible.
func (c *Perspective) SetEye(newEye vec3.T) {
	c.setEyeDirect(vec3.Normalize(newEye))
	up := vec3.Reject(c.Eye(), c.Up())
	if up.Norm() < 1e-9 {
		// The old up vector is parallel to the new eye; any perpendicular
		// will do.
		up = vec3.Reject(c.Eye(), c.Left())
	}
	c.setUpDirect(vec3.Normalize(up))
	c.setLeftDirect(vec3.CProd(c.Up(), c.Eye()))
}

func (c *Perspective) SetUp(newUp vec3.T) {
	up := vec3.Reject(c.Eye(), newUp)
	if up.Norm() < 1e-9 {
		return
	}
	c.setUpDirect(vec3.Normalize(up))
	c.setLeftDirect(vec3.CProd(c.Up(), c.Eye()))
}

func (c *Perspective) setEyeDirect(newEye vec3.T) {
	c.ApertureToWorld.Elts[0] = newEye[0]
	c.ApertureToWorld.Elts[3] = newEye[1]
	c.ApertureToWorld.Elts[6] = newEye[2]
}

func (c *Perspective) setLeftDirect(newLeft vec3.T) {
	c.ApertureToWorld.Elts[1] = newLeft[0]
	c.ApertureToWorld.Elts[4] = newLeft[1]
	c.ApertureToWorld.Elts[7] = newLeft[2]
}

func (c *Perspective) setUpDirect(newUp vec3.T) {
	c.ApertureToWorld.Elts[2] = newUp[0]
	c.ApertureToWorld.Elts[5] = newUp[1]
	c.ApertureToWorld.Elts[8] = newUp[2]
}
