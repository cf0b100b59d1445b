// Package scene owns the primitives, materials, and lights of a render and
// answers closest-hit queries against them.
package scene

import (
	"fmt"

	"row-major/whitted/aabox"
	"row-major/whitted/affinetransform"
	"row-major/whitted/geometry"
	"row-major/whitted/hit"
	"row-major/whitted/kdtree"
	"row-major/whitted/light"
	"row-major/whitted/material"
	"row-major/whitted/ray"
	"row-major/whitted/vmath/mat33"
	"row-major/whitted/vmath/mat44"
	"row-major/whitted/vmath/vec3"

	"github.com/golang/glog"
)

type SceneElement struct {
	Name string

	GeometryIndex int
	MaterialIndex int

	// The transform that takes model space to world space.
	ModelToWorld affinetransform.AffineTransform
}

type CrushedSceneElement struct {
	Name string

	TheGeometry geometry.Hittable
	TheMaterial *material.Material

	// The matrix that takes a ray from world space to model space.
	WorldToModel mat44.T

	// The linear map that takes normal vectors from model space to world space.
	ModelToWorldNormals mat33.T

	// The element's bounding box in world coordinates.  Infinite for
	// unbounded geometry.
	WorldBounds aabox.AABox
}

type Scene struct {
	Name string

	Geometries []geometry.Hittable
	Materials  []*material.Material
	Elements   []*SceneElement
	Lights     []light.Light
}

// AddGeometry is a convenience function to register a geometry and get its
// index.
func (s *Scene) AddGeometry(g geometry.Hittable) int {
	s.Geometries = append(s.Geometries, g)
	return len(s.Geometries) - 1
}

// AddMaterial is a convenience function to register a material and get its
// index.
func (s *Scene) AddMaterial(m *material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

func (s *Scene) AddElement(e *SceneElement) int {
	s.Elements = append(s.Elements, e)
	return len(s.Elements) - 1
}

func (s *Scene) AddLight(l light.Light) int {
	s.Lights = append(s.Lights, l)
	return len(s.Lights) - 1
}

// Place is shorthand for registering a geometry and material and placing a
// single element of them.
func (s *Scene) Place(name string, g geometry.Hittable, m *material.Material, modelToWorld affinetransform.AffineTransform) int {
	return s.AddElement(&SceneElement{
		Name:          name,
		GeometryIndex: s.AddGeometry(g),
		MaterialIndex: s.AddMaterial(m),
		ModelToWorld:  modelToWorld,
	})
}

// CrushedScene is the read-only form of a Scene used while rendering.  Every
// element carries its geometry, material, and transforms directly, so no
// lookups happen per ray.  It is safe for concurrent use.
type CrushedScene struct {
	Elements []*CrushedSceneElement
	Lights   []light.Light

	// Unbounded lists elements with infinite bounds, which are always
	// tested.  Every other element is reachable through QueryAccelerator.
	Unbounded        []int
	QueryAccelerator *kdtree.KDTree
}

// boundsPadding absorbs rounding between an element's transformed bounds and
// its intersection routine.
const boundsPadding = 1e-7

// Crush resolves every element's geometry, material, and transforms.
// Elements whose transform cannot be inverted describe no visible surface and
// are dropped with a warning.
func (s *Scene) Crush() (*CrushedScene, error) {
	cs := &CrushedScene{
		Lights: append([]light.Light(nil), s.Lights...),
	}

	kdElements := []kdtree.KDElement{}
	for i, element := range s.Elements {
		if element.GeometryIndex < 0 || element.GeometryIndex >= len(s.Geometries) {
			return nil, fmt.Errorf("element %d (%q) references geometry %d, but there are %d", i, element.Name, element.GeometryIndex, len(s.Geometries))
		}
		if element.MaterialIndex < 0 || element.MaterialIndex >= len(s.Materials) {
			return nil, fmt.Errorf("element %d (%q) references material %d, but there are %d", i, element.Name, element.MaterialIndex, len(s.Materials))
		}

		g := s.Geometries[element.GeometryIndex]
		m := s.Materials[element.MaterialIndex]
		if g == nil || m == nil {
			return nil, fmt.Errorf("element %d (%q) references a nil geometry or material", i, element.Name)
		}

		worldToModel, ok := element.ModelToWorld.Invert()
		if !ok {
			glog.Warningf("Dropping element %d (%q): model-to-world transform is singular", i, element.Name)
			continue
		}
		normals, ok := element.ModelToWorld.NormalTransformMat()
		if !ok {
			glog.Warningf("Dropping element %d (%q): normal transform is singular", i, element.Name)
			continue
		}

		crushedElement := &CrushedSceneElement{
			Name:                element.Name,
			TheGeometry:         g,
			TheMaterial:         m,
			WorldToModel:        worldToModel.Mat44(),
			ModelToWorldNormals: normals,
			WorldBounds:         aabox.Infinite(),
		}

		idx := len(cs.Elements)
		cs.Elements = append(cs.Elements, crushedElement)

		if modelBounds := g.Bounds(); modelBounds.IsFinite() {
			crushedElement.WorldBounds = modelBounds.Transform(element.ModelToWorld).Pad(boundsPadding)
			kdElements = append(kdElements, kdtree.KDElement{Ref: idx, Bounds: crushedElement.WorldBounds})
		} else {
			cs.Unbounded = append(cs.Unbounded, idx)
		}
	}

	cs.QueryAccelerator = kdtree.NewKDTree(kdElements)
	cs.QueryAccelerator.RefineViaSurfaceAreaHeuristic(1.0, 0.9)

	glog.V(1).Infof("Crushed scene %q: %d elements (%d unbounded), %d lights", s.Name, len(cs.Elements), len(cs.Unbounded), len(cs.Lights))

	return cs, nil
}

// IntersectElement finds the closest hit along worldRay with time in
// (tMin, rec.Time), updating rec with the world-space time and unit normal.
// It returns the index of the element hit, or -1 if nothing closer than
// rec.Time was found.
//
// The ray is taken into each element's model space without renormalizing its
// direction, so hit times are comparable across elements and rec.Time can be
// shared by all of them.
func (cs *CrushedScene) IntersectElement(worldRay ray.Ray, tMin float64, rec *hit.Record) int {
	hitIndex := -1

	visitor := func(i int) {
		elt := cs.Elements[i]
		mdlRay := worldRay.Transformed(elt.WorldToModel)
		if elt.TheGeometry.Intersect(mdlRay, tMin, rec) {
			rec.Normal = vec3.Normalize(mat33.MulMV(elt.ModelToWorldNormals, rec.Normal))
			hitIndex = i
		}
	}

	for _, i := range cs.Unbounded {
		visitor(i)
	}

	// rec.Time shrinks as the visitor finds hits, so boxes entirely behind
	// the current closest hit are skipped.
	selector := func(b aabox.AABox) bool {
		span := aabox.RayTestAABox(worldRay, b)
		if span.IsNaN() {
			return false
		}
		return span.Hi > tMin && span.Lo < rec.Time
	}
	cs.QueryAccelerator.Query(selector, visitor)

	return hitIndex
}

// Intersect is IntersectElement reporting the material of the closest hit.
// The material is only meaningful when the result is true.
func (cs *CrushedScene) Intersect(worldRay ray.Ray, tMin float64, rec *hit.Record) (*material.Material, bool) {
	i := cs.IntersectElement(worldRay, tMin, rec)
	if i < 0 {
		return nil, false
	}
	return cs.Elements[i].TheMaterial, true
}
