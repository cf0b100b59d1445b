// Package scenepack loads scenes, cameras and render settings from YAML files.
package scenepack

import (
	"context"
	"errors"
	"fmt"
	"math"

	"row-major/whitted/affinetransform"
	"row-major/whitted/blobio"
	"row-major/whitted/camera"
	"row-major/whitted/envmap"
	"row-major/whitted/geometry"
	"row-major/whitted/light"
	"row-major/whitted/material"
	"row-major/whitted/ray"
	"row-major/whitted/scene"
	"row-major/whitted/tracer"
	"row-major/whitted/vmath/vec3"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/yaml"
)

// ErrInvalidScene is wrapped by every error caused by the content of a scene
// file, as opposed to failing to read it.
var ErrInvalidScene = errors.New("invalid scene")

const (
	DefaultWidth      = 640
	DefaultHeight     = 480
	DefaultMaxBounces = 4
	DefaultFOVDegrees = 45
)

type Vec3 = vec3.T

type PlaneDoc struct {
	Normal Vec3    `json:"normal"`
	Offset float64 `json:"offset"`
}

type TriangleDoc struct {
	Positions [3]Vec3 `json:"positions"`
	// Normals are optional; a flat face normal is used when omitted.
	Normals *[3]Vec3 `json:"normals,omitempty"`
}

type SphereDoc struct{}

type BoxDoc struct {
	Lo Vec3 `json:"lo"`
	Hi Vec3 `json:"hi"`
}

// GeometryDoc must have exactly one of its shape fields set.
type GeometryDoc struct {
	Name     string       `json:"name"`
	Plane    *PlaneDoc    `json:"plane,omitempty"`
	Triangle *TriangleDoc `json:"triangle,omitempty"`
	Sphere   *SphereDoc   `json:"sphere,omitempty"`
	Box      *BoxDoc      `json:"box,omitempty"`
}

type MaterialDoc struct {
	Name      string  `json:"name"`
	Diffuse   Vec3    `json:"diffuse"`
	Specular  Vec3    `json:"specular"`
	Ambient   Vec3    `json:"ambient"`
	Shininess float64 `json:"shininess"`
}

type RotateDoc struct {
	Axis    Vec3    `json:"axis"`
	Degrees float64 `json:"degrees"`
}

// TransformStepDoc must have exactly one field set.  Steps in an element's
// transform list are applied to the model in order.
type TransformStepDoc struct {
	Translate *Vec3      `json:"translate,omitempty"`
	Scale     *Vec3      `json:"scale,omitempty"`
	Rotate    *RotateDoc `json:"rotate,omitempty"`
}

type ElementDoc struct {
	Name      string             `json:"name"`
	Geometry  string             `json:"geometry"`
	Material  string             `json:"material"`
	Transform []TransformStepDoc `json:"transform,omitempty"`
}

type LightDoc struct {
	Kind        string `json:"kind"`
	Color       Vec3   `json:"color"`
	Position    Vec3   `json:"position,omitempty"`
	Direction   Vec3   `json:"direction,omitempty"`
	Attenuation *Vec3  `json:"attenuation,omitempty"`
}

type CameraDoc struct {
	Center     Vec3    `json:"center"`
	Eye        Vec3    `json:"eye"`
	Up         Vec3    `json:"up"`
	FOVDegrees float64 `json:"fovDegrees,omitempty"`
	// Aspect defaults to width/height.
	Aspect float64 `json:"aspect,omitempty"`
	TMin   float64 `json:"tMin,omitempty"`
}

type RenderDoc struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	MaxBounces *int   `json:"maxBounces,omitempty"`
	Shadows    *bool  `json:"shadows,omitempty"`
	Background Vec3   `json:"background,omitempty"`
	EnvMap     string `json:"envMap,omitempty"`
}

// Doc is the on-disk form of a scene file.
type Doc struct {
	Name       string        `json:"name"`
	Render     RenderDoc     `json:"render,omitempty"`
	Camera     CameraDoc     `json:"camera"`
	Geometries []GeometryDoc `json:"geometries"`
	Materials  []MaterialDoc `json:"materials"`
	Elements   []ElementDoc  `json:"elements"`
	Lights     []LightDoc    `json:"lights,omitempty"`
}

// Settings are the render parameters carried by a scene file, with defaults
// filled in.  Callers may override them before calling Options.
type Settings struct {
	Width, Height int
	MaxBounces    int
	Shadows       bool
	Background    vec3.T

	// EnvMapDir names a directory (or gs:// prefix) holding the six faces of
	// a cube map.  Empty means use Background.
	EnvMapDir string
}

type Pack struct {
	Scene    *scene.Scene
	Settings Settings

	camera CameraDoc
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidScene, fmt.Sprintf(format, args...))
}

// Load reads and parses the scene file at name, which may be a gs:// path.
func Load(ctx context.Context, name string) (*Pack, error) {
	tracer := otel.Tracer("row-major/whitted/scenepack")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "scenepack.Load")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	fail := func(err error) (*Pack, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := blobio.ReadAll(ctx, name)
	if err != nil {
		return fail(fmt.Errorf("while reading scene file: %w", err))
	}

	pack, err := Parse(data)
	if err != nil {
		return fail(fmt.Errorf("while parsing scene file %s: %w", name, err))
	}

	span.SetAttributes(attribute.Int64("elements", int64(len(pack.Scene.Elements))))
	span.SetStatus(codes.Ok, "")
	return pack, nil
}

// Parse builds a Pack from the YAML content of a scene file.  Unknown fields
// are rejected.
func Parse(data []byte) (*Pack, error) {
	doc := &Doc{}
	if err := yaml.UnmarshalStrict(data, doc); err != nil {
		return nil, fmt.Errorf("%w: while decoding YAML: %v", ErrInvalidScene, err)
	}
	return FromDoc(doc)
}

func FromDoc(doc *Doc) (*Pack, error) {
	s := &scene.Scene{Name: doc.Name}

	geometryIndex := map[string]int{}
	for i, g := range doc.Geometries {
		hittable, err := convertGeometry(g)
		if err != nil {
			return nil, fmt.Errorf("geometry %d (%q): %w", i, g.Name, err)
		}
		if _, dup := geometryIndex[g.Name]; dup {
			return nil, invalid("duplicate geometry name %q", g.Name)
		}
		geometryIndex[g.Name] = s.AddGeometry(hittable)
	}

	materialIndex := map[string]int{}
	for _, m := range doc.Materials {
		mtl, err := material.New(m.Diffuse, m.Specular, m.Ambient, m.Shininess)
		if err != nil {
			return nil, fmt.Errorf("%w: material %q: %v", ErrInvalidScene, m.Name, err)
		}
		if _, dup := materialIndex[m.Name]; dup {
			return nil, invalid("duplicate material name %q", m.Name)
		}
		materialIndex[m.Name] = s.AddMaterial(mtl)
	}

	for _, e := range doc.Elements {
		gi, ok := geometryIndex[e.Geometry]
		if !ok {
			return nil, invalid("element %q refers to unknown geometry %q", e.Name, e.Geometry)
		}
		mi, ok := materialIndex[e.Material]
		if !ok {
			return nil, invalid("element %q refers to unknown material %q", e.Name, e.Material)
		}
		xf, err := convertTransform(e.Transform)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", e.Name, err)
		}
		s.AddElement(&scene.SceneElement{
			Name:          e.Name,
			GeometryIndex: gi,
			MaterialIndex: mi,
			ModelToWorld:  xf,
		})
	}

	for i, l := range doc.Lights {
		converted, err := convertLight(l)
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.AddLight(converted)
	}

	settings := Settings{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		MaxBounces: DefaultMaxBounces,
		Shadows:    true,
		Background: doc.Render.Background,
		EnvMapDir:  doc.Render.EnvMap,
	}
	if doc.Render.Width != 0 {
		settings.Width = doc.Render.Width
	}
	if doc.Render.Height != 0 {
		settings.Height = doc.Render.Height
	}
	if doc.Render.MaxBounces != nil {
		settings.MaxBounces = *doc.Render.MaxBounces
	}
	if doc.Render.Shadows != nil {
		settings.Shadows = *doc.Render.Shadows
	}
	if settings.Width < 0 || settings.Height < 0 || settings.MaxBounces < 0 {
		return nil, invalid("render settings must be non-negative")
	}

	if doc.Camera.Eye.IsZero() {
		return nil, invalid("camera eye direction must be non-zero")
	}

	return &Pack{
		Scene:    s,
		Settings: settings,
		camera:   doc.Camera,
	}, nil
}

// Camera builds the camera for an image of the current Settings size.
func (p *Pack) Camera() *camera.Perspective {
	c := p.camera

	fov := c.FOVDegrees
	if fov == 0 {
		fov = DefaultFOVDegrees
	}
	aspect := c.Aspect
	if aspect == 0 && p.Settings.Height != 0 {
		aspect = float64(p.Settings.Width) / float64(p.Settings.Height)
	}
	up := c.Up
	if up.IsZero() {
		up = vec3.T{0, 1, 0}
	}

	return camera.NewPerspective(c.Center, c.Eye, up, fov*math.Pi/180, aspect, c.TMin)
}

// Options assembles tracer options from Settings, loading the environment map
// if one is named.
func (p *Pack) Options(ctx context.Context) (tracer.Options, error) {
	opts := tracer.Options{
		Width:      p.Settings.Width,
		Height:     p.Settings.Height,
		MaxBounces: p.Settings.MaxBounces,
		Shadows:    p.Settings.Shadows,
		Background: p.Settings.Background,
		Camera:     p.Camera(),
	}

	if p.Settings.EnvMapDir != "" {
		cube, err := envmap.LoadCubeMap(ctx, p.Settings.EnvMapDir)
		if err != nil {
			return tracer.Options{}, fmt.Errorf("while loading environment map: %w", err)
		}
		opts.EnvMap = cube
	}

	return opts, nil
}

func convertGeometry(g GeometryDoc) (geometry.Hittable, error) {
	var out geometry.Hittable
	set := 0
	if g.Plane != nil {
		set++
		if g.Plane.Normal.IsZero() {
			return nil, invalid("plane normal must be non-zero")
		}
		out = &geometry.Plane{Normal: g.Plane.Normal, Offset: g.Plane.Offset}
	}
	if g.Triangle != nil {
		set++
		tri := geometry.NewFlatTriangle(g.Triangle.Positions[0], g.Triangle.Positions[1], g.Triangle.Positions[2])
		if g.Triangle.Normals != nil {
			tri.Normals = *g.Triangle.Normals
		}
		out = tri
	}
	if g.Sphere != nil {
		set++
		out = &geometry.Sphere{}
	}
	if g.Box != nil {
		set++
		spans := [3]ray.Span{}
		for i := 0; i < 3; i++ {
			if g.Box.Lo[i] > g.Box.Hi[i] {
				return nil, invalid("box lo exceeds hi on axis %d", i)
			}
			spans[i] = ray.Span{Lo: g.Box.Lo[i], Hi: g.Box.Hi[i]}
		}
		out = &geometry.Box{Spans: spans}
	}

	if set != 1 {
		return nil, invalid("exactly one of plane, triangle, sphere or box must be set, got %d", set)
	}
	return out, nil
}

func convertTransform(steps []TransformStepDoc) (affinetransform.AffineTransform, error) {
	xf := affinetransform.Identity()
	for i, step := range steps {
		var next affinetransform.AffineTransform
		set := 0
		if step.Translate != nil {
			set++
			next = affinetransform.Translate(*step.Translate)
		}
		if step.Scale != nil {
			set++
			next = affinetransform.ScaleXYZ(*step.Scale)
		}
		if step.Rotate != nil {
			set++
			if step.Rotate.Axis.IsZero() {
				return affinetransform.AffineTransform{}, invalid("transform step %d: rotation axis must be non-zero", i)
			}
			next = affinetransform.Rotate(step.Rotate.Axis, step.Rotate.Degrees*math.Pi/180)
		}
		if set != 1 {
			return affinetransform.AffineTransform{}, invalid("transform step %d: exactly one of translate, scale or rotate must be set", i)
		}
		xf = affinetransform.Compose(next, xf)
	}
	return xf, nil
}

func convertLight(l LightDoc) (light.Light, error) {
	kind, err := light.ParseKind(l.Kind)
	if err != nil {
		return light.Light{}, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	var out light.Light
	switch kind {
	case light.KindPoint:
		out = light.Point(l.Position, l.Color)
		if l.Attenuation != nil {
			out.Attenuation = *l.Attenuation
		}
	case light.KindDirectional:
		if l.Direction.IsZero() {
			return light.Light{}, invalid("directional light needs a non-zero direction")
		}
		out = light.Directional(l.Direction, l.Color)
	case light.KindAmbient:
		out = light.Ambient(l.Color)
	}
	return out, nil
}
