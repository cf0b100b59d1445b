package scenepack

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"row-major/whitted/geometry"
	"row-major/whitted/light"
	"row-major/whitted/tracer"
	"row-major/whitted/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const demoScene = `
name: demo
render:
  width: 8
  height: 4
  maxBounces: 2
  shadows: false
  background: [0.1, 0.1, 0.2]
camera:
  center: [0, 2, 0]
  eye: [0, -1, 0]
  up: [0, 0, 1]
  fovDegrees: 60
geometries:
  - name: floor
    plane: {normal: [0, 1, 0], offset: 0}
  - name: ball
    sphere: {}
  - name: crate
    box: {lo: [0, 0, 0], hi: [1, 1, 1]}
  - name: shard
    triangle:
      positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
materials:
  - name: grey
    diffuse: [0.5, 0.5, 0.5]
  - name: chrome
    specular: [0.9, 0.9, 0.9]
    shininess: 64
elements:
  - name: floor
    geometry: floor
    material: grey
  - name: ball
    geometry: ball
    material: chrome
    transform:
      - scale: [0.5, 0.5, 0.5]
      - translate: [0, 0.5, 3]
  - name: crate
    geometry: crate
    material: grey
    transform:
      - rotate: {axis: [0, 1, 0], degrees: 90}
lights:
  - kind: point
    color: [1, 1, 1]
    position: [0, 5, 0]
    attenuation: [1, 0, 0.01]
  - kind: directional
    color: [0.2, 0.2, 0.2]
    direction: [0, -1, 0]
  - kind: ambient
    color: [0.05, 0.05, 0.05]
`

func TestParse(t *testing.T) {
	pack, err := Parse([]byte(demoScene))
	if err != nil {
		t.Fatalf("Unexpected error from Parse: %v", err)
	}

	s := pack.Scene
	if s.Name != "demo" {
		t.Errorf("Bad name; got %q, want %q", s.Name, "demo")
	}
	if got, want := len(s.Geometries), 4; got != want {
		t.Errorf("Bad geometry count; got %d, want %d", got, want)
	}
	if _, ok := s.Geometries[0].(*geometry.Plane); !ok {
		t.Errorf("First geometry is %T, want *geometry.Plane", s.Geometries[0])
	}
	if got, want := len(s.Elements), 3; got != want {
		t.Fatalf("Bad element count; got %d, want %d", got, want)
	}
	if got, want := s.Elements[1].MaterialIndex, 1; got != want {
		t.Errorf("Ball material index; got %d, want %d", got, want)
	}

	// Scaled, then moved.
	ballXf := s.Elements[1].ModelToWorld
	if diff := cmp.Diff(ballXf.Offset, vec3.T{0, 0.5, 3}); diff != "" {
		t.Errorf("Bad ball offset; diff (-got +want)\n%s", diff)
	}
	if got, want := ballXf.Linear.At(0, 0), 0.5; got != want {
		t.Errorf("Bad ball scale; got %v, want %v", got, want)
	}

	if got, want := len(s.Lights), 3; got != want {
		t.Fatalf("Bad light count; got %d, want %d", got, want)
	}
	if got, want := s.Lights[0].Attenuation, (vec3.T{1, 0, 0.01}); got != want {
		t.Errorf("Bad attenuation; got %v, want %v", got, want)
	}
	if got, want := s.Lights[2].Kind, light.KindAmbient; got != want {
		t.Errorf("Bad light kind; got %v, want %v", got, want)
	}

	wantSettings := Settings{
		Width:      8,
		Height:     4,
		MaxBounces: 2,
		Shadows:    false,
		Background: vec3.T{0.1, 0.1, 0.2},
	}
	if diff := cmp.Diff(pack.Settings, wantSettings); diff != "" {
		t.Errorf("Bad settings; diff (-got +want)\n%s", diff)
	}

	cam := pack.Camera()
	if got, want := cam.Aspect, 2.0; got != want {
		t.Errorf("Bad derived aspect; got %v, want %v", got, want)
	}
	if math.Abs(cam.FOV-math.Pi/3) > 1e-12 {
		t.Errorf("Bad FOV; got %v, want %v", cam.FOV, math.Pi/3)
	}
}

func TestParseDefaults(t *testing.T) {
	pack, err := Parse([]byte(`
camera:
  eye: [0, 0, 1]
geometries: []
materials: []
elements: []
`))
	if err != nil {
		t.Fatalf("Unexpected error from Parse: %v", err)
	}

	want := Settings{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		MaxBounces: DefaultMaxBounces,
		Shadows:    true,
	}
	if diff := cmp.Diff(pack.Settings, want); diff != "" {
		t.Errorf("Bad default settings; diff (-got +want)\n%s", diff)
	}

	cam := pack.Camera()
	if diff := cmp.Diff(cam.Up(), vec3.T{0, 1, 0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad default up; diff (-got +want)\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown-field", "camera: {eye: [0, 0, 1]}\nbogus: 1\n"},
		{"no-shape", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g}]\n"},
		{"two-shapes", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g, sphere: {}, plane: {normal: [0, 1, 0]}}]\n"},
		{"zero-plane-normal", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g, plane: {normal: [0, 0, 0]}}]\n"},
		{"inverted-box", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g, box: {lo: [1, 0, 0], hi: [0, 1, 1]}}]\n"},
		{"negative-shininess", "camera: {eye: [0, 0, 1]}\nmaterials: [{name: m, shininess: -1}]\n"},
		{"unknown-geometry", "camera: {eye: [0, 0, 1]}\nmaterials: [{name: m}]\nelements: [{name: e, geometry: nope, material: m}]\n"},
		{"unknown-material", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g, sphere: {}}]\nelements: [{name: e, geometry: g, material: nope}]\n"},
		{"duplicate-material", "camera: {eye: [0, 0, 1]}\nmaterials: [{name: m}, {name: m}]\n"},
		{"empty-transform-step", "camera: {eye: [0, 0, 1]}\ngeometries: [{name: g, sphere: {}}]\nmaterials: [{name: m}]\nelements: [{name: e, geometry: g, material: m, transform: [{}]}]\n"},
		{"unknown-light", "camera: {eye: [0, 0, 1]}\nlights: [{kind: spot, color: [1, 1, 1]}]\n"},
		{"zero-direction", "camera: {eye: [0, 0, 1]}\nlights: [{kind: directional, color: [1, 1, 1]}]\n"},
		{"zero-eye", "camera: {eye: [0, 0, 0]}\n"},
		{"negative-bounces", "camera: {eye: [0, 0, 1]}\nrender: {maxBounces: -1}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if !errors.Is(err, ErrInvalidScene) {
				t.Errorf("Parse; got error %v, want one matching ErrInvalidScene", err)
			}
		})
	}
}

func TestLoadAndRender(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte(demoScene), 0o644); err != nil {
		t.Fatalf("Unexpected error writing scene: %v", err)
	}

	pack, err := Load(ctx, path)
	if err != nil {
		t.Fatalf("Unexpected error from Load: %v", err)
	}

	opts, err := pack.Options(ctx)
	if err != nil {
		t.Fatalf("Unexpected error from Options: %v", err)
	}
	if opts.EnvMap != nil {
		t.Errorf("Options loaded an environment map that was never named")
	}

	tr, err := tracer.New(opts)
	if err != nil {
		t.Fatalf("Unexpected error from tracer.New: %v", err)
	}
	img, err := tr.Render(ctx, pack.Scene, "")
	if err != nil {
		t.Fatalf("Unexpected error from Render: %v", err)
	}
	if img.Width != 8 || img.Height != 4 {
		t.Errorf("Bad image size %dx%d", img.Width, img.Height)
	}
	for i, p := range img.Pixels {
		if !p.IsFinite() {
			t.Errorf("Pixel %d is not finite: %v", i, p)
		}
	}

	if _, err := Load(ctx, filepath.Join(t.TempDir(), "missing.yaml")); err == nil || errors.Is(err, ErrInvalidScene) {
		t.Errorf("Load of missing file; got %v, want a read error", err)
	}
}
