package aabox

import (
	"math"
	"testing"

	"row-major/whitted/affinetransform"
	"row-major/whitted/ray"
	"row-major/whitted/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var unitBox = AABox{
	X: ray.Span{Lo: 0, Hi: 1},
	Y: ray.Span{Lo: 0, Hi: 1},
	Z: ray.Span{Lo: 0, Hi: 1},
}

func TestRayTestAABox(t *testing.T) {
	testCases := []struct {
		name string
		r    ray.Ray
		want ray.Span
	}{
		{"through", ray.New(vec3.T{-1, 0.5, 0.5}, vec3.T{1, 0, 0}), ray.Span{Lo: 1, Hi: 2}},
		{"diagonal", ray.New(vec3.T{-1, -1, -1}, vec3.T{1, 1, 1}), ray.Span{Lo: 1, Hi: 2}},
		{"inside", ray.New(vec3.T{0.5, 0.5, 0.5}, vec3.T{0, 0, -1}), ray.Span{Lo: -0.5, Hi: 0.5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RayTestAABox(tc.r, unitBox)
			if diff := cmp.Diff(got, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Bad span; diff (-got +want)\n%s", diff)
			}
		})
	}

	if got := RayTestAABox(ray.New(vec3.T{-1, 2, 0.5}, vec3.T{1, 0, 0}), unitBox); !got.IsNaN() {
		t.Errorf("Parallel miss; got %v, want NaN span", got)
	}
	if got := RayTestAABox(ray.New(vec3.T{-1, -1, 0.5}, vec3.T{1, 3, 0}), unitBox); !got.IsNaN() {
		t.Errorf("Oblique miss; got %v, want NaN span", got)
	}
}

func TestTransform(t *testing.T) {
	xf := affinetransform.Compose(affinetransform.Translate(vec3.T{10, 0, 0}), affinetransform.Rotate(vec3.T{0, 0, 1}, math.Pi/4))
	got := unitBox.Transform(xf)

	s := math.Sqrt2 / 2
	want := AABox{
		X: ray.Span{Lo: 10 - s, Hi: 10 + s},
		Y: ray.Span{Lo: 0, Hi: 2 * s},
		Z: ray.Span{Lo: 0, Hi: 1},
	}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad transformed box; diff (-got +want)\n%s", diff)
	}
}

func TestAccumulate(t *testing.T) {
	b := AccumZeroAABox()
	b = GrowAABoxToPoint(b, vec3.T{1, 2, 3})
	b = GrowAABoxToPoint(b, vec3.T{-1, 5, 0})
	want := AABox{
		X: ray.Span{Lo: -1, Hi: 1},
		Y: ray.Span{Lo: 2, Hi: 5},
		Z: ray.Span{Lo: 0, Hi: 3},
	}
	if diff := cmp.Diff(b, want); diff != "" {
		t.Errorf("Bad accumulated box; diff (-got +want)\n%s", diff)
	}
	if got, want := b.SurfaceArea(), 2*(2*3+2*3+3*3.0); got != want {
		t.Errorf("Bad surface area; got %v, want %v", got, want)
	}
	if Infinite().IsFinite() {
		t.Errorf("Infinite box reported finite")
	}
}
