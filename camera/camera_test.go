package camera

import (
	"math"
	"testing"

	"row-major/whitted/vmath/vec2"
	"row-major/whitted/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPerspectiveBasis(t *testing.T) {
	c := NewPerspective(vec3.T{}, vec3.T{0, 0, 2}, vec3.T{0, 1, 0.3}, math.Pi/2, 1, 0)

	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff(c.Eye(), vec3.T{0, 0, 1}, approx); diff != "" {
		t.Errorf("Bad eye; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.Up(), vec3.T{0, 1, 0}, approx); diff != "" {
		t.Errorf("Bad up; diff (-got +want)\n%s", diff)
	}
	// Looking down +z with +y up, left is +x.
	if diff := cmp.Diff(c.Left(), vec3.T{1, 0, 0}, approx); diff != "" {
		t.Errorf("Bad left; diff (-got +want)\n%s", diff)
	}
	if got, want := c.TMin(), DefaultTMin; got != want {
		t.Errorf("Bad default tMin; got %v, want %v", got, want)
	}
}

func TestGenerateRay(t *testing.T) {
	center := vec3.T{1, 2, 3}
	c := NewPerspective(center, vec3.T{0, 0, 1}, vec3.T{0, 1, 0}, math.Pi/2, 2, 1e-3)

	testCases := []struct {
		name string
		ndc  vec2.T
		want vec3.T
	}{
		{"center", vec2.T{0, 0}, vec3.T{0, 0, 1}},
		{"top", vec2.T{0, 1}, vec3.Normalize(vec3.T{0, 1, 1})},
		// ndc.x = 1 is the right edge, opposite to left.
		{"right", vec2.T{1, 0}, vec3.Normalize(vec3.T{-2, 0, 1})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := c.GenerateRay(tc.ndc)
			if r.Origin != center {
				t.Errorf("Bad origin; got %v, want %v", r.Origin, center)
			}
			if diff := cmp.Diff(r.Direction, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Bad direction; diff (-got +want)\n%s", diff)
			}
		})
	}
}
