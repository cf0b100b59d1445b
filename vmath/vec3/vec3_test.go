package vec3

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNormalize(t *testing.T) {
	got := Normalize(T{3, 0, 4})
	want := T{0.6, 0, 0.8}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad normalize; diff (-got +want)\n%s", diff)
	}

	if got := Normalize(T{}); got != (T{}) {
		t.Errorf("Normalize of zero vector; got %v, want zero", got)
	}
}

func TestCProdRightHanded(t *testing.T) {
	if got, want := CProd(T{1, 0, 0}, T{0, 1, 0}), (T{0, 0, 1}); got != want {
		t.Errorf("x cross y; got %v, want %v", got, want)
	}
}

func TestReflect(t *testing.T) {
	testCases := []struct {
		name string
		a, n T
		want T
	}{
		{"head-on", T{0, 0, -1}, T{0, 0, 1}, T{0, 0, 1}},
		{"glancing", T{1, -1, 0}, T{0, 1, 0}, T{1, 1, 0}},
		{"parallel", T{1, 0, 0}, T{0, 1, 0}, T{1, 0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reflect(tc.a, tc.n)
			if diff := cmp.Diff(got, tc.want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Bad reflection; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestReject(t *testing.T) {
	got := Reject(T{0, 0, 2}, T{1, 2, 3})
	want := T{1, 2, 0}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad rejection; diff (-got +want)\n%s", diff)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(T{math.NaN(), math.Inf(1), 0.5})
	if want := (T{0, 0, 0.5}); got != want {
		t.Errorf("Bad sanitize; got %v, want %v", got, want)
	}
	if !got.IsFinite() {
		t.Errorf("Sanitized vector %v is not finite", got)
	}
}

func TestClamp(t *testing.T) {
	if got, want := Clamp(T{-1, 0.5, 2}, 0, 1), (T{0, 0.5, 1}); got != want {
		t.Errorf("Bad clamp; got %v, want %v", got, want)
	}
}
