package mat44

import (
	"testing"

	"row-major/whitted/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestInverse(t *testing.T) {
	m := T{
		0, -2, 0, 5,
		1, 0, 0, -1,
		0, 0, 3, 2,
		0, 0, 0, 1,
	}

	inv, ok := Inverse(m)
	if !ok {
		t.Fatalf("Inverse reported a non-singular matrix as singular")
	}

	if diff := cmp.Diff(MulMM(inv, m), Identity(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("inverse(m) * m is not identity; diff (-got +want)\n%s", diff)
	}

	p := vec3.T{1, 2, 3}
	if diff := cmp.Diff(MulPoint(inv, MulPoint(m, p)), p, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Point did not round-trip; diff (-got +want)\n%s", diff)
	}
}

func TestInverseSingular(t *testing.T) {
	m := Identity()
	m[10] = 0
	if _, ok := Inverse(m); ok {
		t.Errorf("Inverse of singular matrix reported ok")
	}
}

func TestMulDirIgnoresTranslation(t *testing.T) {
	m := Identity()
	m[3], m[7], m[11] = 10, 20, 30
	if got, want := MulDir(m, vec3.T{1, 0, 0}), (vec3.T{1, 0, 0}); got != want {
		t.Errorf("Bad direction transform; got %v, want %v", got, want)
	}
	if got, want := MulPoint(m, vec3.T{1, 0, 0}), (vec3.T{11, 20, 30}); got != want {
		t.Errorf("Bad point transform; got %v, want %v", got, want)
	}
}
