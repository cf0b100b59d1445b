package mat33

import (
	"math"

	"row-major/whitted/vmath/vec3"
)

// T is a row-major 3x3 matrix.
type T struct {
	Elts [9]float64
}

func Identity() T {
	return T{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// FromCols builds the matrix whose columns are a, b, and c.
func FromCols(a, b, c vec3.T) T {
	return T{[9]float64{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}}
}

func (m T) At(r, c int) float64 {
	return m.Elts[r*3+c]
}

func MulMM(a, b T) T {
	result := T{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				result.Elts[i*3+j] += a.Elts[i*3+k] * b.Elts[k*3+j]
			}
		}
	}
	return result
}

func MulMV(a T, b vec3.T) vec3.T {
	return vec3.T{
		a.Elts[0]*b[0] + a.Elts[1]*b[1] + a.Elts[2]*b[2],
		a.Elts[3]*b[0] + a.Elts[4]*b[1] + a.Elts[5]*b[2],
		a.Elts[6]*b[0] + a.Elts[7]*b[1] + a.Elts[8]*b[2],
	}
}

func Transpose(m T) T {
	transpose := T{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			transpose.Elts[c*3+r] = m.Elts[r*3+c]
		}
	}
	return transpose
}

func Determinant(m T) float64 {
	e := m.Elts
	return e[0]*(e[4]*e[8]-e[5]*e[7]) -
		e[1]*(e[3]*e[8]-e[5]*e[6]) +
		e[2]*(e[3]*e[7]-e[4]*e[6])
}

// singularEpsilon bounds the pivot magnitude below which a matrix is treated
// as non-invertible.
const singularEpsilon = 1e-12

func rowEchelonInplace(m, a *T) bool {
	for k := 0; k < 3; k++ {
		// Select the row below row k with the best pivot.
		maxRow := k
		for i := k; i < 3; i++ {
			if math.Abs(m.Elts[i*3+k]) > math.Abs(m.Elts[maxRow*3+k]) {
				maxRow = i
			}
		}

		// Swap selected row to current row.
		for i := 0; i < 3; i++ {
			m.Elts[k*3+i], m.Elts[maxRow*3+i] = m.Elts[maxRow*3+i], m.Elts[k*3+i]
			a.Elts[k*3+i], a.Elts[maxRow*3+i] = a.Elts[maxRow*3+i], a.Elts[k*3+i]
		}

		// Now the pivot element is at m[k, k].
		pivot := m.Elts[k*3+k]
		if math.Abs(pivot) < singularEpsilon || math.IsNaN(pivot) {
			return false
		}
		for r := k + 1; r < 3; r++ {
			scale := m.Elts[r*3+k] / pivot
			for c := k + 1; c < 3; c++ {
				m.Elts[r*3+c] -= m.Elts[k*3+c] * scale
			}
			for c := 0; c < 3; c++ {
				a.Elts[r*3+c] -= a.Elts[k*3+c] * scale
			}
			m.Elts[r*3+k] = 0.0
		}
	}
	return true
}

func backsubInplace(m, a *T) {
	for k := 3 - 1; k > 0; k-- {
		// Nullify all entries above the pivot element.
		for r := 0; r < k; r++ {
			scale := m.Elts[r*3+k] / m.Elts[k*3+k]

			m.Elts[r*3+k] = 0
			for c := k + 1; c < 3; c++ {
				m.Elts[r*3+c] -= m.Elts[k*3+c] * scale
			}

			// Mirror the action in the augmented matrix.
			for c := 0; c < 3; c++ {
				a.Elts[r*3+c] -= a.Elts[k*3+c] * scale
			}
		}
	}

	// Now we simply need to divide each row by its pivot.
	for k := 0; k < 3; k++ {
		for c := 0; c < 3; c++ {
			a.Elts[k*3+c] /= m.Elts[k*3+k]
		}
		m.Elts[k*3+k] = 1
	}
}

// SolveInplace reduces m to the identity, applying the same row operations to
// a.  It reports false, leaving both matrices in an unspecified state, when m
// is singular.
func SolveInplace(m, a *T) bool {
	if !rowEchelonInplace(m, a) {
		return false
	}
	backsubInplace(m, a)
	return true
}

// Inverse returns the inverse of m, and false if m is singular.
func Inverse(m T) (T, bool) {
	a := Identity()
	if !SolveInplace(&m, &a) {
		return T{}, false
	}
	return a, true
}
