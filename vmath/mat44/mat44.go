package mat44

import (
	"math"

	"row-major/whitted/vmath/mat33"
	"row-major/whitted/vmath/vec3"
)

// T is a row-major 4x4 matrix acting on column vectors.
type T [16]float64

func Identity() T {
	return T{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func MulMM(a, b T) T {
	result := T{}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i*4+j] += a[i*4+k] * b[k*4+j]
			}
		}
	}
	return result
}

// MulPoint applies m to b as a point (w = 1).
func MulPoint(m T, b vec3.T) vec3.T {
	return vec3.T{
		m[0]*b[0] + m[1]*b[1] + m[2]*b[2] + m[3],
		m[4]*b[0] + m[5]*b[1] + m[6]*b[2] + m[7],
		m[8]*b[0] + m[9]*b[1] + m[10]*b[2] + m[11],
	}
}

// MulDir applies the upper 3x3 of m to b (w = 0).
func MulDir(m T, b vec3.T) vec3.T {
	return vec3.T{
		m[0]*b[0] + m[1]*b[1] + m[2]*b[2],
		m[4]*b[0] + m[5]*b[1] + m[6]*b[2],
		m[8]*b[0] + m[9]*b[1] + m[10]*b[2],
	}
}

func Upper33(m T) mat33.T {
	return mat33.T{Elts: [9]float64{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}}
}

const singularEpsilon = 1e-12

func rowEchelonInplace(m, a *T) bool {
	for k := 0; k < 4; k++ {
		// Select the row below row k with the best pivot.
		maxRow := k
		for i := k; i < 4; i++ {
			if math.Abs(m[i*4+k]) > math.Abs(m[maxRow*4+k]) {
				maxRow = i
			}
		}

		// Swap selected row to current row.
		for i := 0; i < 4; i++ {
			m[k*4+i], m[maxRow*4+i] = m[maxRow*4+i], m[k*4+i]
			a[k*4+i], a[maxRow*4+i] = a[maxRow*4+i], a[k*4+i]
		}

		// Now the pivot element is at m[k, k].
		pivot := m[k*4+k]
		if math.Abs(pivot) < singularEpsilon || math.IsNaN(pivot) {
			return false
		}
		for r := k + 1; r < 4; r++ {
			scale := m[r*4+k] / pivot
			for c := k + 1; c < 4; c++ {
				m[r*4+c] -= m[k*4+c] * scale
			}
			for c := 0; c < 4; c++ {
				a[r*4+c] -= a[k*4+c] * scale
			}
			m[r*4+k] = 0.0
		}
	}
	return true
}

func backsubInplace(m, a *T) {
	for k := 4 - 1; k > 0; k-- {
		// Nullify all entries above the pivot element.
		for r := 0; r < k; r++ {
			scale := m[r*4+k] / m[k*4+k]

			m[r*4+k] = 0
			for c := k + 1; c < 4; c++ {
				m[r*4+c] -= m[k*4+c] * scale
			}

			// Mirror the action in the augmented matrix.
			for c := 0; c < 4; c++ {
				a[r*4+c] -= a[k*4+c] * scale
			}
		}
	}

	for k := 0; k < 4; k++ {
		for c := 0; c < 4; c++ {
			a[k*4+c] /= m[k*4+k]
		}
		m[k*4+k] = 1
	}
}

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
