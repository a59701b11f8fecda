package mat

import (
	"math"
	"math/cmplx"
)

// Gershgorin returns lower and upper bounds for the eigenvalues of a Hermitian matrix.
// Every eigenvalue lies in a disc centered at a diagonal entry, with radius the sum of
// the absolute values of the rest of its row.
func (m *COO) Gershgorin() (float64, float64) {
	if m.rows == 0 {
		return 0, 0
	}
	center := make([]float64, m.rows)
	radius := make([]float64, m.rows)
	for _, v := range m.Data {
		if v.row == v.col {
			center[v.row] = real(v.v)
		} else {
			radius[v.row] += cmplx.Abs(v.v)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, c := range center {
		lo = min(lo, c-radius[i])
		hi = max(hi, c+radius[i])
	}
	return lo, hi
}
