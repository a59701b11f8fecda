package mat

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

const (
	// pairTol is the relative distance below which two eigenvalues of the real
	// embedding belong to the same complex eigenspace.
	pairTol = 1e-9
	// minResidual guards the Gram-Schmidt pivot, whose residual is at least
	// 1/sqrt(multiplicity) in exact arithmetic.
	minResidual = 1e-3
)

// Hermitian returns the eigenvalues of the Hermitian matrix a in ascending order,
// and the corresponding orthonormal eigenvectors as the columns of a unitary matrix.
//
// The factorization is done on the real symmetric matrix
//
//	[ Re(a)  -Im(a) ]
//	[ Im(a)   Re(a) ]
//
// in which every eigenvalue of a appears twice, once for x+iy and once for i(x+iy).
func Hermitian(a mat.CMatrix) ([]float64, *mat.CDense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, nil, errors.Errorf("not square %d %d", n, c)
	}
	if n == 0 {
		return nil, nil, errors.Errorf("empty")
	}

	sym := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			if j >= i {
				sym.SetSym(i, j, real(v))
				sym.SetSym(n+i, n+j, real(v))
			}
			sym.SetSym(i, n+j, -imag(v))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, nil, errors.Errorf("eig.Factorize failed")
	}
	vals2 := eig.Values(nil)
	var vecs2 mat.Dense
	eig.VectorsTo(&vecs2)

	var scale float64 = 1
	for _, v := range vals2 {
		scale = max(scale, math.Abs(v))
	}
	tol := pairTol * scale

	vals := make([]float64, 0, n)
	vecs := mat.NewCDense(n, n, nil)
	for lo := 0; lo < 2*n; {
		hi := lo + 1
		for hi < 2*n && vals2[hi]-vals2[hi-1] < tol {
			hi++
		}

		basis, err := complexBasis(&vecs2, n, lo, hi)
		if err != nil {
			return nil, nil, errors.Wrap(err, "")
		}
		for k, q := range basis {
			col := len(vals)
			if col >= n {
				return nil, nil, errors.Errorf("too many eigenvectors %d", col)
			}
			vals = append(vals, vals2[lo+2*k])
			for i, v := range q {
				vecs.Set(i, col, v)
			}
		}

		lo = hi
	}
	if len(vals) != n {
		return nil, nil, errors.Errorf("%d eigenvectors, expected %d", len(vals), n)
	}
	return vals, vecs, nil
}

// complexBasis returns an orthonormal basis of the complex span of the real eigenvectors
// in columns [lo, hi) of v. It runs modified Gram-Schmidt, pivoting on the candidate
// with the largest residual.
func complexBasis(v *mat.Dense, n, lo, hi int) ([][]complex128, error) {
	residuals := make([][]complex128, 0, hi-lo)
	for k := lo; k < hi; k++ {
		r := make([]complex128, n)
		for i := range r {
			r[i] = complex(v.At(i, k), v.At(n+i, k))
		}
		residuals = append(residuals, r)
	}

	dim := (hi - lo) / 2
	if (hi-lo)%2 != 0 {
		return nil, errors.Errorf("odd eigenspace %d %d", lo, hi)
	}
	basis := make([][]complex128, 0, dim)
	for len(basis) < dim {
		best, bestNorm := -1, 0.0
		for k, r := range residuals {
			if nrm := vecNorm(r); nrm > bestNorm {
				best, bestNorm = k, nrm
			}
		}
		if bestNorm < minResidual {
			return nil, errors.Errorf("degenerate residual %f %d %d", bestNorm, lo, hi)
		}

		q := residuals[best]
		for i := range q {
			q[i] /= complex(bestNorm, 0)
		}
		residuals = slices.Delete(residuals, best, best+1)
		for _, r := range residuals {
			p := vecDot(q, r)
			for i := range r {
				r[i] -= p * q[i]
			}
		}
		basis = append(basis, q)
	}
	return basis, nil
}

// Product returns a*b.
func Product(a, b *mat.CDense) *mat.CDense {
	return product(blas.NoTrans, a, b)
}

// ProductH returns a^†*b.
func ProductH(a, b *mat.CDense) *mat.CDense {
	return product(blas.ConjTrans, a, b)
}

// Transform returns u^†*a*u, the matrix a expressed in the basis of the columns of u.
func Transform(a, u *mat.CDense) *mat.CDense {
	return ProductH(u, Product(a, u))
}

func product(tA blas.Transpose, a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	_, bc := b.Dims()
	r := ar
	if tA != blas.NoTrans {
		r = ac
	}
	dst := mat.NewCDense(r, bc, nil)
	cblas128.Gemm(tA, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, dst.RawCMatrix())
	return dst
}

func vecDot(x, y []complex128) complex128 {
	var d complex128
	for i, xi := range x {
		d += complex(real(xi), -imag(xi)) * y[i]
	}
	return d
}

func vecNorm(x []complex128) float64 {
	var n float64
	for _, xi := range x {
		n += real(xi)*real(xi) + imag(xi)*imag(xi)
	}
	return math.Sqrt(n)
}
