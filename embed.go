package spinham

import (
	"math/cmplx"

	"github.com/pkg/errors"

	"github.com/fumin/spinham/mat"
)

const (
	// numThr is the magnitude below which coefficients and operators are treated as zero.
	numThr = 1e-8
)

// An Embedder places operators acting on a few subsystems into the tensor product space of all subsystems.
type Embedder struct {
	dims []int
	dim  int
}

// NewEmbedder returns an embedder for subsystems of dimensions dims, in that order.
// It fails if the product space is larger than maxDim.
func NewEmbedder(dims []int, maxDim int) (*Embedder, error) {
	if len(dims) == 0 {
		return nil, errors.Wrap(ErrEmptySystem, "")
	}
	dim := 1
	for _, d := range dims {
		if d < 1 {
			return nil, errors.Errorf("%v", dims)
		}
		dim *= d
		if dim > maxDim {
			return nil, errors.Wrapf(ErrDimensionTooLarge, "%v > %d", dims, maxDim)
		}
	}
	e := &Embedder{dims: append([]int(nil), dims...), dim: dim}
	return e, nil
}

// Dim returns the dimension of the product space.
func (e *Embedder) Dim() int { return e.dim }

// Single adds c * I ⊗ op ⊗ I to dst, where op acts on subsystem i.
// buf is scratch space.
func (e *Embedder) Single(dst, buf mat.Matrix, c complex128, i int, op *mat.COO) error {
	if err := e.check(dst, i, op); err != nil {
		return errors.Wrap(err, "")
	}
	if cmplx.Abs(c) < numThr || op.Norm() < numThr {
		return nil
	}

	buf.Scalar(1)
	if before := e.span(0, i); before > 1 {
		buf.Kron(mat.COOIdentity(before))
	}
	buf.Kron(op)
	if after := e.span(i+1, len(e.dims)); after > 1 {
		buf.Kron(mat.COOIdentity(after))
	}

	dst.Add(c, buf)
	return nil
}

// Pair adds c * I ⊗ op1 ⊗ I ⊗ op2 ⊗ I to dst, where op1 acts on subsystem i and op2 on subsystem j.
// When j comes before i, the operators are placed in the order of their subsystems.
// buf is scratch space.
func (e *Embedder) Pair(dst, buf mat.Matrix, c complex128, i int, op1 *mat.COO, j int, op2 *mat.COO) error {
	if err := e.check(dst, i, op1); err != nil {
		return errors.Wrap(err, "")
	}
	if err := e.check(dst, j, op2); err != nil {
		return errors.Wrap(err, "")
	}
	if i == j {
		return errors.Wrapf(ErrSelfInteraction, "%d", i)
	}
	if j < i {
		i, j = j, i
		op1, op2 = op2, op1
	}
	if cmplx.Abs(c) < numThr || op1.Norm() < numThr || op2.Norm() < numThr {
		return nil
	}

	buf.Scalar(1)
	if before := e.span(0, i); before > 1 {
		buf.Kron(mat.COOIdentity(before))
	}
	buf.Kron(op1)
	if between := e.span(i+1, j); between > 1 {
		buf.Kron(mat.COOIdentity(between))
	}
	buf.Kron(op2)
	if after := e.span(j+1, len(e.dims)); after > 1 {
		buf.Kron(mat.COOIdentity(after))
	}

	dst.Add(c, buf)
	return nil
}

func (e *Embedder) check(dst mat.Matrix, i int, op *mat.COO) error {
	if dst.Rows() != e.dim || dst.Cols() != e.dim {
		return errors.Errorf("dst %dx%d, expected %d", dst.Rows(), dst.Cols(), e.dim)
	}
	if i < 0 || i >= len(e.dims) {
		return errors.Errorf("subsystem %d of %d", i, len(e.dims))
	}
	if op.Rows() != e.dims[i] || op.Cols() != e.dims[i] {
		return errors.Errorf("operator %dx%d, expected %d", op.Rows(), op.Cols(), e.dims[i])
	}
	return nil
}

// span returns the product of the dimensions of subsystems [from, to).
func (e *Embedder) span(from, to int) int {
	d := 1
	for _, di := range e.dims[from:to] {
		d *= di
	}
	return d
}
