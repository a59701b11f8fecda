package spinham

import (
	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

// DiagonalizeOptions are options for diagonalizing a spin Hamiltonian.
type DiagonalizeOptions struct {
	moment   []mat.Matrix
	field    [3]float64
	hasField bool
	tol      float64
}

// NewDiagonalizeOptions returns the default options.
func NewDiagonalizeOptions() DiagonalizeOptions {
	opt := DiagonalizeOptions{}
	opt.tol = 1e-3
	return opt
}

// Moment sets the total magnetic moment operators, in Bohr magnetons.
// Its z component fixes the basis of degenerate eigenspaces.
func (opt DiagonalizeOptions) Moment(m [3]mat.Matrix) DiagonalizeOptions {
	opt.moment = m[:]
	return opt
}

// Field sets the magnetic field in Tesla, which requires Moment.
func (opt DiagonalizeOptions) Field(b [3]float64) DiagonalizeOptions {
	opt.field = b
	opt.hasField = true
	return opt
}

// Tol sets the energy difference below which consecutive levels are degenerate.
func (opt DiagonalizeOptions) Tol(tol float64) DiagonalizeOptions {
	opt.tol = tol
	return opt
}

// Eigen is the eigendecomposition of a spin Hamiltonian.
type Eigen struct {
	// Values are the energies in ascending order.
	Values []float64
	// Vectors holds the eigenstates in its columns.
	Vectors *gmat.CDense
}

// Diagonalize diagonalizes the Hermitian matrix h.
//
// With a moment, eigenvectors of every run of degenerate energies are rotated to
// diagonalize the z moment within the run, states with larger moment first.
// This is the usual choice of Kramers pairs.
// h and the moment are not modified.
func Diagonalize(h mat.Matrix, options ...DiagonalizeOptions) (Eigen, error) {
	opt := NewDiagonalizeOptions()
	if len(options) > 0 {
		opt = options[0]
	}

	hz := h.COO().Clone()
	if opt.hasField {
		if opt.moment == nil {
			return Eigen{}, errors.Errorf("field without moment")
		}
		for k, m := range opt.moment {
			if m.Rows() != hz.Rows() || m.Cols() != hz.Cols() {
				return Eigen{}, errors.Errorf("moment %d %dx%d, hamiltonian %dx%d", k, m.Rows(), m.Cols(), hz.Rows(), hz.Cols())
			}
			if b := opt.field[k]; b != 0 {
				hz.Add(complex(-b*spin.MuBcm, 0), m)
			}
		}
	}

	vals, vecs, err := mat.Hermitian(hz.CDense())
	if err != nil {
		return Eigen{}, errors.Wrap(err, "")
	}
	eig := Eigen{Values: vals, Vectors: vecs}
	if opt.moment == nil {
		return eig, nil
	}

	mz := opt.moment[spin.Z].COO()
	if mz.Rows() != hz.Rows() || mz.Cols() != hz.Cols() {
		return Eigen{}, errors.Errorf("moment %dx%d, hamiltonian %dx%d", mz.Rows(), mz.Cols(), hz.Rows(), hz.Cols())
	}
	mzT := mat.Transform(mz.CDense(), vecs)
	for _, run := range degenerateRuns(vals, opt.tol) {
		if err := canonicalize(vecs, mzT, run); err != nil {
			return Eigen{}, errors.Wrapf(err, "%v", run)
		}
	}
	return eig, nil
}

// degenerateRuns partitions ascending values into maximal runs [lo, hi) of width larger than one,
// in which consecutive values differ by less than tol.
func degenerateRuns(vals []float64, tol float64) [][2]int {
	runs := make([][2]int, 0)
	for lo := 0; lo < len(vals); {
		hi := lo + 1
		for hi < len(vals) && vals[hi]-vals[hi-1] < tol {
			hi++
		}
		if hi-lo > 1 {
			runs = append(runs, [2]int{lo, hi})
		}
		lo = hi
	}
	return runs
}

// canonicalize replaces the columns run of vecs by eigenvectors of -mzT restricted to the run.
func canonicalize(vecs, mzT *gmat.CDense, run [2]int) error {
	lo, hi := run[0], run[1]
	w := hi - lo
	sub := gmat.NewCDense(w, w, nil)
	for i := 0; i < w; i++ {
		for j := 0; j < w; j++ {
			sub.Set(i, j, -mzT.At(lo+i, lo+j))
		}
	}
	_, usub, err := mat.Hermitian(sub)
	if err != nil {
		return errors.Wrap(err, "")
	}

	n, _ := vecs.Dims()
	block := vecs.Slice(0, n, lo, hi).(*gmat.CDense)
	block.Copy(mat.Product(block, usub))
	return nil
}

// ValVecs returns the eigenpairs in ascending order.
func (eig Eigen) ValVecs() []mat.ValVec {
	n, _ := eig.Vectors.Dims()
	vvs := make([]mat.ValVec, 0, len(eig.Values))
	for j, v := range eig.Values {
		vec := make([]complex128, n)
		for i := range vec {
			vec[i] = eig.Vectors.At(i, j)
		}
		vvs = append(vvs, mat.ValVec{Val: v, Vec: vec})
	}
	return vvs
}

// Transform returns op in the eigenbasis, U^†*op*U.
func (eig Eigen) Transform(op mat.Matrix) *gmat.CDense {
	return mat.Transform(op.COO().CDense(), eig.Vectors)
}
