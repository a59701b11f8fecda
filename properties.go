package spinham

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

const (
	// minPopulation is the Boltzmann factor below which a state is left out of thermal averages.
	minPopulation = 1e-12
	// firstOrder is the energy gap in cm^-1 below which a pair of states contributes to
	// the susceptibility as if degenerate.
	firstOrder = 1e-3
)

// Boltzmann returns the Boltzmann factors exp(-(E-E0)/kT) of energies in cm^-1 at temperature T in Kelvin,
// where E0 is the lowest energy.
func Boltzmann(energies []float64, temperature float64) []float64 {
	if len(energies) == 0 {
		return nil
	}
	e0 := slices.Min(energies)
	beta := 1 / (spin.KBcm * temperature)
	f := make([]float64, len(energies))
	for i, e := range energies {
		f[i] = math.Exp(-(e - e0) * beta)
	}
	return f
}

// ChiT returns the van Vleck susceptibility tensor times temperature, in cm^3 K/mol.
// moment is the total magnetic moment in Bohr magnetons.
func (eig Eigen) ChiT(moment [3]mat.Matrix, temperature float64) (*gmat.Dense, error) {
	if temperature <= 0 {
		return nil, errors.Errorf("temperature %f", temperature)
	}
	n := len(eig.Values)
	var mT [3]*gmat.CDense
	for k, m := range moment {
		if m.Rows() != n || m.Cols() != n {
			return nil, errors.Errorf("moment %d %dx%d, expected %d", k, m.Rows(), m.Cols(), n)
		}
		mT[k] = eig.Transform(m)
	}

	f := Boltzmann(eig.Values, temperature)
	chiT := gmat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		if f[i] <= minPopulation {
			continue
		}
		for j := 0; j < n; j++ {
			fac := f[i]
			if gap := eig.Values[i] - eig.Values[j]; math.Abs(gap) >= firstOrder {
				fac = -2 * f[i] * spin.KBcm * temperature / gap
			}
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					v := real(mT[a].At(i, j) * mT[b].At(j, i))
					chiT.Set(a, b, chiT.At(a, b)+fac*v)
				}
			}
		}
	}

	var q float64
	for _, fi := range f {
		q += fi
	}
	chiT.Scale(spin.ChiVVCGS/q, chiT)
	return chiT, nil
}

// GTensor is the g tensor of a pseudospin, in its main magnetic axes.
type GTensor struct {
	// G are the principal g values.
	G [3]float64
	// Axes holds the main magnetic axes in its columns, forming a right handed frame.
	Axes *gmat.Dense
}

// GTensor returns the g tensor of the pseudospin spanned by the first states eigenstates.
// It follows the Gerloch-McMeeking construction A_ab = 1/2 Tr(M_a M_b),
// g_i = sqrt(6 A_i / (S(S+1)(2S+1))), with 2S+1 = states.
// The third axis is the unique one, chosen by whether the tensor is prolate or oblate.
func (eig Eigen) GTensor(moment [3]mat.Matrix, states int) (GTensor, error) {
	n := len(eig.Values)
	if states < 2 || states > n {
		return GTensor{}, errors.Errorf("states %d of %d", states, n)
	}
	var mu [3]*gmat.CDense
	for k, m := range moment {
		if m.Rows() != n || m.Cols() != n {
			return GTensor{}, errors.Errorf("moment %d %dx%d, expected %d", k, m.Rows(), m.Cols(), n)
		}
		mu[k] = eig.Transform(m)
	}

	a := gmat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var tr float64
			for k := 0; k < states; k++ {
				for l := 0; l < states; l++ {
					tr += real(mu[i].At(k, l) * mu[j].At(l, k))
				}
			}
			a.SetSym(i, j, 0.5*tr)
		}
	}

	var es gmat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return GTensor{}, errors.Errorf("eig.Factorize failed")
	}
	adia := es.Values(nil)
	var vecs gmat.Dense
	es.VectorsTo(&vecs)

	idx := [3]int{0, 1, 2}
	if adia[2]-adia[1] < adia[1]-adia[0] {
		// oblate
		idx = [3]int{1, 2, 0}
	}

	s := float64(states-1) / 2
	fac := 6 / (s * (s + 1) * (2*s + 1))
	gt := GTensor{Axes: gmat.NewDense(3, 3, nil)}
	for i, k := range idx {
		gt.G[i] = math.Sqrt(fac * max(adia[k], 0))
		for r := 0; r < 3; r++ {
			gt.Axes.Set(r, i, vecs.At(r, k))
		}
	}
	if gmat.Det(gt.Axes) < 0 {
		gt.Axes.Scale(-1, gt.Axes)
	}
	return gt, nil
}
