package spin

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/spinham/mat"
)

// maxTwoS bounds 2S so that 2S+1 fits in an int on every platform.
const maxTwoS = math.MaxInt32 - 1

// Multiplicity returns 2S+1.
func Multiplicity(s float64) (int, error) {
	twoS := 2 * s
	if math.IsNaN(twoS) || math.IsInf(twoS, 0) || twoS < 0 || twoS > maxTwoS || twoS != math.Trunc(twoS) {
		return 0, errors.Wrapf(ErrInvalidSpin, "%v", s)
	}
	return int(twoS) + 1, nil
}

// Operator returns the matrix of S_c in the basis Ms = S, S-1, ..., -S.
// The off-diagonal elements follow the Condon-Shortley phase convention.
func Operator(s float64, c Component) (*mat.COO, error) {
	if !c.valid() {
		return nil, errors.Wrapf(ErrUnknownComponent, "%d", c)
	}
	d, err := Multiplicity(s)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	dense := make([][]complex128, d)
	for i := range dense {
		dense[i] = make([]complex128, d)
	}
	ss1 := s * (s + 1)
	ms := s
	for k := 0; k < d; k++ {
		if c == Z {
			dense[k][k] = complex(ms, 0)
		}
		if k+1 < d {
			// <Ms-1|S-|Ms> = sqrt(S(S+1) - Ms(Ms-1))
			val := math.Sqrt(ss1 - ms*(ms-1))
			switch c {
			case X:
				dense[k+1][k] = complex(0.5*val, 0)
				dense[k][k+1] = complex(0.5*val, 0)
			case Y:
				dense[k+1][k] = complex(0, 0.5*val)
				dense[k][k+1] = complex(0, -0.5*val)
			}
		}
		ms--
	}
	return mat.M(dense), nil
}

// Operators returns Sx, Sy, Sz.
func Operators(s float64) ([3]*mat.COO, error) {
	var ops [3]*mat.COO
	for i, c := range Components {
		op, err := Operator(s, c)
		if err != nil {
			return ops, errors.Wrap(err, "")
		}
		ops[i] = op
	}
	return ops, nil
}
