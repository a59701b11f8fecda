package spin

import (
	"fmt"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
)

const (
	axesTol = 1e-8
)

// CenterOptions are options for creating a spin center.
type CenterOptions struct {
	nuclearG    float64
	hasNuclearG bool
}

// NewCenterOptions returns the default center options.
func NewCenterOptions() CenterOptions {
	return CenterOptions{}
}

// NuclearG sets the nuclear g factor, required for nuclear centers.
func (opt CenterOptions) NuclearG(g float64) CenterOptions {
	opt.nuclearG = g
	opt.hasNuclearG = true
	return opt
}

// A Center is a single spin with its own reference frame, g tensor and zero-field splitting.
//
// The g tensor and the zero-field splitting tensor are stored by their principal values in the local frame.
// Their Cartesian forms are recomputed from the current frame on every call,
// so changing the axes never compounds earlier rotations.
type Center struct {
	s    float64
	dim  int
	kind Kind

	g    [3]float64
	axes *gmat.Dense

	zfsD    float64
	zfsE    float64
	zfsAxes *gmat.Dense
}

// NewCenter returns a center of spin s.
// Electronic centers start with the free electron g value.
// The g values of nuclear centers are -gN in units of Bohr magnetons,
// so that moments are built with the same formula for both kinds.
func NewCenter(s float64, kind Kind, options ...CenterOptions) (*Center, error) {
	opt := NewCenterOptions()
	if len(options) > 0 {
		opt = options[0]
	}

	dim, err := Multiplicity(s)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	c := &Center{s: s, dim: dim, kind: kind, axes: identity(), zfsAxes: identity()}
	switch kind {
	case Electronic:
		c.g = [3]float64{GFree, GFree, GFree}
	case Nuclear:
		if !opt.hasNuclearG {
			return nil, errors.Wrapf(ErrMissingNuclearG, "%v", s)
		}
		g := -opt.nuclearG * MuNBohr
		c.g = [3]float64{g, g, g}
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%d", kind)
	}
	return c, nil
}

func (c *Center) S() float64 { return c.s }
func (c *Center) Dim() int   { return c.dim }
func (c *Center) Kind() Kind { return c.kind }

// PrincipalG returns the g values in the local frame.
func (c *Center) PrincipalG() [3]float64 { return c.g }

// SetG sets the g values along the local axes.
func (c *Center) SetG(g [3]float64) {
	c.g = g
}

// Axes returns a copy of the local frame, whose columns are the local axes.
func (c *Center) Axes() *gmat.Dense {
	return gmat.DenseCopyOf(c.axes)
}

// SetAxes replaces the local frame.
// Setting the same frame twice is the same as setting it once.
func (c *Center) SetAxes(axes gmat.Matrix) error {
	a, err := checkAxes(axes)
	if err != nil {
		return errors.Wrap(err, "")
	}
	c.axes = a
	return nil
}

// Rotate rotates the local frame by r, so that the new frame is r*axes.
// Rotating by r and then by its transpose restores the frame.
func (c *Center) Rotate(r gmat.Matrix) error {
	rot, err := checkAxes(r)
	if err != nil {
		return errors.Wrap(err, "")
	}
	var a gmat.Dense
	a.Mul(rot, c.axes)
	c.axes = &a
	return nil
}

// SetZFS sets the axial and rhombic zero-field splitting parameters D and E.
// The optional axes are relative to the local frame, nil means the two coincide.
func (c *Center) SetZFS(d, e float64, axes gmat.Matrix) error {
	z := identity()
	if axes != nil {
		var err error
		if z, err = checkAxes(axes); err != nil {
			return errors.Wrap(err, "")
		}
	}
	c.zfsD, c.zfsE, c.zfsAxes = d, e, z
	return nil
}

// ZFSParams returns D and E.
func (c *Center) ZFSParams() (float64, float64) { return c.zfsD, c.zfsE }

// G returns the g tensor in the reference frame, axes*diag(g)*axes^T.
func (c *Center) G() *gmat.Dense {
	return rotate(c.axes, gmat.NewDiagDense(3, c.g[:]))
}

// ZFSTensor returns the zero-field splitting tensor in the reference frame.
func (c *Center) ZFSTensor() *gmat.Dense {
	d, e := c.zfsD, c.zfsE
	diag := gmat.NewDiagDense(3, []float64{-d/3 + e, -d/3 - e, 2 * d / 3})
	var frame gmat.Dense
	frame.Mul(c.axes, c.zfsAxes)
	return rotate(&frame, diag)
}

// Spin returns Sx, Sy, Sz.
func (c *Center) Spin() [3]*mat.COO {
	ops, err := Operators(c.s)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return ops
}

// Moment returns the magnetic moment operators M_c = -sum_k G[c,k]*S_k, multiplied by scale.
// With scale 1 the unit is the Bohr magneton.
func (c *Center) Moment(scale float64) [3]*mat.COO {
	ops := c.Spin()
	g := c.G()

	var m [3]*mat.COO
	for i := range m {
		m[i] = mat.COOZeros(c.dim, c.dim)
		for k, op := range ops {
			gik := g.At(i, k)
			if gik == 0 {
				continue
			}
			m[i].Add(complex(-gik*scale, 0), op)
		}
	}
	return m
}

// ZFS returns the zero-field splitting operator
//
//	sum_{k<l} D_kl (S_k S_l + S_l S_k) + sum_k D_kk S_k^2.
func (c *Center) ZFS() *mat.COO {
	ops := c.Spin()
	d := c.ZFSTensor()

	h := mat.COOZeros(c.dim, c.dim)
	for k := 0; k < 3; k++ {
		for l := k + 1; l < 3; l++ {
			dkl := d.At(k, l)
			if dkl == 0 {
				continue
			}
			h.Add(complex(dkl, 0), ops[k].MatMul(ops[l]))
			h.Add(complex(dkl, 0), ops[l].MatMul(ops[k]))
		}
		if dkk := d.At(k, k); dkk != 0 {
			h.Add(complex(dkk, 0), ops[k].MatMul(ops[k]))
		}
	}
	return h
}

// checkAxes returns a copy of a, after checking that it is a proper rotation.
func checkAxes(a gmat.Matrix) (*gmat.Dense, error) {
	if r, c := a.Dims(); r != 3 || c != 3 {
		return nil, errors.Wrapf(ErrInvalidAxes, "shape %dx%d", r, c)
	}

	var check gmat.Dense
	check.Mul(a.T(), a)
	check.Sub(&check, identity())
	if n := gmat.Norm(&check, 2); n > axesTol {
		return nil, errors.Wrapf(ErrInvalidAxes, "not orthonormal %g", n)
	}
	if det := gmat.Det(a); det < 0 {
		return nil, errors.Wrapf(ErrInvalidAxes, "left handed %g", det)
	}
	return gmat.DenseCopyOf(a), nil
}

// rotate returns a*t*a^T.
func rotate(a, t gmat.Matrix) *gmat.Dense {
	var at, r gmat.Dense
	at.Mul(a, t)
	r.Mul(&at, a.T())
	return &r
}

func identity() *gmat.Dense {
	return gmat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
