package spinham

import (
	"slices"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

const (
	DefaultMaxDim = 1000
)

// SystemOptions are options for a composite spin system.
type SystemOptions struct {
	maxDim int
}

// NewSystemOptions returns the default system options.
func NewSystemOptions() SystemOptions {
	opt := SystemOptions{}
	opt.maxDim = DefaultMaxDim
	return opt
}

// MaxDim sets the largest product space dimension operators may be assembled in.
func (opt SystemOptions) MaxDim(d int) SystemOptions {
	opt.maxDim = d
	return opt
}

// An Interaction is a coupling tensor between two centers, stored before any frame correction.
type Interaction struct {
	Label1 string
	Label2 string
	J      *gmat.Dense
}

// A System is an ordered collection of labeled spin centers and the interactions between them.
// The order of the centers is the order of the factors in the tensor product space.
type System struct {
	opt          SystemOptions
	centers      map[string]*spin.Center
	order        []string
	interactions []Interaction
}

func NewSystem(options ...SystemOptions) *System {
	opt := NewSystemOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	s := &System{opt: opt, centers: make(map[string]*spin.Center)}
	return s
}

// Add appends a center under label.
func (s *System) Add(label string, c *spin.Center) error {
	if c == nil {
		return errors.Wrapf(ErrNilCenter, "%q", label)
	}
	if _, ok := s.centers[label]; ok {
		return errors.Wrapf(ErrDuplicateLabel, "%q", label)
	}
	s.centers[label] = c
	s.order = append(s.order, label)
	return nil
}

// SetOrder reorders the centers. labels must be a permutation of the current labels.
func (s *System) SetOrder(labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := s.centers[l]; !ok {
			return errors.Wrapf(ErrUnknownLabel, "%q", l)
		}
		if _, ok := seen[l]; ok {
			return errors.Wrapf(ErrDuplicateLabel, "%q", l)
		}
		seen[l] = struct{}{}
	}
	if len(labels) != len(s.order) {
		return errors.Wrapf(ErrIncompleteOrder, "%v %v", labels, s.order)
	}
	s.order = slices.Clone(labels)
	return nil
}

// SetInteraction couples two centers with isotropic, axial and rhombic exchange parameters.
// The coupling tensor diag(iso-axial/3+rhombic, iso-axial/3+rhombic, iso+2*axial/3)
// is taken in the frame of label1 and corrected for the relative frame of label2 on assembly.
func (s *System) SetInteraction(label1, label2 string, iso, axial, rhombic float64) error {
	for _, l := range []string{label1, label2} {
		if _, ok := s.centers[l]; !ok {
			return errors.Wrapf(ErrUnknownLabel, "%q", l)
		}
	}
	if label1 == label2 {
		return errors.Wrapf(ErrSelfInteraction, "%q", label1)
	}

	perp := iso - axial/3 + rhombic
	j := gmat.NewDiagDense(3, []float64{perp, perp, iso + 2*axial/3})
	s.interactions = append(s.interactions, Interaction{Label1: label1, Label2: label2, J: gmat.DenseCopyOf(j)})
	return nil
}

// Dim returns the dimension of the product space.
func (s *System) Dim() int {
	dim := 1
	for _, l := range s.order {
		dim *= s.centers[l].Dim()
	}
	return dim
}

// Order returns the labels in the order of the tensor product.
func (s *System) Order() []string {
	return slices.Clone(s.order)
}

func (s *System) Center(label string) (*spin.Center, bool) {
	c, ok := s.centers[label]
	return c, ok
}

func (s *System) Interactions() []Interaction {
	return slices.Clone(s.interactions)
}

// Spin assembles the total spin operators into dst, one matrix per component.
func (s *System) Spin(dst [3]mat.Matrix, buf mat.Matrix) error {
	e, err := s.embedder()
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, d := range dst {
		d.Zeros(e.Dim(), e.Dim())
	}

	for i, l := range s.order {
		ops := s.centers[l].Spin()
		for k, op := range ops {
			if err := e.Single(dst[k], buf, 1, i, op); err != nil {
				return errors.Wrapf(err, "%s", l)
			}
		}
	}
	return nil
}

// Moment assembles the total magnetic moment operators into dst.
// With scale 1 the unit is the Bohr magneton, spin.MuBcm gives cm^-1/T.
func (s *System) Moment(dst [3]mat.Matrix, buf mat.Matrix, scale float64) error {
	e, err := s.embedder()
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, d := range dst {
		d.Zeros(e.Dim(), e.Dim())
	}

	for i, l := range s.order {
		ops := s.centers[l].Moment(scale)
		for k, op := range ops {
			if err := e.Single(dst[k], buf, 1, i, op); err != nil {
				return errors.Wrapf(err, "%s", l)
			}
		}
	}
	return nil
}

// Hamiltonian assembles the Hamiltonian into h.
// Without a field, it contains the zero-field splitting of every center and the pairwise exchange.
// A field in Tesla adds the Zeeman term -B·M, in the same unit cm^-1.
func (s *System) Hamiltonian(h, buf mat.Matrix, field ...[3]float64) error {
	e, err := s.embedder()
	if err != nil {
		return errors.Wrap(err, "")
	}
	h.Zeros(e.Dim(), e.Dim())

	for i, l := range s.order {
		if err := e.Single(h, buf, 1, i, s.centers[l].ZFS()); err != nil {
			return errors.Wrapf(err, "%s", l)
		}
	}

	for _, inter := range s.interactions {
		if err := s.exchange(h, buf, e, inter); err != nil {
			return errors.Wrapf(err, "%s %s", inter.Label1, inter.Label2)
		}
	}

	if len(field) > 0 {
		b := field[0]
		for i, l := range s.order {
			ops := s.centers[l].Moment(spin.MuBcm)
			for k, op := range ops {
				if err := e.Single(h, buf, complex(-b[k], 0), i, op); err != nil {
					return errors.Wrapf(err, "%s", l)
				}
			}
		}
	}
	return nil
}

// exchange adds sum_kl Jt[k,l] S_k(1) S_l(2), where Jt = R*J*R and R = axes1*axes2^T.
func (s *System) exchange(h, buf mat.Matrix, e *Embedder, inter Interaction) error {
	c1, c2 := s.centers[inter.Label1], s.centers[inter.Label2]
	i1, i2 := slices.Index(s.order, inter.Label1), slices.Index(s.order, inter.Label2)

	var r, rj, jt gmat.Dense
	r.Mul(c1.Axes(), c2.Axes().T())
	rj.Mul(&r, inter.J)
	jt.Mul(&rj, &r)

	ops1, ops2 := c1.Spin(), c2.Spin()
	for k := range ops1 {
		for l := range ops2 {
			if err := e.Pair(h, buf, complex(jt.At(k, l), 0), i1, ops1[k], i2, ops2[l]); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}
	return nil
}

func (s *System) embedder() (*Embedder, error) {
	dims := make([]int, 0, len(s.order))
	for _, l := range s.order {
		dims = append(dims, s.centers[l].Dim())
	}
	e, err := NewEmbedder(dims, s.opt.maxDim)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return e, nil
}
