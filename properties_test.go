package spinham

import (
	"fmt"
	"math"
	"testing"

	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

func TestBoltzmann(t *testing.T) {
	t.Parallel()
	f := Boltzmann([]float64{10, 10 + spin.KBcm*300, 10}, 300)
	want := []float64{1, math.Exp(-1), 1}
	for i, v := range f {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Fatalf("%v, expected %v", f, want)
		}
	}
	if Boltzmann(nil, 1) != nil {
		t.Fatalf("expected nil")
	}
}

func singleCenter(t *testing.T, s float64, g [3]float64, axes *gmat.Dense) (*mat.COO, [3]mat.Matrix) {
	c, err := spin.NewCenter(s, spin.Electronic)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	c.SetG(g)
	if axes != nil {
		if err := c.SetAxes(axes); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	sys := NewSystem()
	if err := sys.Add("c", c); err != nil {
		t.Fatalf("%+v", err)
	}
	h, buf := mat.COOZeros(1, 1), mat.COOZeros(1, 1)
	if err := sys.Hamiltonian(h, buf); err != nil {
		t.Fatalf("%+v", err)
	}
	m := [3]mat.Matrix{mat.COOZeros(1, 1), mat.COOZeros(1, 1), mat.COOZeros(1, 1)}
	if err := sys.Moment(m, buf, 1); err != nil {
		t.Fatalf("%+v", err)
	}
	return h, m
}

func TestChiTCurie(t *testing.T) {
	t.Parallel()
	tests := []struct {
		s float64
		g float64
	}{
		{s: 0.5, g: 2},
		{s: 1.5, g: spin.GFree},
	}
	for _, test := range tests {
		for _, temperature := range []float64{2, 300} {
			t.Run(fmt.Sprintf("%v %v %v", test.s, test.g, temperature), func(t *testing.T) {
				t.Parallel()
				h, m := singleCenter(t, test.s, [3]float64{test.g, test.g, test.g}, nil)
				eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m))
				if err != nil {
					t.Fatalf("%+v", err)
				}
				chiT, err := eig.ChiT(m, temperature)
				if err != nil {
					t.Fatalf("%+v", err)
				}

				curie := spin.ChiVVCGS * test.g * test.g * test.s * (test.s + 1) / 3
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						var want float64
						if i == j {
							want = curie
						}
						if math.Abs(chiT.At(i, j)-want) > 1e-10 {
							t.Fatalf("%v, expected %f", gmat.Formatted(chiT), curie)
						}
					}
				}
			})
		}
	}
}

func TestChiTErrors(t *testing.T) {
	t.Parallel()
	h, m := singleCenter(t, 0.5, [3]float64{2, 2, 2}, nil)
	eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := eig.ChiT(m, 0); err == nil {
		t.Fatalf("expected error for zero temperature")
	}
	small := [3]mat.Matrix{mat.COOZeros(1, 1), mat.COOZeros(1, 1), mat.COOZeros(1, 1)}
	if _, err := eig.ChiT(small, 1); err == nil {
		t.Fatalf("expected error for mismatched moment")
	}
	if _, err := eig.GTensor(m, 3); err == nil {
		t.Fatalf("expected error for too many states")
	}
}

func TestGTensor(t *testing.T) {
	t.Parallel()
	c, s := 0.5, 0.5*math.Sqrt(3)
	tests := []struct {
		name   string
		g      [3]float64
		axes   *gmat.Dense
		wantG  [3]float64
		unique int
	}{
		{
			name:   "prolate",
			g:      [3]float64{2, 2, 3.2},
			wantG:  [3]float64{2, 2, 3.2},
			unique: 2,
		},
		{
			name: "prolate rotated",
			g:    [3]float64{2, 2, 3.2},
			axes: gmat.NewDense(3, 3, []float64{
				c, 0, s,
				0, 1, 0,
				-s, 0, c,
			}),
			wantG:  [3]float64{2, 2, 3.2},
			unique: 2,
		},
		{
			name:   "oblate",
			g:      [3]float64{1, 3, 3},
			wantG:  [3]float64{3, 3, 1},
			unique: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			h, m := singleCenter(t, 0.5, test.g, test.axes)
			eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			gt, err := eig.GTensor(m, 2)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			for i, v := range gt.G {
				if math.Abs(v-test.wantG[i]) > 1e-9 {
					t.Fatalf("%v, expected %v", gt.G, test.wantG)
				}
			}
			if det := gmat.Det(gt.Axes); math.Abs(det-1) > 1e-9 {
				t.Fatalf("%f", det)
			}

			// The unique main axis is the local axis with the distinct g value.
			local := gmat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
			if test.axes != nil {
				local = test.axes
			}
			var dot float64
			for r := 0; r < 3; r++ {
				dot += gt.Axes.At(r, 2) * local.At(r, test.unique)
			}
			if math.Abs(math.Abs(dot)-1) > 1e-9 {
				t.Fatalf("%v %f", gmat.Formatted(gt.Axes), dot)
			}
		})
	}
}
