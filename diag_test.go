package spinham

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

func kramersQuartet() (*mat.COO, [3]mat.Matrix) {
	sq3t := complex(10*math.Sqrt(3), 0)
	sq3 := complex(math.Sqrt(3), 0)
	h := mat.M([][]complex128{
		{-247.5, 0, sq3t, 0},
		{0, -27.5, 0, sq3t},
		{sq3t, 0, -27.5, 0},
		{0, sq3t, 0, -247.5},
	})
	mx := mat.M([][]complex128{
		{0, sq3, 0, 0},
		{sq3, 0, 2, 0},
		{0, 2, 0, sq3},
		{0, 0, sq3, 0},
	})
	my := mat.M([][]complex128{
		{0, -sq3 * 1i, 0, 0},
		{sq3 * 1i, 0, -2i, 0},
		{0, 2i, 0, -sq3 * 1i},
		{0, 0, sq3 * 1i, 0},
	})
	mz := mat.M([][]complex128{
		{3, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, -1, 0},
		{0, 0, 0, -3},
	})
	return h, [3]mat.Matrix{mx, my, mz}
}

func TestDiagonalizeKramers(t *testing.T) {
	t.Parallel()
	h, m := kramersQuartet()
	hOrig := h.Clone()

	eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !h.Equal(hOrig) {
		t.Fatalf("hamiltonian modified %s", h)
	}
	vals := []float64{-248.85528726, -248.85528726, -26.14471274, -26.14471274}
	for i, v := range eig.Values {
		if math.Abs(v-vals[i]) > 1e-7 {
			t.Fatalf("%v, expected %v", eig.Values, vals)
		}
	}

	// Within each Kramers pair the state with positive moment comes first.
	mzT := eig.Transform(m[spin.Z])
	mzDiag := []float64{2.97565832, -2.97565832, 0.97565832, -0.97565832}
	for i, v := range mzDiag {
		if d := mzT.At(i, i); math.Abs(real(d)-v) > 1e-7 || math.Abs(imag(d)) > 1e-10 {
			t.Fatalf("%d %v, expected %f", i, d, v)
		}
	}
	for _, ij := range [][2]int{{0, 1}, {1, 0}, {2, 3}, {3, 2}} {
		if d := mzT.At(ij[0], ij[1]); cmplx.Abs(d) > 1e-10 {
			t.Fatalf("%v %v", ij, d)
		}
	}
	if d := cmplx.Abs(mzT.At(0, 3)); math.Abs(d-0.31108551) > 1e-7 {
		t.Fatalf("%f", d)
	}

	checkUnitary(t, eig.Vectors)
	hT := eig.Transform(h)
	for i := range eig.Values {
		for j := range eig.Values {
			var want complex128
			if i == j {
				want = complex(eig.Values[i], 0)
			}
			if cmplx.Abs(hT.At(i, j)-want) > 1e-9 {
				t.Fatalf("%d %d %v, expected %v", i, j, hT.At(i, j), want)
			}
		}
	}
}

func TestDiagonalizeField(t *testing.T) {
	t.Parallel()
	h, m := kramersQuartet()
	eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m).Field([3]float64{0.1, 0.1, 5}))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	vals := []float64{-255.80378613, -241.91164761, -28.42353524, -23.86103102}
	for i, v := range eig.Values {
		if math.Abs(v-vals[i]) > 1e-7 {
			t.Fatalf("%v, expected %v", eig.Values, vals)
		}
	}

	if _, err := Diagonalize(h, NewDiagonalizeOptions().Field([3]float64{0, 0, 1})); err == nil {
		t.Fatalf("expected error for field without moment")
	}
}

func TestDiagonalizeWithoutMoment(t *testing.T) {
	t.Parallel()
	h, _ := kramersQuartet()
	eig, err := Diagonalize(h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(eig.ValVecs()) != 4 {
		t.Fatalf("%v", eig.ValVecs())
	}
	if math.Abs(eig.Values[0]+248.85528726) > 1e-7 {
		t.Fatalf("%v", eig.Values)
	}
	checkUnitary(t, eig.Vectors)
}

func TestDegenerateRuns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		vals []float64
		runs [][2]int
	}{
		{vals: []float64{0}, runs: [][2]int{}},
		{vals: []float64{0, 1, 2}, runs: [][2]int{}},
		{vals: []float64{0, 0, 1, 1.0005, 1.0009, 3}, runs: [][2]int{{0, 2}, {2, 5}}},
		{vals: []float64{-1, -1, -1, -1}, runs: [][2]int{{0, 4}}},
	}
	for _, test := range tests {
		runs := degenerateRuns(test.vals, 1e-3)
		if len(runs) != len(test.runs) {
			t.Fatalf("%v, expected %v", runs, test.runs)
		}
		for i, r := range runs {
			if r != test.runs[i] {
				t.Fatalf("%v, expected %v", runs, test.runs)
			}
		}
	}
}

func TestDiagonalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("z moment is diagonal within degenerate runs", prop.ForAll(
		func(seed int64) bool {
			rnd := rand.New(rand.NewSource(seed))
			h, m := randomSystem(rnd)
			eig, err := Diagonalize(h, NewDiagonalizeOptions().Moment(m))
			if err != nil {
				return false
			}
			mzT := eig.Transform(m[spin.Z])
			for _, run := range degenerateRuns(eig.Values, 1e-3) {
				for i := run[0]; i < run[1]; i++ {
					for j := run[0]; j < run[1]; j++ {
						if i != j && cmplx.Abs(mzT.At(i, j)) > 1e-8 {
							return false
						}
					}
					if i+1 < run[1] && real(mzT.At(i, i)) < real(mzT.At(i+1, i+1))-1e-8 {
						return false
					}
				}
			}
			return isUnitary(eig.Vectors, 1e-8)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// randomSystem returns an exchange coupled system with random zero-field splittings,
// whose half-integer total spin gives Kramers degenerate levels.
func randomSystem(rnd *rand.Rand) (*mat.COO, [3]mat.Matrix) {
	sys := NewSystem()
	spins := []float64{0.5, 1, 1.5}
	for i, s := range spins[:1+rnd.Intn(3)] {
		c, err := spin.NewCenter(s, spin.Electronic)
		if err != nil {
			panic(err)
		}
		c.SetG([3]float64{1.8 + 0.4*rnd.Float64(), 1.8 + 0.4*rnd.Float64(), 1.8 + 0.4*rnd.Float64()})
		if err := c.SetZFS(10*rnd.NormFloat64(), rnd.NormFloat64(), nil); err != nil {
			panic(err)
		}
		label := string(rune('a' + i))
		if err := sys.Add(label, c); err != nil {
			panic(err)
		}
		if i > 0 {
			if err := sys.SetInteraction("a", label, 5*rnd.NormFloat64(), rnd.NormFloat64(), 0); err != nil {
				panic(err)
			}
		}
	}

	h, buf := mat.COOZeros(1, 1), mat.COOZeros(1, 1)
	if err := sys.Hamiltonian(h, buf); err != nil {
		panic(err)
	}
	m := [3]mat.Matrix{mat.COOZeros(1, 1), mat.COOZeros(1, 1), mat.COOZeros(1, 1)}
	if err := sys.Moment(m, buf, 1); err != nil {
		panic(err)
	}
	return h, m
}

func checkUnitary(t *testing.T, u *gmat.CDense) {
	if !isUnitary(u, 1e-10) {
		t.Fatalf("not unitary")
	}
}

func isUnitary(u *gmat.CDense, tol float64) bool {
	uu := mat.ProductH(u, u)
	n, _ := uu.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var want complex128
			if i == j {
				want = 1
			}
			if cmplx.Abs(uu.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}
