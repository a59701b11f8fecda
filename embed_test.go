package spinham

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"

	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/spin"
)

func TestEmbedderSingle(t *testing.T) {
	t.Parallel()
	sz := mat.M([][]complex128{
		{0.5, 0},
		{0, -0.5},
	})
	e, err := NewEmbedder([]int{3, 2, 2}, DefaultMaxDim)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	dst, buf := mat.COOZeros(e.Dim(), e.Dim()), mat.COOZeros(1, 1)
	if err := e.Single(dst, buf, 2, 1, sz); err != nil {
		t.Fatalf("%+v", err)
	}

	want := mat.COOIdentity(3)
	want.Kron(sz)
	want.Kron(mat.COOIdentity(2))
	want.Kron(mat.M([][]complex128{{2}}))
	if !dst.Equal(want) {
		t.Fatalf("%s, expected %s", dst, want)
	}
}

func TestEmbedderSkipsZeros(t *testing.T) {
	t.Parallel()
	e, err := NewEmbedder([]int{2, 2}, DefaultMaxDim)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	dst, buf := mat.COOZeros(4, 4), mat.COOZeros(1, 1)
	if err := e.Single(dst, buf, 1, 0, mat.COOZeros(2, 2)); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := e.Pair(dst, buf, 1e-10, 0, mat.M(mat.PauliX), 1, mat.M(mat.PauliX)); err != nil {
		t.Fatalf("%+v", err)
	}
	if len(dst.Data) != 0 {
		t.Fatalf("%s", dst)
	}
	if buf.Rows() != 1 {
		t.Fatalf("buf touched %d", buf.Rows())
	}
}

func TestEmbedderErrors(t *testing.T) {
	t.Parallel()
	if _, err := NewEmbedder([]int{10, 10, 11}, DefaultMaxDim); !errors.Is(err, ErrDimensionTooLarge) {
		t.Fatalf("%+v, expected %v", err, ErrDimensionTooLarge)
	}
	if _, err := NewEmbedder(nil, DefaultMaxDim); !errors.Is(err, ErrEmptySystem) {
		t.Fatalf("%+v, expected %v", err, ErrEmptySystem)
	}

	e, err := NewEmbedder([]int{2, 3}, DefaultMaxDim)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	dst, buf := mat.COOZeros(6, 6), mat.COOZeros(1, 1)
	if err := e.Single(dst, buf, 1, 1, mat.M(mat.PauliX)); err == nil {
		t.Fatalf("expected dimension mismatch")
	}
	if err := e.Single(dst, buf, 1, 2, mat.M(mat.PauliX)); err == nil {
		t.Fatalf("expected index out of range")
	}
	if err := e.Single(mat.COOZeros(2, 2), buf, 1, 0, mat.M(mat.PauliX)); err == nil {
		t.Fatalf("expected destination mismatch")
	}
	if err := e.Pair(dst, buf, 1, 0, mat.M(mat.PauliX), 0, mat.M(mat.PauliZ)); !errors.Is(err, ErrSelfInteraction) {
		t.Fatalf("%+v, expected %v", err, ErrSelfInteraction)
	}
}

func TestEmbedderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("embedding equals the uncoupled tensor product", prop.ForAll(
		func(seed int64, n int) bool {
			rnd := rand.New(rand.NewSource(seed))
			dims, spins := randomDims(rnd, n)
			i := rnd.Intn(n)
			op, err := spin.Operator(spins[i], spin.Components[rnd.Intn(3)])
			if err != nil {
				return false
			}

			e, err := NewEmbedder(dims, DefaultMaxDim)
			if err != nil {
				return false
			}
			dst, buf := mat.COOZeros(e.Dim(), e.Dim()), mat.COOZeros(1, 1)
			if err := e.Single(dst, buf, 1, i, op); err != nil {
				return false
			}

			direct := mat.COOIdentity(1)
			for k, d := range dims {
				switch {
				case k == i:
					direct.Kron(op)
				default:
					direct.Kron(mat.COOIdentity(d))
				}
			}
			return dst.EqualApprox(direct, 1e-12)
		},
		gen.Int64(),
		gen.IntRange(1, 4),
	))

	properties.Property("pair embedding does not depend on argument order", prop.ForAll(
		func(seed int64, n int) bool {
			rnd := rand.New(rand.NewSource(seed))
			dims, spins := randomDims(rnd, n)
			i, j := rnd.Intn(n), rnd.Intn(n-1)
			if j >= i {
				j++
			}
			op1, err := spin.Operator(spins[i], spin.Components[rnd.Intn(3)])
			if err != nil {
				return false
			}
			op2, err := spin.Operator(spins[j], spin.Components[rnd.Intn(3)])
			if err != nil {
				return false
			}

			e, err := NewEmbedder(dims, DefaultMaxDim)
			if err != nil {
				return false
			}
			a, b, buf := mat.COOZeros(e.Dim(), e.Dim()), mat.COOZeros(e.Dim(), e.Dim()), mat.COOZeros(1, 1)
			if err := e.Pair(a, buf, 0.7, i, op1, j, op2); err != nil {
				return false
			}
			if err := e.Pair(b, buf, 0.7, j, op2, i, op1); err != nil {
				return false
			}

			// The product of two single embeddings acts on different factors, so it equals the pair embedding.
			s1, s2 := mat.COOZeros(e.Dim(), e.Dim()), mat.COOZeros(e.Dim(), e.Dim())
			if err := e.Single(s1, buf, 0.7, i, op1); err != nil {
				return false
			}
			if err := e.Single(s2, buf, 1, j, op2); err != nil {
				return false
			}
			return a.Equal(b) && a.EqualApprox(s1.MatMul(s2), 1e-12)
		},
		gen.Int64(),
		gen.IntRange(2, 4),
	))

	properties.TestingRun(t)
}

func randomDims(rnd *rand.Rand, n int) ([]int, []float64) {
	dims := make([]int, n)
	spins := make([]float64, n)
	for k := range dims {
		twoS := 1 + rnd.Intn(3)
		spins[k] = float64(twoS) / 2
		dims[k] = twoS + 1
	}
	return dims, spins
}
