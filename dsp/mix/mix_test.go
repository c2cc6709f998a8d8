package mix

import (
	"math"
	"math/rand"
	"testing"
)

func norm(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s)
}

func TestHadamardPreservesEnergy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{1, 2, 4, 8, 16, 64} {
		for trial := range 20 {
			x := make([]float64, n)
			for i := range x {
				x[i] = rng.Float64()*2 - 1
			}

			before := norm(x)
			Hadamard(x)
			after := norm(x)

			if math.Abs(before-after) > 1e-12*math.Max(1, before) {
				t.Fatalf("n=%d trial=%d: ||Hx||=%v, ||x||=%v", n, trial, after, before)
			}
		}
	}
}

func TestHadamardIsInvolution(t *testing.T) {
	x := []float64{1, -2, 3, 0.5, 0, 7, -1, 2}
	y := append([]float64(nil), x...)

	Hadamard(y)
	Hadamard(y)

	for i := range x {
		if math.Abs(x[i]-y[i]) > 1e-12 {
			t.Fatalf("H(H(x))[%d] = %v, want %v", i, y[i], x[i])
		}
	}
}

func TestHadamardMatchesMatrix(t *testing.T) {
	matrix := [4][4]float64{
		{1, 1, 1, 1},
		{1, -1, 1, -1},
		{1, 1, -1, -1},
		{1, -1, -1, 1},
	}
	x := []float64{0.3, -0.1, 0.8, 0.2}

	want := make([]float64, 4)
	for i := range 4 {
		for j := range 4 {
			want[i] += matrix[i][j] * x[j] / 2
		}
	}

	got := append([]float64(nil), x...)
	Hadamard(got)

	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHadamardIgnoresNonPowerOfTwo(t *testing.T) {
	x := []float64{1, 2, 3}
	Hadamard(x)
	if x[0] != 1 || x[1] != 2 || x[2] != 3 {
		t.Fatalf("non power-of-two vector was modified: %v", x)
	}
}

func TestHadamardFloat32(t *testing.T) {
	x := []float32{1, 0, 0, 0}
	Hadamard(x)
	for i, v := range x {
		if math.Abs(float64(v)-0.5) > 1e-6 {
			t.Fatalf("x[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestHouseholderPreservesEnergy(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for _, n := range []int{2, 3, 4, 8, 12} {
		x := make([]float64, n)
		for i := range x {
			x[i] = rng.Float64()*2 - 1
		}

		before := norm(x)
		Householder(x)
		if after := norm(x); math.Abs(before-after) > 1e-12 {
			t.Fatalf("n=%d: ||Hx||=%v, ||x||=%v", n, after, before)
		}
	}
}

func TestHouseholderReflectsMean(t *testing.T) {
	x := []float64{1, 1, 1, 1}
	Householder(x)
	for i, v := range x {
		if math.Abs(v+1) > 1e-12 {
			t.Fatalf("x[%d] = %v, want -1", i, v)
		}
	}
}
