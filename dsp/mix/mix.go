package mix

import (
	"math"

	"github.com/cwbudde/algo-amp/dsp/core"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Hadamard applies the scaled Hadamard matrix to x in place. The result is
// multiplied by 1/sqrt(len(x)) so the transform is orthonormal. Vectors whose
// length is not a power of two are left untouched.
func Hadamard[T core.Sample](x []T) {
	n := len(x)
	if !IsPowerOfTwo(n) {
		return
	}

	hadamardUnscaled(x)

	scale := T(math.Sqrt(1 / float64(n)))
	for i := range x {
		x[i] *= scale
	}
}

func hadamardUnscaled[T core.Sample](x []T) {
	n := len(x)
	if n <= 1 {
		return
	}

	half := n / 2
	hadamardUnscaled(x[:half])
	hadamardUnscaled(x[half:])

	for i := range half {
		a, b := x[i], x[i+half]
		x[i] = a + b
		x[i+half] = a - b
	}
}

// Householder reflects x in place around the all-ones vector:
// x[i] += -2/N * sum(x).
func Householder[T core.Sample](x []T) {
	n := len(x)
	if n == 0 {
		return
	}

	var sum T
	for _, v := range x {
		sum += v
	}

	sum *= T(-2 / float64(n))
	for i := range x {
		x[i] += sum
	}
}
