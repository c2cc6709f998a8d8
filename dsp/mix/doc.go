// Package mix provides orthogonal mixing matrices for multi-channel feedback
// and diffusion networks.
//
// Both transforms work in place on a channel vector and preserve its energy:
//   - Hadamard: recursive butterfly, O(N log N), N must be a power of two.
//   - Householder: reflection I - 2/N * 1*1^T, O(N), any N.
package mix
