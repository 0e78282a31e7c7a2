package tensor

import "fmt"

// Dot computes the product of two tensors.
//
//   - rank 2 · rank 2: matrix product, (M, K) · (K, N) → (M, N)
//   - rank 1 · rank 1: element-wise product under the projection rule
//
// Any other pairing fails with ErrUnsupportedRank.
//
// Example:
//
//	a := tensor.Must(tensor.Ones[float64](tensor.Shape{3, 4}))
//	b := tensor.Must(tensor.Ones[float64](tensor.Shape{4, 5}))
//	c, err := tensor.Dot(a, b) // Shape: [3, 5]
func Dot[T Numeric](a, b *Tensor[T]) (*Tensor[T], error) {
	switch {
	case a.Rank() == 2 && b.Rank() == 2:
		return matmul(a, b)
	case a.Rank() == 1 && b.Rank() == 1:
		return a.Mul(b)
	default:
		return nil, fmt.Errorf("%w: dot of rank %d and rank %d", ErrUnsupportedRank, a.Rank(), b.Rank())
	}
}

// matmul is the naive O(n³) product. C[i,j] = sum_k A[i,k] * B[k,j], summed in
// float64 in k order whatever T is.
func matmul[T Numeric](a, b *Tensor[T]) (*Tensor[T], error) {
	m, k := a.shape[0], a.shape[1]
	kAlt, n := b.shape[0], b.shape[1]
	if k != kAlt {
		return nil, fmt.Errorf("%w: matmul [%d,%d] · [%d,%d]", ErrDimensionMismatch, m, k, kAlt, n)
	}

	out := newTensor[T](Shape{m, n})
	ad, bd, cd := a.data, b.data, out.data
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += float64(ad[i*k+kIdx]) * float64(bd[kIdx*n+j])
			}
			cd[i*n+j] = T(sum)
		}
	}
	return out, nil
}

// Transpose swaps the two axes of a rank-2 tensor.
func (t *Tensor[T]) Transpose() (*Tensor[T], error) {
	if t.Rank() != 2 {
		return nil, fmt.Errorf("%w: transpose needs rank 2, got shape %v", ErrUnsupportedRank, t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	out := newTensor[T](Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out, nil
}
