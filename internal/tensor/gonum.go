package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToDense copies a rank-2 tensor into a gonum dense matrix.
func ToDense[T Numeric](t *Tensor[T]) (*mat.Dense, error) {
	if t.Rank() != 2 {
		return nil, fmt.Errorf("%w: gonum matrices need rank 2, got shape %v", ErrUnsupportedRank, t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: gonum matrices cannot be empty, got shape %v", ErrShape, t.shape)
	}
	data := make([]float64, len(t.data))
	for i, v := range t.data {
		data[i] = float64(v)
	}
	return mat.NewDense(rows, cols, data), nil
}

// FromGonum copies any gonum matrix into a rank-2 float64 tensor.
func FromGonum(m mat.Matrix) *Tensor[float64] {
	rows, cols := m.Dims()
	out := newTensor[float64](Shape{rows, cols})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[i*cols+j] = m.At(i, j)
		}
	}
	return out
}
