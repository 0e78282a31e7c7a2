package tensor

import (
	"fmt"
	"math"
)

// OneHot encodes class labels as unit column vectors.
//
// labels is either rank 1 or a single [1, n] row. The result has shape
// [numClasses, n]; column j holds a 1 at row labels[j].
//
// Example:
//
//	labels := tensor.Must(tensor.FromVector([]float64{0, 1, 2}))
//	y, err := tensor.OneHot(labels, 3) // 3×3 identity
func OneHot[T Numeric](labels *Tensor[T], numClasses int) (*Tensor[float64], error) {
	switch {
	case labels.Rank() == 1:
	case labels.Rank() == 2 && labels.shape[0] == 1:
	default:
		return nil, fmt.Errorf("%w: labels must be rank 1 or [1, n], got %v", ErrShape, labels.shape)
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("%w: numClasses must be positive, got %d", ErrShape, numClasses)
	}

	n := len(labels.data)
	out := newTensor[float64](Shape{numClasses, n})
	for j, v := range labels.data {
		f := float64(v)
		if f != math.Trunc(f) || f < 0 || f >= float64(numClasses) {
			return nil, fmt.Errorf("%w: label %v at position %d (classes: %d)", ErrIndexOutOfRange, v, j, numClasses)
		}
		out.data[int(f)*n+j] = 1
	}
	return out, nil
}
