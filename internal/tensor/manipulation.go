package tensor

import "fmt"

// Slice returns a copy of the range [start, end) along axis.
//
// Example:
//
//	x := tensor.Must(tensor.Zeros[float64](tensor.Shape{784, 60000}))
//	batch, err := x.Slice(0, 32, 1) // Shape: [784, 32]
func (t *Tensor[T]) Slice(start, end, axis int) (*Tensor[T], error) {
	if err := t.shape.checkAxis(axis); err != nil {
		return nil, err
	}
	if start < 0 || start >= end || end > t.shape[axis] {
		return nil, fmt.Errorf("%w: [%d, %d) on axis %d of shape %v", ErrInvalidSlice, start, end, axis, t.shape)
	}

	outer, n, inner := t.shape.split(axis)
	width := end - start
	outShape := t.shape.Clone()
	outShape[axis] = width
	out := newTensor[T](outShape)
	for o := 0; o < outer; o++ {
		src := t.data[(o*n+start)*inner : (o*n+end)*inner]
		copy(out.data[o*width*inner:], src)
	}
	return out, nil
}

// Flatten merges two adjacent axes of a rank-3 tensor.
// Axis 0 merges the outer two axes ([d0*d1, d2]); axis 1 merges the inner two
// ([d0, d1*d2]). Element order is preserved.
//
// Example:
//
//	images := tensor.Must(tensor.Zeros[float64](tensor.Shape{50, 28, 28}))
//	flat, err := images.Flatten(1) // Shape: [50, 784]
func (t *Tensor[T]) Flatten(axis int) (*Tensor[T], error) {
	if t.Rank() != 3 {
		return nil, fmt.Errorf("%w: flatten needs rank 3, got shape %v", ErrUnsupportedRank, t.shape)
	}
	var shape Shape
	switch axis {
	case 0:
		shape = Shape{t.shape[0] * t.shape[1], t.shape[2]}
	case 1:
		shape = Shape{t.shape[0], t.shape[1] * t.shape[2]}
	default:
		return nil, fmt.Errorf("%w: flatten axis %d (want 0 or 1)", ErrInvalidAxis, axis)
	}
	return t.Reshape(shape)
}

// Reshape returns a copy with a different shape and the same element count.
func (t *Tensor[T]) Reshape(shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("%w: cannot reshape %v (%d elements) to %v", ErrShape, t.shape, len(t.data), shape)
	}
	out := newTensor[T](shape)
	copy(out.data, t.data)
	return out, nil
}

// ConcatColumns joins rank-2 tensors with equal row counts along axis 1.
func ConcatColumns[T Numeric](parts ...*Tensor[T]) (*Tensor[T], error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrShape)
	}
	rows, cols := -1, 0
	for i, p := range parts {
		if p.Rank() != 2 {
			return nil, fmt.Errorf("%w: part %d has shape %v", ErrUnsupportedRank, i, p.shape)
		}
		if rows >= 0 && p.shape[0] != rows {
			return nil, fmt.Errorf("%w: part %d has %d rows, expected %d", ErrDimensionMismatch, i, p.shape[0], rows)
		}
		rows = p.shape[0]
		cols += p.shape[1]
	}

	out := newTensor[T](Shape{rows, cols})
	offset := 0
	for _, p := range parts {
		w := p.shape[1]
		for r := 0; r < rows; r++ {
			copy(out.data[r*cols+offset:r*cols+offset+w], p.data[r*w:(r+1)*w])
		}
		offset += w
	}
	return out, nil
}
