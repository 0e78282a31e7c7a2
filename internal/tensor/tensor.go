package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Tensor is an N-dimensional array (rank 1 to 3) of element type T.
//
// Storage is a single flat row-major buffer: a rank-2 tensor is its rows laid
// end to end, a rank-3 tensor is its matrices laid end to end. The invariant
// len(data) == shape.NumElements() holds for the tensor's whole lifetime and
// the shape never changes after construction.
//
// Example:
//
//	m := tensor.Must(tensor.FromMatrix([][]float64{{1, 2}, {3, 4}}))
//	v, _ := m.At(1, 0) // 3
type Tensor[T Numeric] struct {
	shape   Shape
	strides []int
	data    []T
}

// newTensor allocates a zero-filled tensor. The shape must already be valid.
func newTensor[T Numeric](shape Shape) *Tensor[T] {
	s := shape.Clone()
	return &Tensor[T]{
		shape:   s,
		strides: s.ComputeStrides(),
		data:    make([]T, s.NumElements()),
	}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape.Clone()
}

// Rank returns the number of axes.
func (t *Tensor[T]) Rank() int {
	return len(t.shape)
}

// Dim returns the size of the given axis, or 0 if the axis does not exist.
func (t *Tensor[T]) Dim(axis int) int {
	if axis < 0 || axis >= len(t.shape) {
		return 0
	}
	return t.shape[axis]
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return len(t.data)
}

// Data returns a copy of the elements in row-major order.
func (t *Tensor[T]) Data() []T {
	out := make([]T, len(t.data))
	copy(out, t.data)
	return out
}

// Raw returns the live row-major buffer.
//
// WARNING: writes through the returned slice modify the tensor. Intended for
// serializers and loaders that walk every element once.
func (t *Tensor[T]) Raw() []T {
	return t.data
}

// offset converts indices to a flat buffer position.
func (t *Tensor[T]) offset(indices []int) (int, error) {
	if len(indices) != len(t.shape) {
		return 0, fmt.Errorf("%w: expected %d indices for shape %v, got %d", ErrIndexOutOfRange, len(t.shape), t.shape, len(indices))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			return 0, fmt.Errorf("%w: index %d for axis %d (size %d)", ErrIndexOutOfRange, idx, i, t.shape[i])
		}
		off += idx * t.strides[i]
	}
	return off, nil
}

// At returns the element at the given indices.
//
// Example:
//
//	t := tensor.Zeros[float64](tensor.Shape{3, 4})
//	value, err := t.At(1, 2) // Row 1, column 2
func (t *Tensor[T]) At(indices ...int) (T, error) {
	off, err := t.offset(indices)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.data[off], nil
}

// Set sets the element at the given indices.
func (t *Tensor[T]) Set(value T, indices ...int) error {
	off, err := t.offset(indices)
	if err != nil {
		return err
	}
	t.data[off] = value
	return nil
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	out := newTensor[T](t.shape)
	copy(out.data, t.data)
	return out
}

// Equal reports whether both tensors have the same shape and elements.
func (t *Tensor[T]) Equal(other *Tensor[T]) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		if t.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// AllClose reports whether both tensors have the same shape and every pair of
// elements differs by at most tol. NaNs are never close.
func (t *Tensor[T]) AllClose(other *Tensor[T], tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		diff := math.Abs(float64(t.data[i]) - float64(other.data[i]))
		if !(diff <= tol) {
			return false
		}
	}
	return true
}

// String prints the tensor as nested braces, e.g. { { 1, 2 }, { 3, 4 } }.
func (t *Tensor[T]) String() string {
	var sb strings.Builder
	t.format(&sb, 0, 0)
	return sb.String()
}

func (t *Tensor[T]) format(sb *strings.Builder, axis, base int) {
	sb.WriteString("{ ")
	for i := 0; i < t.shape[axis]; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		off := base + i*t.strides[axis]
		if axis == len(t.shape)-1 {
			fmt.Fprintf(sb, "%v", t.data[off])
			continue
		}
		t.format(sb, axis+1, off)
	}
	sb.WriteString(" }")
}
