package tensor

import "fmt"

// MaxRank is the highest rank a tensor may have.
const MaxRank = 3

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has a supported rank and no negative
// dimensions. Zero-sized dimensions are allowed.
func (s Shape) Validate() error {
	if len(s) < 1 || len(s) > MaxRank {
		return fmt.Errorf("%w: rank %d (supported: 1..%d)", ErrUnsupportedRank, len(s), MaxRank)
	}
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be >= 0)", ErrShape, i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// split returns the number of elements before, along and after axis.
// Used by every axis-wise kernel (reductions, slicing).
func (s Shape) split(axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i := 0; i < axis; i++ {
		outer *= s[i]
	}
	for i := axis + 1; i < len(s); i++ {
		inner *= s[i]
	}
	return outer, s[axis], inner
}

func (s Shape) checkAxis(axis int) error {
	if axis < 0 || axis >= len(s) {
		return fmt.Errorf("%w: axis %d for shape %v", ErrInvalidAxis, axis, s)
	}
	return nil
}
