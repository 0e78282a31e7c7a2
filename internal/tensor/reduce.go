package tensor

import (
	"fmt"
	"math"
)

// Sum sums elements along axis, keeping the reduced axis with size 1.
//
// For rank 2, axis 0 yields a [1, cols] row and axis 1 a [rows, 1] column.
// Accumulation is in float64 and follows element order along the axis, so
// results are deterministic.
//
// Example:
//
//	x := tensor.Must(tensor.FromMatrix([][]float64{{1, 2}, {3, 4}}))
//	rows, _ := x.Sum(1) // {{3}, {7}}
func (t *Tensor[T]) Sum(axis int) (*Tensor[T], error) {
	return t.reduce(axis, func(vals func(k int) T, n int) T {
		var acc float64
		for k := 0; k < n; k++ {
			acc += float64(vals(k))
		}
		return T(acc)
	})
}

// Mean averages elements along axis, keeping the reduced axis with size 1.
func (t *Tensor[T]) Mean(axis int) (*Tensor[T], error) {
	if err := t.shape.checkAxis(axis); err != nil {
		return nil, err
	}
	if t.shape[axis] == 0 {
		return nil, fmt.Errorf("%w: mean over empty axis %d", ErrInvalidAxis, axis)
	}
	return t.reduce(axis, func(vals func(k int) T, n int) T {
		var acc float64
		for k := 0; k < n; k++ {
			acc += float64(vals(k))
		}
		return fromFloat[T](acc / float64(n))
	})
}

// Max returns the largest element along axis, keeping the axis with size 1.
func (t *Tensor[T]) Max(axis int) (*Tensor[T], error) {
	if err := t.checkNonEmptyAxis(axis); err != nil {
		return nil, err
	}
	return t.reduce(axis, func(vals func(k int) T, n int) T {
		return vals(argmax(vals, n))
	})
}

// Argmax returns the index of the largest element along axis, keeping the
// axis with size 1. Ties resolve to the earliest index.
func (t *Tensor[T]) Argmax(axis int) (*Tensor[int], error) {
	if err := t.checkNonEmptyAxis(axis); err != nil {
		return nil, err
	}
	outer, n, inner := t.shape.split(axis)
	outShape := t.shape.Clone()
	outShape[axis] = 1
	out := newTensor[int](outShape)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			vals := func(k int) T { return t.data[base+k*inner] }
			out.data[o*inner+i] = argmax(vals, n)
		}
	}
	return out, nil
}

// SumAll returns the sum of every element in row-major order.
func (t *Tensor[T]) SumAll() float64 {
	var acc float64
	for _, v := range t.data {
		acc += float64(v)
	}
	return acc
}

// MeanAll returns the mean of every element, or NaN for an empty tensor.
func (t *Tensor[T]) MeanAll() float64 {
	if len(t.data) == 0 {
		return math.NaN()
	}
	return t.SumAll() / float64(len(t.data))
}

func (t *Tensor[T]) checkNonEmptyAxis(axis int) error {
	if err := t.shape.checkAxis(axis); err != nil {
		return err
	}
	if t.shape[axis] == 0 {
		return fmt.Errorf("%w: reduction over empty axis %d", ErrInvalidAxis, axis)
	}
	return nil
}

// reduce applies fn to every line along axis. fn receives an accessor for the
// k-th element of the line and the line length.
func (t *Tensor[T]) reduce(axis int, fn func(vals func(k int) T, n int) T) (*Tensor[T], error) {
	if err := t.shape.checkAxis(axis); err != nil {
		return nil, err
	}
	outer, n, inner := t.shape.split(axis)
	outShape := t.shape.Clone()
	outShape[axis] = 1
	out := newTensor[T](outShape)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			out.data[o*inner+i] = fn(func(k int) T { return t.data[base+k*inner] }, n)
		}
	}
	return out, nil
}

// argmax returns the first index holding the maximum value. NaNs are skipped
// unless every value is NaN.
func argmax[T Numeric](vals func(k int) T, n int) int {
	best := 0
	for k := 1; k < n; k++ {
		v, b := vals(k), vals(best)
		if v > b || (b != b && v == v) {
			best = k
		}
	}
	return best
}
