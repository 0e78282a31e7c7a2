// Copyright 2025 Tencor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for Tencor tensors.
//
// Tensors are dense, row-major and at most rank 3. Binary operations accept
// operands whose extents divide each other on every axis; the smaller
// operand is repeated to fill the larger one.
//
// Example:
//
//	x := tensor.Must(tensor.FromMatrix([][]float64{{1, 2}, {3, 4}}))
//	b := tensor.Must(tensor.FromMatrix([][]float64{{10}, {20}}))
//	y, err := x.Add(b) // {{11, 12}, {23, 24}}
package tensor

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Numeric constrains the element types a tensor may hold.
type Numeric = tensor.Numeric

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a matrix with 2 rows and 3 columns.
type Shape = tensor.Shape

// Tensor is a dense n-dimensional array of T.
type Tensor[T Numeric] = tensor.Tensor[T]

// Init selects how New fills a tensor.
type Init = tensor.Init

// Fill policies for New.
const (
	InitZeros  = tensor.InitZeros
	InitOnes   = tensor.InitOnes
	InitRandom = tensor.InitRandom
)

// Errors returned by tensor operations.
var (
	ErrShape             = tensor.ErrShape
	ErrDimensionMismatch = tensor.ErrDimensionMismatch
	ErrIndexOutOfRange   = tensor.ErrIndexOutOfRange
	ErrInvalidSlice      = tensor.ErrInvalidSlice
	ErrInvalidAxis       = tensor.ErrInvalidAxis
	ErrUnsupportedRank   = tensor.ErrUnsupportedRank
	ErrDivisionByZero    = tensor.ErrDivisionByZero
)

// Creation functions

// New creates a tensor of the given shape filled according to init.
func New[T Numeric](shape Shape, init Init) (*Tensor[T], error) {
	return tensor.New[T](shape, init)
}

// NewRandom fills a tensor with uniform values in [-1, 1] drawn from rng.
func NewRandom[T Numeric](shape Shape, rng *rand.Rand) (*Tensor[T], error) {
	return tensor.NewRandom[T](shape, rng)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T Numeric](shape Shape) (*Tensor[T], error) {
	return tensor.Zeros[T](shape)
}

// Ones creates a tensor filled with ones.
func Ones[T Numeric](shape Shape) (*Tensor[T], error) {
	return tensor.Ones[T](shape)
}

// Full creates a tensor filled with value.
func Full[T Numeric](shape Shape, value T) (*Tensor[T], error) {
	return tensor.Full(shape, value)
}

// Eye creates an n×n identity matrix.
func Eye[T Numeric](n int) (*Tensor[T], error) {
	return tensor.Eye[T](n)
}

// FromSlice wraps a copy of data in a tensor of the given shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T Numeric](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// FromVector creates a rank-1 tensor.
func FromVector[T Numeric](values []T) (*Tensor[T], error) {
	return tensor.FromVector(values)
}

// FromMatrix creates a rank-2 tensor from rows of equal length.
func FromMatrix[T Numeric](rows [][]T) (*Tensor[T], error) {
	return tensor.FromMatrix(rows)
}

// FromCube creates a rank-3 tensor.
func FromCube[T Numeric](mats [][][]T) (*Tensor[T], error) {
	return tensor.FromCube(mats)
}

// Must panics if err is non-nil. Intended for literals in tests and examples.
func Must[T Numeric](t *Tensor[T], err error) *Tensor[T] {
	return tensor.Must(t, err)
}

// Operations

// Dot multiplies two matrices.
func Dot[T Numeric](a, b *Tensor[T]) (*Tensor[T], error) {
	return tensor.Dot(a, b)
}

// ConcatColumns joins matrices with the same row count side by side.
func ConcatColumns[T Numeric](parts ...*Tensor[T]) (*Tensor[T], error) {
	return tensor.ConcatColumns(parts...)
}

// OneHot encodes integer labels as columns of a [numClasses, n] matrix.
func OneHot[T Numeric](labels *Tensor[T], numClasses int) (*Tensor[float64], error) {
	return tensor.OneHot(labels, numClasses)
}

// Gonum interop

// ToDense copies a matrix into a gonum *mat.Dense.
func ToDense[T Numeric](t *Tensor[T]) (*mat.Dense, error) {
	return tensor.ToDense(t)
}

// FromGonum copies any gonum matrix into a tensor.
func FromGonum(m mat.Matrix) *Tensor[float64] {
	return tensor.FromGonum(m)
}
