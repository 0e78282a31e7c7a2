package tensor

import (
	"fmt"
	"math/rand"
)

// Init selects how a newly allocated tensor is filled.
type Init int

// Fill policies.
const (
	InitZeros  Init = iota // every element 0 (the default)
	InitOnes               // every element 1
	InitRandom             // uniform in [RandomLow, RandomHigh]
)

// Range of InitRandom.
const (
	RandomLow  = -1.0
	RandomHigh = 1.0
)

// String returns the policy name.
func (i Init) String() string {
	switch i {
	case InitZeros:
		return "zeros"
	case InitOnes:
		return "ones"
	case InitRandom:
		return "random"
	default:
		return fmt.Sprintf("Init(%d)", int(i))
	}
}

// New allocates a tensor with the given shape and fill policy.
// InitRandom draws from the math/rand global source; use NewRandom for a
// reproducible fill.
//
// Example:
//
//	w, err := tensor.New[float64](tensor.Shape{3, 2}, tensor.InitRandom)
func New[T Numeric](shape Shape, init Init) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	t := newTensor[T](shape)
	switch init {
	case InitZeros:
		// Data is already zero-initialized by make()
	case InitOnes:
		t.fill(1)
	case InitRandom:
		fillUniform(t.data, rand.Float64) //nolint:gosec // G404: weight init is not security sensitive
	default:
		return nil, fmt.Errorf("%w: unknown init policy %d", ErrShape, int(init))
	}
	return t, nil
}

// NewRandom allocates a tensor filled uniformly in [RandomLow, RandomHigh]
// using rng.
func NewRandom[T Numeric](shape Shape, rng *rand.Rand) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	t := newTensor[T](shape)
	fillUniform(t.data, rng.Float64)
	return t, nil
}

// fillUniform writes uniform values in [RandomLow, RandomHigh]. Integer
// tensors receive -1, 0 or 1.
func fillUniform[T Numeric](data []T, next func() float64) {
	span := RandomHigh - RandomLow
	for i := range data {
		data[i] = fromFloat[T](RandomLow + next()*span)
	}
}

func (t *Tensor[T]) fill(v T) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zeros creates a zero-filled tensor.
func Zeros[T Numeric](shape Shape) (*Tensor[T], error) {
	return New[T](shape, InitZeros)
}

// Ones creates a tensor filled with ones.
func Ones[T Numeric](shape Shape) (*Tensor[T], error) {
	return New[T](shape, InitOnes)
}

// Full creates a tensor filled with value.
func Full[T Numeric](shape Shape, value T) (*Tensor[T], error) {
	t, err := Zeros[T](shape)
	if err != nil {
		return nil, err
	}
	t.fill(value)
	return t, nil
}

// Eye creates an n×n identity matrix.
func Eye[T Numeric](n int) (*Tensor[T], error) {
	t, err := Zeros[T](Shape{n, n})
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t, nil
}

// FromSlice creates a tensor from a flat row-major slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Numeric](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d", ErrShape, shape, shape.NumElements(), len(data))
	}
	t := newTensor[T](shape)
	copy(t.data, data)
	return t, nil
}

// FromVector creates a rank-1 tensor from a literal.
func FromVector[T Numeric](values []T) (*Tensor[T], error) {
	return FromSlice(values, Shape{len(values)})
}

// FromMatrix creates a rank-2 tensor from a nested literal. The outer slice
// becomes axis 0. Rows of different lengths are rejected.
//
// Example:
//
//	m, err := tensor.FromMatrix([][]float64{
//	    {0, 0},
//	    {0, 1},
//	}) // Shape: [2, 2]
func FromMatrix[T Numeric](rows [][]T) (*Tensor[T], error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d elements, row 0 has %d", ErrShape, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return FromSlice(flat, Shape{len(rows), cols})
}

// FromCube creates a rank-3 tensor from a nested literal.
func FromCube[T Numeric](mats [][][]T) (*Tensor[T], error) {
	rows, cols := 0, 0
	if len(mats) > 0 {
		rows = len(mats[0])
		if rows > 0 {
			cols = len(mats[0][0])
		}
	}
	flat := make([]T, 0, len(mats)*rows*cols)
	for i, m := range mats {
		if len(m) != rows {
			return nil, fmt.Errorf("%w: matrix %d has %d rows, matrix 0 has %d", ErrShape, i, len(m), rows)
		}
		for j, row := range m {
			if len(row) != cols {
				return nil, fmt.Errorf("%w: matrix %d row %d has %d elements, expected %d", ErrShape, i, j, len(row), cols)
			}
			flat = append(flat, row...)
		}
	}
	return FromSlice(flat, Shape{len(mats), rows, cols})
}

// Must panics if err is non-nil. Meant for literals in tests and examples.
func Must[T Numeric](t *Tensor[T], err error) *Tensor[T] {
	if err != nil {
		panic(err)
	}
	return t
}
