package tensor

import "fmt"

// Add performs element-wise addition under the projection rule.
//
// Example:
//
//	a := tensor.Must(tensor.Ones[float64](tensor.Shape{6, 2}))
//	b := tensor.Must(tensor.Ones[float64](tensor.Shape{2, 2}))
//	c, err := a.Add(b) // Shape: [6, 2], rows of b repeated cyclically
func (t *Tensor[T]) Add(other *Tensor[T]) (*Tensor[T], error) {
	return t.binary(other, func(x, y T) T { return x + y })
}

// Sub performs element-wise subtraction under the projection rule.
func (t *Tensor[T]) Sub(other *Tensor[T]) (*Tensor[T], error) {
	return t.binary(other, func(x, y T) T { return x - y })
}

// Mul performs element-wise multiplication under the projection rule.
func (t *Tensor[T]) Mul(other *Tensor[T]) (*Tensor[T], error) {
	return t.binary(other, func(x, y T) T { return x * y })
}

// Div performs element-wise division under the projection rule.
// Integer tensors fail with ErrDivisionByZero if any divisor is zero.
func (t *Tensor[T]) Div(other *Tensor[T]) (*Tensor[T], error) {
	if !isFloat[T]() {
		for _, v := range other.data {
			if v == 0 {
				return nil, ErrDivisionByZero
			}
		}
	}
	return t.binary(other, func(x, y T) T { return x / y })
}

func (t *Tensor[T]) binary(other *Tensor[T], fn func(x, y T) T) (*Tensor[T], error) {
	p, err := reconcileShapes(t.shape, other.shape)
	if err != nil {
		return nil, err
	}
	return apply2(p, t.data, other.data, fn), nil
}

// AddInPlace adds other into the receiver.
// The receiver's shape cannot change, so other must project onto it.
func (t *Tensor[T]) AddInPlace(other *Tensor[T]) error {
	return t.inPlace(other, t.Add)
}

// SubInPlace subtracts other from the receiver.
func (t *Tensor[T]) SubInPlace(other *Tensor[T]) error {
	return t.inPlace(other, t.Sub)
}

// MulInPlace multiplies the receiver by other element-wise.
func (t *Tensor[T]) MulInPlace(other *Tensor[T]) error {
	return t.inPlace(other, t.Mul)
}

// inPlace computes into a fresh buffer and copies it over the receiver only
// once the whole result exists.
func (t *Tensor[T]) inPlace(other *Tensor[T], op func(*Tensor[T]) (*Tensor[T], error)) error {
	result, err := op(other)
	if err != nil {
		return err
	}
	if !result.shape.Equal(t.shape) {
		return fmt.Errorf("%w: in-place result %v does not fit receiver %v", ErrDimensionMismatch, result.shape, t.shape)
	}
	copy(t.data, result.data)
	return nil
}

// AddScalar adds s to every element.
func (t *Tensor[T]) AddScalar(s T) *Tensor[T] {
	return t.Apply(func(x T) T { return x + s })
}

// SubScalar subtracts s from every element.
func (t *Tensor[T]) SubScalar(s T) *Tensor[T] {
	return t.Apply(func(x T) T { return x - s })
}

// ScalarSub computes s - x for every element (e.g. 1 - sigmoid).
func (t *Tensor[T]) ScalarSub(s T) *Tensor[T] {
	return t.Apply(func(x T) T { return s - x })
}

// MulScalar multiplies every element by s.
func (t *Tensor[T]) MulScalar(s T) *Tensor[T] {
	return t.Apply(func(x T) T { return x * s })
}

// DivScalar divides every element by s.
func (t *Tensor[T]) DivScalar(s T) (*Tensor[T], error) {
	if s == 0 && !isFloat[T]() {
		return nil, ErrDivisionByZero
	}
	return t.Apply(func(x T) T { return x / s }), nil
}

// Neg flips the sign of every element.
func (t *Tensor[T]) Neg() *Tensor[T] {
	return t.Apply(func(x T) T { return -x })
}
