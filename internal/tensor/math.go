package tensor

import "math"

// Apply returns a new tensor with fn applied to every element.
//
// Example:
//
//	relu := z.Apply(func(x float64) float64 { return math.Max(x, 0) })
func (t *Tensor[T]) Apply(fn func(T) T) *Tensor[T] {
	out := newTensor[T](t.shape)
	for i, v := range t.data {
		out.data[i] = fn(v)
	}
	return out
}

// mapFloat applies a float64 function to every element.
func (t *Tensor[T]) mapFloat(fn func(float64) float64) *Tensor[T] {
	return t.Apply(func(x T) T { return fromFloat[T](fn(float64(x))) })
}

// Square squares every element.
func (t *Tensor[T]) Square() *Tensor[T] {
	return t.Apply(func(x T) T { return x * x })
}

// Log applies the natural logarithm. Non-positive inputs produce -Inf or NaN
// exactly as math.Log does; callers must guard against them.
func (t *Tensor[T]) Log() *Tensor[T] {
	return t.mapFloat(math.Log)
}

// Exp applies e^x to every element.
func (t *Tensor[T]) Exp() *Tensor[T] {
	return t.mapFloat(math.Exp)
}

// Sqrt applies the square root to every element.
func (t *Tensor[T]) Sqrt() *Tensor[T] {
	return t.mapFloat(math.Sqrt)
}

// Abs applies the absolute value to every element.
func (t *Tensor[T]) Abs() *Tensor[T] {
	return t.Apply(func(x T) T {
		if x < 0 {
			return -x
		}
		return x
	})
}

// Clip limits every element to [lo, hi].
func (t *Tensor[T]) Clip(lo, hi T) *Tensor[T] {
	return t.Apply(func(x T) T {
		switch {
		case x < lo:
			return lo
		case x > hi:
			return hi
		default:
			return x
		}
	})
}
