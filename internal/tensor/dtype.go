// Package tensor provides the core tensor type and operations for the Tencor
// training stack.
//
// A Tensor owns a flat row-major buffer plus a shape of rank 1, 2 or 3.
// Every operation returns a new tensor (the in-place variants validate first
// and only then overwrite the receiver), so tensors behave like values.
package tensor

// Numeric is a constraint for supported tensor element types.
type Numeric interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// isFloat reports whether T is a floating-point type.
// Integer division truncates 1/2 to zero; float division does not.
func isFloat[T Numeric]() bool {
	one, two := T(1), T(2)
	return one/two != 0
}

// fromFloat converts a float64 to T, rounding to nearest for integer types.
func fromFloat[T Numeric](v float64) T {
	if isFloat[T]() {
		return T(v)
	}
	if v < 0 {
		return T(v - 0.5)
	}
	return T(v + 0.5)
}
