package tensor

import "fmt"

// projection describes how two operands of a binary operation map onto the
// result. It is produced by reconcileShapes and shared by every element-wise
// operator.
type projection struct {
	shape      Shape // result shape
	outStrides []int
	a, b       operand
}

// operand holds one side of a projection.
type operand struct {
	shape   Shape
	strides []int
	direct  bool // shape equals the result shape, indices map 1:1
}

// reconcileShapes implements the projection rule: the tensors must have the
// same rank and, on every axis, either equal sizes or sizes where one is an
// exact integer multiple of the other. The smaller axis is repeated
// cyclically (index modulo size) to cover the larger one.
//
// Examples:
//
//	[6, 2] + [2, 2] → [6, 2]  rows of the second operand read as 0,1,0,1,0,1
//	[3, 4] + [3, 1] → [3, 4]  the single column is repeated
//	[6, 3] + [4, 3] → error   6 and 4 are not multiples
//	[3, 1] + [1, 4] → error   neither operand covers the other
//
// One operand must match the result on every axis; only the other is
// repeated.
func reconcileShapes(a, b Shape) (*projection, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: rank %d vs rank %d (%v vs %v)", ErrDimensionMismatch, len(a), len(b), a, b)
	}

	result := make(Shape, len(a))
	for i := range a {
		dim, ok := reconcileAxis(a[i], b[i])
		if !ok {
			return nil, fmt.Errorf("%w: %v vs %v (axis %d: %d vs %d)", ErrDimensionMismatch, a, b, i, a[i], b[i])
		}
		result[i] = dim
	}
	if !a.Equal(result) && !b.Equal(result) {
		return nil, fmt.Errorf("%w: %v vs %v (both operands would be repeated)", ErrDimensionMismatch, a, b)
	}

	return &projection{
		shape:      result,
		outStrides: result.ComputeStrides(),
		a:          operand{shape: a, strides: a.ComputeStrides(), direct: a.Equal(result)},
		b:          operand{shape: b, strides: b.ComputeStrides(), direct: b.Equal(result)},
	}, nil
}

// reconcileAxis returns the result size for one axis.
func reconcileAxis(x, y int) (int, bool) {
	switch {
	case x == y:
		return x, true
	case x > y && y > 0 && x%y == 0:
		return x, true
	case y > x && x > 0 && y%x == 0:
		return y, true
	default:
		return 0, false
	}
}

// index maps a flat result index to the flat index inside op.
func (p *projection) index(flat int, op operand) int {
	if op.direct {
		return flat
	}
	src := 0
	for i, stride := range p.outStrides {
		coord := flat / stride
		flat %= stride
		src += (coord % op.shape[i]) * op.strides[i]
	}
	return src
}

// apply2 evaluates fn for every result element and returns the result tensor.
func apply2[T Numeric](p *projection, a, b []T, fn func(x, y T) T) *Tensor[T] {
	out := newTensor[T](p.shape)
	for i := range out.data {
		out.data[i] = fn(a[p.index(i, p.a)], b[p.index(i, p.b)])
	}
	return out
}
