package tensor

import "errors"

// Error kinds reported by tensor operations. Call sites wrap them with the
// offending shapes or indices; match with errors.Is.
var (
	ErrShape             = errors.New("malformed shape")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidSlice      = errors.New("invalid slice")
	ErrInvalidAxis       = errors.New("invalid axis")
	ErrUnsupportedRank   = errors.New("unsupported rank")
	ErrDivisionByZero    = errors.New("integer division by zero")
)
