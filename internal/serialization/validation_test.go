package serialization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTensorName(t *testing.T) {
	assert.NoError(t, ValidateTensorName("layer 0.weights"))

	for _, name := range []string{"", "a\x00b", "line\nbreak", strings.Repeat("x", MaxTensorNameLen+1)} {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, "%q", name)
	}
}

func TestValidateTensorMeta(t *testing.T) {
	ok := TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{2, 3}, Size: 48}
	assert.NoError(t, ValidateTensorMeta(ok))

	tests := []TensorMeta{
		{Name: "w", DType: "float32", Shape: []int{2, 3}, Size: 24},
		{Name: "w", DType: DTypeFloat64, Shape: []int{2, 3}, Size: 40},
		{Name: "w", DType: DTypeFloat64, Shape: []int{1, 1, 1, 1}, Size: 8},
		{Name: "w", DType: DTypeFloat64, Shape: []int{-2, 3}, Size: 48},
	}
	for _, meta := range tests {
		assert.ErrorIs(t, ValidateTensorMeta(meta), ErrInvalidTensorMeta, "%+v", meta)
	}
}

func TestValidateTensorOffsets(t *testing.T) {
	tensors := []TensorMeta{
		{Name: "b", Offset: 16, Size: 16},
		{Name: "a", Offset: 0, Size: 16},
	}
	assert.NoError(t, ValidateTensorOffsets(tensors, 32))
	assert.ErrorIs(t, ValidateTensorOffsets(tensors, 24), ErrOutOfBounds)

	overlap := []TensorMeta{
		{Name: "a", Offset: 0, Size: 16},
		{Name: "b", Offset: 8, Size: 16},
	}
	err := ValidateTensorOffsets(overlap, 64)
	assert.ErrorIs(t, err, ErrOffsetOverlap)
	assert.Contains(t, err.Error(), `"a" and "b"`)

	negative := []TensorMeta{{Name: "a", Offset: -8, Size: 8}}
	assert.ErrorIs(t, ValidateTensorOffsets(negative, 64), ErrOutOfBounds)
}

func TestValidateHeader(t *testing.T) {
	h := &Header{
		FormatVersion: FormatVersion,
		Tensors: []TensorMeta{
			{Name: "a", DType: DTypeFloat64, Shape: []int{2}, Offset: 0, Size: 16},
			{Name: "a", DType: DTypeFloat64, Shape: []int{2}, Offset: 16, Size: 16},
		},
	}
	assert.ErrorIs(t, ValidateHeader(h, 32), ErrInvalidTensorName)

	h.Tensors[1].Name = "b"
	assert.NoError(t, ValidateHeader(h, 32))

	h.FormatVersion = 2
	assert.ErrorIs(t, ValidateHeader(h, 32), ErrUnsupportedVersion)
}
