package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tencor-ml/tencor/tensor"
)

func TestPublicAPI(t *testing.T) {
	x := tensor.Must(tensor.FromMatrix([][]float64{{1, 2}, {3, 4}}))
	b := tensor.Must(tensor.FromMatrix([][]float64{{10}, {20}}))

	y, err := x.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 23, 24}, y.Data())

	eye := tensor.Must(tensor.Eye[float64](2))
	z, err := tensor.Dot(x, eye)
	require.NoError(t, err)
	assert.True(t, z.Equal(x))

	_, err = tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{2, 2})
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestGonumRoundTrip(t *testing.T) {
	x := tensor.Must(tensor.FromMatrix([][]float64{{1, 2, 3}, {4, 5, 6}}))
	d, err := tensor.ToDense(x)
	require.NoError(t, err)
	assert.Equal(t, 6.0, d.At(1, 2))

	back := tensor.FromGonum(mat.DenseCopyOf(d))
	assert.True(t, back.Equal(x))
}
