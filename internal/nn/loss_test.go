package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencor-ml/tencor/internal/tensor"
)

func TestMSE(t *testing.T) {
	mse := NewMSE()
	pred := mat([]float64{1, 2})
	target := mat([]float64{0, 0})

	loss, err := mse.Forward(pred, target)
	require.NoError(t, err)
	assert.Equal(t, 2.5, loss) // (1 + 4) / 2 samples

	grad, err := mse.Backward(pred, target)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, grad.Data())
}

func TestMSESumsOverFeatures(t *testing.T) {
	pred := mat([]float64{1}, []float64{1})
	target := mat([]float64{0}, []float64{0})

	loss, err := NewMSE().Forward(pred, target)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loss)
}

func TestMSEPerfectPrediction(t *testing.T) {
	y := mat([]float64{0.2, 0.8}, []float64{1, 0})

	loss, err := NewMSE().Forward(y, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loss)
}

func TestLossShapeMismatch(t *testing.T) {
	pred := mat([]float64{1, 2})
	target := mat([]float64{1, 2, 3, 4})

	for _, loss := range []Loss{NewMSE(), NewCrossEntropy()} {
		_, err := loss.Forward(pred, target)
		assert.ErrorIs(t, err, tensor.ErrDimensionMismatch, loss.Name())
		_, err = loss.Backward(pred, target)
		assert.ErrorIs(t, err, tensor.ErrDimensionMismatch, loss.Name())
	}
}

func TestCrossEntropy(t *testing.T) {
	ce := NewCrossEntropy()
	pred := mat([]float64{0.5, 0.25}, []float64{0.5, 0.75})
	target := mat([]float64{1, 0}, []float64{0, 1})

	loss, err := ce.Forward(pred, target)
	require.NoError(t, err)
	assert.InDelta(t, -(math.Log(0.5)+math.Log(0.75))/2, loss, 1e-12)

	grad, err := ce.Backward(pred, target)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.25, 0.125, 0.25, -0.125}, grad.Data(), 1e-12)
}

func TestCrossEntropyClampsZero(t *testing.T) {
	pred := mat([]float64{0}, []float64{1})
	target := mat([]float64{1}, []float64{0})

	loss, err := NewCrossEntropy().Forward(pred, target)
	require.NoError(t, err)
	assert.False(t, math.IsInf(loss, 0))
	assert.Greater(t, loss, 20.0)
}

func TestParseLoss(t *testing.T) {
	l, err := ParseLoss("MSE")
	require.NoError(t, err)
	assert.Equal(t, "mse", l.Name())

	l, err = ParseLoss("cross_entropy")
	require.NoError(t, err)
	assert.Equal(t, "cross_entropy", l.Name())

	_, err = ParseLoss("hinge")
	assert.ErrorIs(t, err, ErrInvalidLoss)
}
