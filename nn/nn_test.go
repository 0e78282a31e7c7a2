package nn_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencor-ml/tencor/nn"
	"github.com/tencor-ml/tencor/tensor"
)

func TestTrainSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	hidden, err := nn.NewDense(2, 4, nn.Tanh, nn.WithRand(rng), nn.WithName("hidden"))
	require.NoError(t, err)
	output, err := nn.NewDense(4, 1, nn.Sigmoid, nn.WithRand(rng), nn.WithName("output"))
	require.NoError(t, err)
	model, err := nn.NewSequential(hidden, output)
	require.NoError(t, err)
	model.Compile(nn.NewMSE())

	x := tensor.Must(tensor.FromMatrix([][]float64{{0, 0, 1, 1}, {0, 1, 0, 1}}))
	y := tensor.Must(tensor.FromMatrix([][]float64{{0, 1, 1, 0}}))

	history, err := model.Fit(x, y, nn.FitConfig{Epochs: 10, LearningRate: 0.1, BatchSize: nn.FullBatch})
	require.NoError(t, err)
	assert.Len(t, history.EpochLoss, 10)

	path := filepath.Join(t.TempDir(), "xor.tncr")
	require.NoError(t, model.Save(path, nil))

	h2, err := nn.NewDense(2, 4, nn.Tanh, nn.WithInitializer(nn.Zeros), nn.WithName("hidden"))
	require.NoError(t, err)
	o2, err := nn.NewDense(4, 1, nn.Sigmoid, nn.WithInitializer(nn.Zeros), nn.WithName("output"))
	require.NoError(t, err)
	restored, err := nn.NewSequential(h2, o2)
	require.NoError(t, err)
	_, err = restored.Load(path)
	require.NoError(t, err)

	want, err := model.Predict(x)
	require.NoError(t, err)
	got, err := restored.Predict(x)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
}

func TestParsers(t *testing.T) {
	act, err := nn.ParseActivation("softmax")
	require.NoError(t, err)
	assert.Equal(t, nn.Softmax, act)

	_, err = nn.ParseLoss("hinge")
	assert.ErrorIs(t, err, nn.ErrInvalidLoss)
}
