package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencor-ml/tencor/internal/nn"
	"github.com/tencor-ml/tencor/internal/tensor"
)

const xorYAML = `
model:
  layers:
    - {in: 2, out: 3, activation: relu}
    - {in: 3, out: 1, activation: sigmoid}
training:
  epochs: 200
  learning_rate: 0.5
  seed: 42
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	assert.Len(t, cfg.Model.Layers, 2)
	assert.Equal(t, "mse", cfg.Loss)
	assert.Equal(t, 200, cfg.Training.Epochs)
	assert.Equal(t, 0.5, cfg.Training.LearningRate)
	assert.Equal(t, nn.FullBatch, cfg.Training.BatchSize)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 10, cfg.Data.Classes)
	assert.Equal(t, "model.tncr", cfg.Output.ModelPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseFull(t *testing.T) {
	data := `
model:
  layers:
    - name: hidden
      in: 784
      out: 32
      activation: relu
      init: xavier
    - name: output
      in: 32
      out: 10
      activation: softmax
      init: xavier
loss: cross_entropy
training: {epochs: 3, learning_rate: 0.1, batch_size: 16, seed: 7}
data: {images: imgs, labels: labs, limit: 500, classes: 10, holdout: 100}
output: {model_path: out.tncr, checkpoint: ckpt.tncr}
log: {level: debug, format: json}
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.Model.Layers[0].Name)
	assert.Equal(t, "softmax", cfg.Model.Layers[1].Activation)
	assert.Equal(t, 16, cfg.Training.BatchSize)
	assert.Equal(t, 100, cfg.Data.Holdout)
	assert.Equal(t, "ckpt.tncr", cfg.Output.Checkpoint)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(xorYAML + "optimizer: adam\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, nn.ErrEmptyModel)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Model.Layers = []LayerConfig{
		{Name: "a", In: 2, Out: 3, Activation: "relu"},
		{Name: "a", In: 4, Out: 1, Activation: "swish", Init: "he"},
	}
	cfg.Loss = "hinge"
	cfg.Training.Epochs = 0
	cfg.Training.BatchSize = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, nn.ErrDuplicateLayer)
	assert.ErrorIs(t, err, nn.ErrInvalidActivation)
	assert.ErrorIs(t, err, nn.ErrInvalidInitializer)
	assert.ErrorIs(t, err, nn.ErrInvalidLoss)
	assert.ErrorIs(t, err, nn.ErrInvalidEpochs)
	assert.ErrorIs(t, err, nn.ErrInvalidBatchSize)
	assert.Contains(t, err.Error(), "does not match previous out 3")
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(xorYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Training.Epochs)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestBuildModel(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	model, err := cfg.BuildModel()
	require.NoError(t, err)
	assert.Equal(t, 2, model.Len())
	assert.Equal(t, "mse", model.Loss().Name())

	layers := model.Layers()
	assert.Equal(t, "layer 0", layers[0].Name())
	hidden, ok := layers[0].(*nn.Dense)
	require.True(t, ok)
	assert.Equal(t, nn.ReLU, hidden.Activation())
	assert.Equal(t, tensor.Shape{3, 2}, hidden.Weights().Shape())

	// A fixed seed reproduces the initial weights.
	again, err := cfg.BuildModel()
	require.NoError(t, err)
	for k, v := range model.StateDict() {
		assert.True(t, v.Equal(again.StateDict()[k]), k)
	}

	x := tensor.Must(tensor.FromMatrix([][]float64{{0, 1}, {1, 0}}))
	pred, err := model.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2}, pred.Shape())
}

func TestFitConfig(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	fc := cfg.FitConfig(nn.LogProgress(nil))
	assert.Equal(t, 200, fc.Epochs)
	assert.Equal(t, 0.5, fc.LearningRate)
	assert.Equal(t, nn.FullBatch, fc.BatchSize)
	assert.Len(t, fc.Callbacks, 1)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = LogConfig{Level: "verbose"}.NewLogger(&buf)
	assert.Error(t, err)
}
