package nn

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencor-ml/tencor/internal/tensor"
)

func identityModel(t *testing.T) (*Sequential, *recorder) {
	t.Helper()
	var trace []string
	rec := &recorder{name: "id", trace: &trace}
	model, err := NewSequential(rec)
	require.NoError(t, err)
	model.Compile(NewMSE())
	return model, rec
}

func TestFitBatchesCoverTail(t *testing.T) {
	tests := []struct {
		batch int
		want  []int
	}{
		{FullBatch, []int{5}},
		{5, []int{5}},
		{2, []int{2, 2, 1}},
		{3, []int{3, 2}},
		{1, []int{1, 1, 1, 1, 1}},
	}
	x := mat([]float64{1, 2, 3, 4, 5})

	for _, tt := range tests {
		model, rec := identityModel(t)
		_, err := model.Fit(x, x, FitConfig{Epochs: 1, LearningRate: 0.1, BatchSize: tt.batch})
		require.NoError(t, err)
		assert.Equal(t, tt.want, rec.batches, "batch size %d", tt.batch)
	}
}

func TestFitValidation(t *testing.T) {
	x := mat([]float64{1, 2, 3})

	noLoss, err := NewSequential(&recorder{name: "id", trace: new([]string)})
	require.NoError(t, err)
	_, err = noLoss.Fit(x, x, FitConfig{Epochs: 1, BatchSize: FullBatch})
	assert.ErrorIs(t, err, ErrNoLossConfigured)

	model, _ := identityModel(t)
	tests := []struct {
		name   string
		target *tensor.Tensor[float64]
		cfg    FitConfig
		want   error
	}{
		{"zero batch", x, FitConfig{Epochs: 1, BatchSize: 0}, ErrInvalidBatchSize},
		{"negative batch", x, FitConfig{Epochs: 1, BatchSize: -3}, ErrInvalidBatchSize},
		{"batch too large", x, FitConfig{Epochs: 1, BatchSize: 4}, ErrInvalidBatchSize},
		{"zero epochs", x, FitConfig{Epochs: 0, BatchSize: FullBatch}, ErrInvalidEpochs},
		{"sample mismatch", mat([]float64{1, 2}), FitConfig{Epochs: 1, BatchSize: FullBatch}, tensor.ErrDimensionMismatch},
		{"rank one target", tensor.Must(tensor.FromVector([]float64{1, 2, 3})), FitConfig{Epochs: 1, BatchSize: FullBatch}, tensor.ErrUnsupportedRank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Fit(x, tt.target, tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFitEpochLossIsBatchMean(t *testing.T) {
	// An identity model against a zero target: batch loss is Σx²/n.
	model, _ := identityModel(t)
	x := mat([]float64{1, 1, 2})
	zero := tensor.Must(tensor.Zeros[float64](tensor.Shape{1, 3}))

	history, err := model.Fit(x, zero, FitConfig{Epochs: 2, LearningRate: 0.1, BatchSize: 2})
	require.NoError(t, err)

	// Batches {1,1} -> 1 and {2} -> 4.
	assert.Equal(t, []float64{2.5, 2.5}, history.EpochLoss)
}

type stopAfter struct {
	epoch int
	seen  []int
}

func (s *stopAfter) OnBatchEnd(*Sequential, BatchStats) error { return nil }

func (s *stopAfter) OnEpochEnd(_ *Sequential, st EpochStats) error {
	s.seen = append(s.seen, st.Epoch)
	if st.Epoch == s.epoch {
		return errStop
	}
	return nil
}

var errStop = errors.New("stop")

func TestFitCallbackErrorStopsTraining(t *testing.T) {
	model := xorModel(t)
	x, y := xorData()
	cb := &stopAfter{epoch: 2}

	history, err := model.Fit(x, y, FitConfig{Epochs: 10, LearningRate: 0.1, BatchSize: FullBatch, Callbacks: []Callback{cb}})
	assert.ErrorIs(t, err, errStop)
	assert.Len(t, history.EpochLoss, 2)
	assert.Equal(t, []int{1, 2}, cb.seen)
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	model := xorModel(t)
	x, y := xorData()
	_, err := model.Fit(x, y, FitConfig{
		Epochs: 2, LearningRate: 0.1, BatchSize: 2,
		Callbacks: []Callback{LogProgress(logger)},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=\"epoch done\""))
	assert.Equal(t, 4, strings.Count(out, "msg=\"batch done\""))
	assert.Contains(t, out, "epochs=2")
}

func TestCheckpointCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.tncr")
	model := xorModel(t)
	x, y := xorData()

	history, err := model.Fit(x, y, FitConfig{
		Epochs: 3, LearningRate: 0.1, BatchSize: FullBatch,
		Callbacks: []Callback{Checkpoint(path, map[string]string{"task": "xor"})},
	})
	require.NoError(t, err)

	h, _ := NewDense(2, 3, ReLU, WithInitializer(Zeros))
	o, _ := NewDense(3, 1, Sigmoid, WithInitializer(Zeros))
	restored, err := NewSequential(h, o)
	require.NoError(t, err)

	header, err := restored.Load(path)
	require.NoError(t, err)
	require.NotNil(t, header.Checkpoint)
	assert.Equal(t, 3, header.Checkpoint.Epoch)
	assert.Equal(t, history.Final(), header.Checkpoint.Loss)
	assert.Equal(t, "xor", header.Metadata["task"])
	assert.Equal(t, ModelType, header.ModelType)

	want, err := model.Predict(x)
	require.NoError(t, err)
	got, err := restored.Predict(x)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.tncr")
	model := xorModel(t)
	require.NoError(t, model.Save(path, nil))

	h, _ := NewDense(2, 3, ReLU)
	o, _ := NewDense(3, 1, Sigmoid)
	restored, err := NewSequential(h, o)
	require.NoError(t, err)
	header, err := restored.Load(path)
	require.NoError(t, err)
	assert.Nil(t, header.Checkpoint)

	for k, v := range model.StateDict() {
		assert.True(t, v.Equal(restored.StateDict()[k]), k)
	}
}
