package nn

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tencor-ml/tencor/internal/serialization"
)

// BatchStats describes a finished batch. Epoch and Batch are 1-based.
type BatchStats struct {
	Epoch   int
	Epochs  int
	Batch   int
	Batches int
	Samples int
	Loss    float64
}

// EpochStats describes a finished epoch. Epoch is 1-based.
type EpochStats struct {
	Epoch    int
	Epochs   int
	Loss     float64 // mean batch loss
	Duration time.Duration
}

// Callback observes training. Returning an error stops Fit.
type Callback interface {
	OnBatchEnd(model *Sequential, stats BatchStats) error
	OnEpochEnd(model *Sequential, stats EpochStats) error
}

// LogProgress reports each batch at debug level and each epoch at info level.
// A nil logger uses slog.Default().
func LogProgress(logger *slog.Logger) Callback {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressLogger{logger: logger}
}

type progressLogger struct {
	logger *slog.Logger
}

func (p *progressLogger) OnBatchEnd(_ *Sequential, s BatchStats) error {
	p.logger.Debug("batch done",
		"epoch", s.Epoch, "epochs", s.Epochs,
		"batch", s.Batch, "batches", s.Batches,
		"samples", s.Samples, "loss", s.Loss)
	return nil
}

func (p *progressLogger) OnEpochEnd(_ *Sequential, s EpochStats) error {
	p.logger.Info("epoch done",
		"epoch", s.Epoch, "epochs", s.Epochs,
		"loss", s.Loss, "duration", s.Duration)
	return nil
}

// Checkpoint saves the model to path after every epoch, overwriting the
// previous snapshot. The file records the epoch and its loss.
func Checkpoint(path string, metadata map[string]string) Callback {
	return &checkpointer{path: path, metadata: metadata}
}

type checkpointer struct {
	path     string
	metadata map[string]string
}

func (c *checkpointer) OnBatchEnd(*Sequential, BatchStats) error { return nil }

func (c *checkpointer) OnEpochEnd(model *Sequential, s EpochStats) error {
	err := serialization.SaveModel(c.path, model, serialization.SaveOptions{
		ModelType: ModelType,
		Metadata:  c.metadata,
		Checkpoint: &serialization.CheckpointMeta{
			Epoch: s.Epoch,
			Loss:  s.Loss,
		},
	})
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", c.path, err)
	}
	return nil
}
