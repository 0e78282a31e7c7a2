package nn

import (
	"fmt"
	"time"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// FullBatch trains on every sample at once.
const FullBatch = -1

// FitConfig controls Sequential.Fit.
type FitConfig struct {
	Epochs       int
	LearningRate float64
	BatchSize    int // samples per batch, or FullBatch
	Callbacks    []Callback
}

// History records the mean batch loss of every completed epoch.
type History struct {
	EpochLoss []float64
}

// Final returns the loss of the last completed epoch, or 0 if none ran.
func (h *History) Final() float64 {
	if len(h.EpochLoss) == 0 {
		return 0
	}
	return h.EpochLoss[len(h.EpochLoss)-1]
}

// Fit trains the model with mini-batch SGD.
//
// Samples lie on axis 1 of input and target. Each epoch visits the full
// batches [j, j+BatchSize) in order and then one tail batch covering the
// remaining samples. The epoch loss is the mean of the batch losses.
//
// The first error from a layer, the loss or a callback stops training; the
// returned History still holds every epoch completed before it.
func (s *Sequential) Fit(input, target *tensor.Tensor[float64], cfg FitConfig) (*History, error) {
	history := &History{}

	if s.loss == nil {
		return history, ErrNoLossConfigured
	}
	if len(s.layers) == 0 {
		return history, ErrEmptyModel
	}
	if cfg.Epochs <= 0 {
		return history, fmt.Errorf("%w: %d", ErrInvalidEpochs, cfg.Epochs)
	}
	if input.Rank() != 2 || target.Rank() != 2 {
		return history, fmt.Errorf("%w: fit needs rank-2 input and target, got %v and %v",
			tensor.ErrUnsupportedRank, input.Shape(), target.Shape())
	}
	n := input.Dim(1)
	if target.Dim(1) != n {
		return history, fmt.Errorf("%w: %d input samples, %d target samples",
			tensor.ErrDimensionMismatch, n, target.Dim(1))
	}

	batch := cfg.BatchSize
	if batch == FullBatch {
		batch = n
	}
	if batch <= 0 || batch > n {
		return history, fmt.Errorf("%w: %d for %d samples", ErrInvalidBatchSize, cfg.BatchSize, n)
	}

	full, tail := n/batch, n%batch
	batches := full
	if tail != 0 {
		batches++
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := time.Now()
		var total float64

		for b := 0; b < batches; b++ {
			lo := b * batch
			hi := min(lo+batch, n)

			loss, err := s.trainBatch(input, target, lo, hi, cfg.LearningRate)
			if err != nil {
				return history, fmt.Errorf("epoch %d batch %d: %w", epoch, b+1, err)
			}
			total += loss

			stats := BatchStats{
				Epoch: epoch, Epochs: cfg.Epochs,
				Batch: b + 1, Batches: batches,
				Samples: hi - lo, Loss: loss,
			}
			for _, cb := range cfg.Callbacks {
				if err := cb.OnBatchEnd(s, stats); err != nil {
					return history, fmt.Errorf("epoch %d batch %d: callback: %w", epoch, b+1, err)
				}
			}
		}

		epochLoss := total / float64(batches)
		history.EpochLoss = append(history.EpochLoss, epochLoss)

		stats := EpochStats{
			Epoch: epoch, Epochs: cfg.Epochs,
			Loss: epochLoss, Duration: time.Since(start),
		}
		for _, cb := range cfg.Callbacks {
			if err := cb.OnEpochEnd(s, stats); err != nil {
				return history, fmt.Errorf("epoch %d: callback: %w", epoch, err)
			}
		}
	}
	return history, nil
}

// trainBatch runs forward, backward and the SGD update on samples [lo, hi)
// and returns the loss of the prediction made before the update.
func (s *Sequential) trainBatch(input, target *tensor.Tensor[float64], lo, hi int, lr float64) (float64, error) {
	x, err := input.Slice(lo, hi, 1)
	if err != nil {
		return 0, err
	}
	y, err := target.Slice(lo, hi, 1)
	if err != nil {
		return 0, err
	}

	pred, err := s.Forward(x, true)
	if err != nil {
		return 0, err
	}
	grad, err := s.loss.Backward(pred, y)
	if err != nil {
		s.armed = false
		return 0, err
	}
	if _, err := s.Backward(grad, lr); err != nil {
		return 0, err
	}
	return s.loss.Forward(pred, y)
}
