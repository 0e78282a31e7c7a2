package nn

import (
	"fmt"
	"strings"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Loss scores predictions against targets and supplies the gradient that
// starts a backward pass.
//
// Both tensors lie in the sample layout [features, samples] and must have the
// same shape.
type Loss interface {
	Forward(pred, target *tensor.Tensor[float64]) (float64, error)
	Backward(pred, target *tensor.Tensor[float64]) (*tensor.Tensor[float64], error)
	Name() string
}

// MSE is the summed squared error averaged over samples.
//
// Loss = Σ (target - pred)² / samples
// Grad = 2 (pred - target) / samples
//
// The sum runs over every feature, so the value grows with the output width.
type MSE struct{}

// NewMSE creates a mean squared error loss.
func NewMSE() *MSE { return &MSE{} }

// Name returns "mse".
func (*MSE) Name() string { return "mse" }

// Forward returns the loss for one batch.
func (*MSE) Forward(pred, target *tensor.Tensor[float64]) (float64, error) {
	n, err := samples(pred, target)
	if err != nil {
		return 0, fmt.Errorf("mse: %w", err)
	}
	diff, err := target.Sub(pred)
	if err != nil {
		return 0, fmt.Errorf("mse: %w", err)
	}
	return diff.Square().SumAll() / float64(n), nil
}

// Backward returns dLoss/dPred.
func (*MSE) Backward(pred, target *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	n, err := samples(pred, target)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	diff, err := pred.Sub(target)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	return diff.MulScalar(2 / float64(n)), nil
}

// ParseLoss maps a case-insensitive name to a Loss.
func ParseLoss(name string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mse", "mean_squared_error":
		return NewMSE(), nil
	case "cross_entropy", "crossentropy", "categorical_crossentropy":
		return NewCrossEntropy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLoss, name)
	}
}

// samples checks that pred and target agree and returns the size of the
// sample axis. A rank-1 tensor is a single sample.
func samples(pred, target *tensor.Tensor[float64]) (int, error) {
	if ps, ts := pred.Shape(), target.Shape(); !ps.Equal(ts) {
		return 0, fmt.Errorf("%w: prediction %v, target %v", tensor.ErrDimensionMismatch, ps, ts)
	}
	if pred.Rank() == 1 {
		return 1, nil
	}
	n := pred.Dim(1)
	if n == 0 {
		return 0, fmt.Errorf("%w: no samples", tensor.ErrShape)
	}
	return n, nil
}
