package nn

import (
	"fmt"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// epsilon keeps log away from zero.
const epsilon = 1e-12

// CrossEntropy is the categorical cross-entropy of softmax probabilities
// against one-hot targets, averaged over samples.
//
// Loss = -Σ target · log(pred) / samples
// Grad = (pred - target) / samples
//
// The gradient is taken with respect to the softmax logits, not the
// probabilities. Pair it with a final Softmax layer, whose backward passes
// the gradient through unchanged.
type CrossEntropy struct{}

// NewCrossEntropy creates a softmax-paired cross-entropy loss.
func NewCrossEntropy() *CrossEntropy { return &CrossEntropy{} }

// Name returns "cross_entropy".
func (*CrossEntropy) Name() string { return "cross_entropy" }

// Forward returns the loss for one batch.
func (*CrossEntropy) Forward(pred, target *tensor.Tensor[float64]) (float64, error) {
	n, err := samples(pred, target)
	if err != nil {
		return 0, fmt.Errorf("cross entropy: %w", err)
	}
	logs := pred.Clip(epsilon, 1).Log()
	prod, err := target.Mul(logs)
	if err != nil {
		return 0, fmt.Errorf("cross entropy: %w", err)
	}
	return -prod.SumAll() / float64(n), nil
}

// Backward returns the gradient with respect to the softmax input.
func (*CrossEntropy) Backward(pred, target *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	n, err := samples(pred, target)
	if err != nil {
		return nil, fmt.Errorf("cross entropy: %w", err)
	}
	diff, err := pred.Sub(target)
	if err != nil {
		return nil, fmt.Errorf("cross entropy: %w", err)
	}
	return diff.MulScalar(1 / float64(n)), nil
}
