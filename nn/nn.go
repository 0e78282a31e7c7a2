// Copyright 2025 Tencor Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides dense layers, losses and a Sequential trainer.
//
// Data is laid out one sample per column: inputs are [features, samples]
// and a Dense layer computes act(W·x + b) with W of shape [out, in] and b
// of shape [out, 1]. Gradients are derived by hand in each layer's
// Backward, which also applies the SGD update.
//
// Example:
//
//	hidden, _ := nn.NewDense(2, 3, nn.ReLU)
//	output, _ := nn.NewDense(3, 1, nn.Sigmoid)
//	model, _ := nn.NewSequential(hidden, output)
//	model.Compile(nn.NewMSE())
//	history, err := model.Fit(x, y, nn.FitConfig{Epochs: 1000, LearningRate: 0.5, BatchSize: nn.FullBatch})
package nn

import (
	"log/slog"
	"math/rand"

	"github.com/tencor-ml/tencor/internal/nn"
	"github.com/tencor-ml/tencor/internal/tensor"
)

// Layer is one step of a Sequential model.
type Layer = nn.Layer

// Parametric is implemented by layers that own trainable tensors.
type Parametric = nn.Parametric

// Activation selects a layer's non-linearity.
type Activation = nn.Activation

// Activations.
const (
	Linear  = nn.Linear
	Sigmoid = nn.Sigmoid
	ReLU    = nn.ReLU
	Tanh    = nn.Tanh
	Softmax = nn.Softmax
)

// Initializer selects how a Dense layer fills its parameters.
type Initializer = nn.Initializer

// Initializers.
const (
	Uniform = nn.Uniform
	Xavier  = nn.Xavier
	Zeros   = nn.Zeros
)

// Sentinel errors.
var (
	ErrInvalidActivation  = nn.ErrInvalidActivation
	ErrInvalidInitializer = nn.ErrInvalidInitializer
	ErrInvalidLoss        = nn.ErrInvalidLoss
	ErrNoCachedForward    = nn.ErrNoCachedForward
	ErrEmptyModel         = nn.ErrEmptyModel
	ErrNoLossConfigured   = nn.ErrNoLossConfigured
	ErrInvalidBatchSize   = nn.ErrInvalidBatchSize
	ErrInvalidEpochs      = nn.ErrInvalidEpochs
	ErrMissingParameter   = nn.ErrMissingParameter
	ErrDuplicateLayer     = nn.ErrDuplicateLayer
)

// ParseActivation maps a name such as "relu" to an Activation.
func ParseActivation(name string) (Activation, error) { return nn.ParseActivation(name) }

// ParseInitializer maps a name such as "xavier" to an Initializer.
func ParseInitializer(name string) (Initializer, error) { return nn.ParseInitializer(name) }

// Layers

// Dense is a fully connected layer.
type Dense = nn.Dense

// DenseOption configures NewDense.
type DenseOption = nn.DenseOption

// NewDense creates a fully connected layer with in inputs and out outputs.
//
// Example:
//
//	layer, err := nn.NewDense(784, 64, nn.ReLU, nn.WithInitializer(nn.Xavier))
func NewDense(in, out int, act Activation, opts ...DenseOption) (*Dense, error) {
	return nn.NewDense(in, out, act, opts...)
}

// WithRand draws initial parameters from rng.
func WithRand(rng *rand.Rand) DenseOption { return nn.WithRand(rng) }

// WithInitializer picks the parameter initializer.
func WithInitializer(i Initializer) DenseOption { return nn.WithInitializer(i) }

// WithName names the layer; Sequential assigns "layer N" otherwise.
func WithName(name string) DenseOption { return nn.WithName(name) }

// Losses

// Loss scores predictions against targets.
type Loss = nn.Loss

// MSE is the mean squared error per sample.
type MSE = nn.MSE

// CrossEntropy is categorical cross-entropy, paired with Softmax outputs.
type CrossEntropy = nn.CrossEntropy

// NewMSE returns a mean squared error loss.
func NewMSE() *MSE { return nn.NewMSE() }

// NewCrossEntropy returns a categorical cross-entropy loss.
func NewCrossEntropy() *CrossEntropy { return nn.NewCrossEntropy() }

// ParseLoss maps a name such as "mse" to a Loss.
func ParseLoss(name string) (Loss, error) { return nn.ParseLoss(name) }

// Models

// Sequential chains layers and trains them with mini-batch SGD.
type Sequential = nn.Sequential

// Evaluation holds the loss and accuracy of a model on a data set.
type Evaluation = nn.Evaluation

// NewSequential creates a model from layers in forward order.
func NewSequential(layers ...Layer) (*Sequential, error) { return nn.NewSequential(layers...) }

// Training

// FullBatch trains on every sample in a single batch.
const FullBatch = nn.FullBatch

// FitConfig controls Sequential.Fit.
type FitConfig = nn.FitConfig

// History records the mean loss of each epoch.
type History = nn.History

// Callback observes training progress; a returned error stops Fit.
type Callback = nn.Callback

// BatchStats describes a finished batch.
type BatchStats = nn.BatchStats

// EpochStats describes a finished epoch.
type EpochStats = nn.EpochStats

// LogProgress logs batches at debug level and epochs at info level.
func LogProgress(logger *slog.Logger) Callback { return nn.LogProgress(logger) }

// Checkpoint saves the model to path after every epoch.
func Checkpoint(path string, metadata map[string]string) Callback {
	return nn.Checkpoint(path, metadata)
}

// Activation functions on raw tensors

// ActivationForward applies kind element-wise (column-wise for Softmax).
func ActivationForward(kind Activation, z *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	return nn.ActivationForward(kind, z)
}

// ActivationBackward returns dA scaled by the derivative of kind at z.
func ActivationBackward(kind Activation, dA, z *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	return nn.ActivationBackward(kind, dA, z)
}
