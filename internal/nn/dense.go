package nn

import (
	"fmt"
	"math/rand"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Parameter names used by Dense.StateDict.
const (
	WeightsKey = "weights"
	BiasesKey  = "biases"
)

// Dense is a fully connected layer with a fused activation.
//
// Performs: a = act(W · x + b)
// where:
//   - x is the input with shape [in, batch]
//   - W is the weight matrix with shape [out, in]
//   - b is the bias column with shape [out, 1], repeated across the batch
//   - a is the output with shape [out, batch]
//
// Example:
//
//	layer, err := nn.NewDense(2, 3, nn.ReLU, nn.WithRand(rand.New(rand.NewSource(1))))
//	out, err := layer.Forward(x, true)      // caches x and z
//	dx, err := layer.Backward(dOut, 0.1)    // SGD step, clears the cache
type Dense struct {
	name       string
	inputSize  int
	outputSize int
	activation Activation

	weights *tensor.Tensor[float64] // [out, in]
	biases  *tensor.Tensor[float64] // [out, 1]

	cache denseCache
}

// denseCache holds what Backward needs from the last training forward.
type denseCache struct {
	present bool
	input   *tensor.Tensor[float64]
	z       *tensor.Tensor[float64] // pre-activation
}

type denseConfig struct {
	rng  *rand.Rand
	init Initializer
	name string
}

// DenseOption configures NewDense.
type DenseOption func(*denseConfig)

// WithRand makes initialization reproducible by drawing from rng.
func WithRand(rng *rand.Rand) DenseOption {
	return func(c *denseConfig) { c.rng = rng }
}

// WithInitializer selects the parameter initializer. The default is Uniform.
func WithInitializer(init Initializer) DenseOption {
	return func(c *denseConfig) { c.init = init }
}

// WithName sets the layer name used as the state dict prefix.
func WithName(name string) DenseOption {
	return func(c *denseConfig) { c.name = name }
}

// NewDense creates a Dense layer mapping inputSize features to outputSize.
func NewDense(inputSize, outputSize int, act Activation, opts ...DenseOption) (*Dense, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("%w: dense layer %dx%d", tensor.ErrShape, inputSize, outputSize)
	}
	if !act.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivation, act)
	}

	cfg := denseConfig{init: Uniform}
	for _, opt := range opts {
		opt(&cfg)
	}

	weights, biases, err := cfg.init.params(inputSize, outputSize, cfg.rng)
	if err != nil {
		return nil, err
	}

	return &Dense{
		name:       cfg.name,
		inputSize:  inputSize,
		outputSize: outputSize,
		activation: act,
		weights:    weights,
		biases:     biases,
	}, nil
}

// Forward computes act(W · input + b).
//
// With training set the input and pre-activation are cached for Backward,
// replacing any earlier cache. Otherwise the cache is discarded.
func (d *Dense) Forward(input *tensor.Tensor[float64], training bool) (*tensor.Tensor[float64], error) {
	d.cache = denseCache{}

	z, err := tensor.Dot(d.weights, input)
	if err != nil {
		return nil, fmt.Errorf("%s: forward: %w", d.label(), err)
	}
	if z, err = z.Add(d.biases); err != nil {
		return nil, fmt.Errorf("%s: forward: %w", d.label(), err)
	}
	a, err := ActivationForward(d.activation, z)
	if err != nil {
		return nil, fmt.Errorf("%s: forward: %w", d.label(), err)
	}

	if training {
		d.cache = denseCache{present: true, input: input.Clone(), z: z}
	}
	return a, nil
}

// Backward applies one SGD step from the upstream gradient dA and returns the
// gradient with respect to the cached input.
//
// All gradients are computed before either parameter is touched, so a
// failure leaves weights and biases unchanged. The cache is consumed either
// way.
func (d *Dense) Backward(dA *tensor.Tensor[float64], learningRate float64) (*tensor.Tensor[float64], error) {
	if !d.cache.present {
		return nil, fmt.Errorf("%s: %w", d.label(), ErrNoCachedForward)
	}
	c := d.cache
	d.cache = denseCache{}

	dZ, err := ActivationBackward(d.activation, dA, c.z)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}

	inputT, err := c.input.Transpose()
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}
	dW, err := tensor.Dot(dZ, inputT)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}
	dB, err := dZ.Sum(1)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}

	weightsT, err := d.weights.Transpose()
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}
	dInput, err := tensor.Dot(weightsT, dZ)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: %w", d.label(), err)
	}

	weights, err := step(d.weights, dW, learningRate)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: weights: %w", d.label(), err)
	}
	biases, err := step(d.biases, dB, learningRate)
	if err != nil {
		return nil, fmt.Errorf("%s: backward: biases: %w", d.label(), err)
	}
	d.weights, d.biases = weights, biases

	return dInput, nil
}

// step returns param - grad*lr, requiring the result to keep param's shape.
func step(param, grad *tensor.Tensor[float64], lr float64) (*tensor.Tensor[float64], error) {
	next := param.Clone()
	if err := next.SubInPlace(grad.MulScalar(lr)); err != nil {
		return nil, err
	}
	return next, nil
}

// Name returns the layer name, empty until set by WithName or a container.
func (d *Dense) Name() string { return d.name }

func (d *Dense) setName(name string) { d.name = name }

func (d *Dense) label() string {
	if d.name == "" {
		return "dense"
	}
	return d.name
}

// InputSize returns the number of input features.
func (d *Dense) InputSize() int { return d.inputSize }

// OutputSize returns the number of output features.
func (d *Dense) OutputSize() int { return d.outputSize }

// Activation returns the fused activation.
func (d *Dense) Activation() Activation { return d.activation }

// Cached reports whether a training forward is waiting for its backward.
func (d *Dense) Cached() bool { return d.cache.present }

// Weights returns a copy of the [out, in] weight matrix.
func (d *Dense) Weights() *tensor.Tensor[float64] { return d.weights.Clone() }

// Biases returns a copy of the [out, 1] bias column.
func (d *Dense) Biases() *tensor.Tensor[float64] { return d.biases.Clone() }

// SetWeights replaces the weights with a copy of w, which must be [out, in].
func (d *Dense) SetWeights(w *tensor.Tensor[float64]) error {
	if err := checkShape(w, tensor.Shape{d.outputSize, d.inputSize}); err != nil {
		return fmt.Errorf("%s: weights: %w", d.label(), err)
	}
	d.weights = w.Clone()
	return nil
}

// SetBiases replaces the biases with a copy of b, which must be [out, 1].
func (d *Dense) SetBiases(b *tensor.Tensor[float64]) error {
	if err := checkShape(b, tensor.Shape{d.outputSize, 1}); err != nil {
		return fmt.Errorf("%s: biases: %w", d.label(), err)
	}
	d.biases = b.Clone()
	return nil
}

// StateDict returns copies of the parameters keyed WeightsKey and BiasesKey.
func (d *Dense) StateDict() map[string]*tensor.Tensor[float64] {
	return map[string]*tensor.Tensor[float64]{
		WeightsKey: d.weights.Clone(),
		BiasesKey:  d.biases.Clone(),
	}
}

// LoadStateDict replaces both parameters. Nothing changes unless both are
// present with the expected shapes.
func (d *Dense) LoadStateDict(state map[string]*tensor.Tensor[float64]) error {
	w, ok := state[WeightsKey]
	if !ok {
		return fmt.Errorf("%s: %w: %s", d.label(), ErrMissingParameter, WeightsKey)
	}
	b, ok := state[BiasesKey]
	if !ok {
		return fmt.Errorf("%s: %w: %s", d.label(), ErrMissingParameter, BiasesKey)
	}
	if err := checkShape(w, tensor.Shape{d.outputSize, d.inputSize}); err != nil {
		return fmt.Errorf("%s: weights: %w", d.label(), err)
	}
	if err := checkShape(b, tensor.Shape{d.outputSize, 1}); err != nil {
		return fmt.Errorf("%s: biases: %w", d.label(), err)
	}
	d.weights, d.biases = w.Clone(), b.Clone()
	return nil
}

func checkShape(t *tensor.Tensor[float64], want tensor.Shape) error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor, expected %v", tensor.ErrShape, want)
	}
	if got := t.Shape(); !got.Equal(want) {
		return fmt.Errorf("%w: expected %v, got %v", tensor.ErrDimensionMismatch, want, got)
	}
	return nil
}
