package nn

import (
	"fmt"
	"math"
	"strings"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Activation selects the element-wise non-linearity applied by a layer.
type Activation int

// Supported activations.
const (
	Linear Activation = iota
	Sigmoid
	ReLU
	Tanh
	Softmax
)

var activationNames = map[Activation]string{
	Linear:  "linear",
	Sigmoid: "sigmoid",
	ReLU:    "relu",
	Tanh:    "tanh",
	Softmax: "softmax",
}

// String returns the lower-case name used in configuration files.
func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Activation(%d)", int(a))
}

// Valid reports whether a names a supported activation.
func (a Activation) Valid() bool {
	_, ok := activationNames[a]
	return ok
}

// ParseActivation maps a case-insensitive name to an Activation.
// The empty string selects Linear.
func ParseActivation(name string) (Activation, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Linear, nil
	}
	for a, n := range activationNames {
		if n == key {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidActivation, name)
}

// ActivationForward applies kind to the pre-activation z.
//
// Softmax normalizes each column (axis 0) independently after subtracting the
// column maximum, so large logits do not overflow.
func ActivationForward(kind Activation, z *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	switch kind {
	case Linear:
		return z.Clone(), nil
	case Sigmoid:
		return z.Apply(sigmoid), nil
	case ReLU:
		return z.Apply(func(x float64) float64 { return math.Max(x, 0) }), nil
	case Tanh:
		return z.Apply(math.Tanh), nil
	case Softmax:
		return softmax(z)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivation, kind)
	}
}

// ActivationBackward returns dA scaled by the derivative of kind at z.
//
// Softmax passes dA through unchanged. That is only correct when the
// softmax output feeds CrossEntropy, whose gradient (pred - target) already
// includes the softmax Jacobian.
func ActivationBackward(kind Activation, dA, z *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	var deriv *tensor.Tensor[float64]
	switch kind {
	case Linear, Softmax:
		return dA.Clone(), nil
	case Sigmoid:
		deriv = z.Apply(func(x float64) float64 {
			s := sigmoid(x)
			return s * (1 - s)
		})
	case ReLU:
		deriv = z.Apply(func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		})
	case Tanh:
		deriv = z.Apply(func(x float64) float64 {
			t := math.Tanh(x)
			return 1 - t*t
		})
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivation, kind)
	}
	return dA.Mul(deriv)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(z *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	maxes, err := z.Max(0)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	shifted, err := z.Sub(maxes)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	exp := shifted.Exp()
	sums, err := exp.Sum(0)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	return exp.Div(sums)
}
