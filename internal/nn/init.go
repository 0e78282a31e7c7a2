package nn

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Initializer selects how a Dense layer fills its parameters.
type Initializer int

const (
	// Uniform draws weights and biases from U(-1, 1).
	Uniform Initializer = iota

	// Xavier (Glorot) draws weights from
	// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
	// and starts biases at zero.
	Xavier

	// Zeros starts every parameter at zero.
	Zeros
)

// String returns the name used in configuration files.
func (i Initializer) String() string {
	switch i {
	case Uniform:
		return "uniform"
	case Xavier:
		return "xavier"
	case Zeros:
		return "zeros"
	default:
		return fmt.Sprintf("Initializer(%d)", int(i))
	}
}

// ParseInitializer maps a case-insensitive name to an Initializer.
// The empty string selects Uniform.
func ParseInitializer(name string) (Initializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uniform", "random":
		return Uniform, nil
	case "xavier", "glorot":
		return Xavier, nil
	case "zeros", "zero":
		return Zeros, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidInitializer, name)
	}
}

// params builds the [out, in] weight and [out, 1] bias tensors.
// A nil rng falls back to the math/rand global source.
func (i Initializer) params(in, out int, rng *rand.Rand) (weights, biases *tensor.Tensor[float64], err error) {
	wShape := tensor.Shape{out, in}
	bShape := tensor.Shape{out, 1}

	switch i {
	case Uniform:
		if weights, err = uniform(wShape, rng); err != nil {
			return nil, nil, err
		}
		biases, err = uniform(bShape, rng)
	case Xavier:
		if weights, err = uniform(wShape, rng); err != nil {
			return nil, nil, err
		}
		bound := math.Sqrt(6.0 / float64(in+out))
		weights = weights.MulScalar(bound)
		biases, err = tensor.Zeros[float64](bShape)
	case Zeros:
		if weights, err = tensor.Zeros[float64](wShape); err != nil {
			return nil, nil, err
		}
		biases, err = tensor.Zeros[float64](bShape)
	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInitializer, i)
	}
	if err != nil {
		return nil, nil, err
	}
	return weights, biases, nil
}

func uniform(shape tensor.Shape, rng *rand.Rand) (*tensor.Tensor[float64], error) {
	if rng == nil {
		return tensor.New[float64](shape, tensor.InitRandom)
	}
	return tensor.NewRandom[float64](shape, rng)
}
