package nn

import "github.com/tencor-ml/tencor/internal/tensor"

// Layer is a trainable stage of a model.
//
// Forward with training set caches the state Backward needs. Backward consumes
// that cache, updates the layer's parameters in place, and returns the
// gradient with respect to the layer input.
type Layer interface {
	Forward(input *tensor.Tensor[float64], training bool) (*tensor.Tensor[float64], error)
	Backward(grad *tensor.Tensor[float64], learningRate float64) (*tensor.Tensor[float64], error)
	Name() string
}

// Parametric is implemented by layers whose parameters can be persisted.
//
// StateDict returns copies keyed by parameter name. LoadStateDict validates
// every shape before replacing anything.
type Parametric interface {
	StateDict() map[string]*tensor.Tensor[float64]
	LoadStateDict(state map[string]*tensor.Tensor[float64]) error
}

// renamer lets a container assign a default name to an unnamed layer.
type renamer interface {
	setName(name string)
}
