package nn

import (
	"fmt"
	"strings"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// ModelType identifies Sequential models in saved files.
const ModelType = "Sequential"

// Sequential chains layers, feeding each output into the next layer.
//
// A training-mode Forward arms the model for exactly one Backward, which
// visits the layers in reverse insertion order. Non-training forwards and
// failed passes disarm it.
//
// Example:
//
//	model, err := nn.NewSequential(hidden, output)
//	model.Compile(nn.NewMSE())
//	history, err := model.Fit(x, y, nn.FitConfig{Epochs: 100, LearningRate: 0.1})
//	pred, err := model.Predict(x)
type Sequential struct {
	layers []Layer
	names  map[string]bool
	loss   Loss
	armed  bool
}

// NewSequential creates a model from layers in order.
func NewSequential(layers ...Layer) (*Sequential, error) {
	s := &Sequential{names: make(map[string]bool)}
	if err := s.Add(layers...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends layers. Unnamed layers are named "layer N" after their
// position, moving to the next free N when that name is taken. Names must be
// unique because they prefix state dict keys. On error the model and the
// layers are left unchanged.
func (s *Sequential) Add(layers ...Layer) error {
	taken := make(map[string]bool, len(s.names)+len(layers))
	for name := range s.names {
		taken[name] = true
	}
	for i, l := range layers {
		if l == nil {
			return fmt.Errorf("%w: nil layer at position %d", ErrEmptyModel, len(s.layers)+i)
		}
		if needsDefaultName(l) {
			continue
		}
		if taken[l.Name()] {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, l.Name())
		}
		taken[l.Name()] = true
	}

	names := make([]string, len(layers))
	next := len(s.layers)
	for i, l := range layers {
		if !needsDefaultName(l) {
			names[i] = l.Name()
			continue
		}
		next = max(next, len(s.layers)+i)
		for taken[fmt.Sprintf("layer %d", next)] {
			next++
		}
		names[i] = fmt.Sprintf("layer %d", next)
		taken[names[i]] = true
	}

	for i, l := range layers {
		if needsDefaultName(l) {
			l.(renamer).setName(names[i])
		}
		s.names[names[i]] = true
		s.layers = append(s.layers, l)
	}
	return nil
}

func needsDefaultName(l Layer) bool {
	_, ok := l.(renamer)
	return ok && l.Name() == ""
}

// Layers returns the layers in insertion order.
func (s *Sequential) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of layers.
func (s *Sequential) Len() int { return len(s.layers) }

// Compile sets the loss used by Fit and Evaluate.
func (s *Sequential) Compile(loss Loss) { s.loss = loss }

// Loss returns the configured loss, or nil.
func (s *Sequential) Loss() Loss { return s.loss }

// Forward folds input through every layer.
func (s *Sequential) Forward(input *tensor.Tensor[float64], training bool) (*tensor.Tensor[float64], error) {
	if len(s.layers) == 0 {
		return nil, ErrEmptyModel
	}
	s.armed = false

	out := input
	for _, l := range s.layers {
		var err error
		if out, err = l.Forward(out, training); err != nil {
			return nil, err
		}
	}
	s.armed = training
	return out, nil
}

// Backward propagates grad from the last layer to the first, updating each
// layer with learningRate. It returns the gradient with respect to the model
// input.
func (s *Sequential) Backward(grad *tensor.Tensor[float64], learningRate float64) (*tensor.Tensor[float64], error) {
	if !s.armed {
		return nil, fmt.Errorf("%w: no training forward pending", ErrEmptyModel)
	}
	s.armed = false

	for i := len(s.layers) - 1; i >= 0; i-- {
		var err error
		if grad, err = s.layers[i].Backward(grad, learningRate); err != nil {
			return nil, err
		}
	}
	return grad, nil
}

// Predict runs an inference forward.
func (s *Sequential) Predict(input *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	return s.Forward(input, false)
}

// Evaluation summarizes a model on a labelled set.
type Evaluation struct {
	Loss     float64
	Accuracy float64 // fraction of samples classified correctly
}

// Evaluate scores the model on input and target without training.
//
// With several output rows a sample is correct when the prediction and the
// target agree on the arg-max row. With a single output row both are
// thresholded at 0.5.
func (s *Sequential) Evaluate(input, target *tensor.Tensor[float64]) (Evaluation, error) {
	if s.loss == nil {
		return Evaluation{}, ErrNoLossConfigured
	}
	pred, err := s.Predict(input)
	if err != nil {
		return Evaluation{}, err
	}
	loss, err := s.loss.Forward(pred, target)
	if err != nil {
		return Evaluation{}, err
	}
	acc, err := accuracy(pred, target)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Loss: loss, Accuracy: acc}, nil
}

func accuracy(pred, target *tensor.Tensor[float64]) (float64, error) {
	if pred.Rank() != 2 {
		return 0, fmt.Errorf("%w: accuracy needs [classes, samples], got %v", tensor.ErrUnsupportedRank, pred.Shape())
	}
	n := pred.Dim(1)
	if n == 0 {
		return 0, nil
	}

	var hits int
	if pred.Dim(0) == 1 {
		p, t := pred.Raw(), target.Raw()
		for i := range p {
			if (p[i] >= 0.5) == (t[i] >= 0.5) {
				hits++
			}
		}
		return float64(hits) / float64(n), nil
	}

	pi, err := pred.Argmax(0)
	if err != nil {
		return 0, err
	}
	ti, err := target.Argmax(0)
	if err != nil {
		return 0, err
	}
	for i, c := range pi.Raw() {
		if c == ti.Raw()[i] {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}

// StateDict returns every layer's parameters keyed "<layer name>.<param>".
func (s *Sequential) StateDict() map[string]*tensor.Tensor[float64] {
	state := make(map[string]*tensor.Tensor[float64])
	for _, l := range s.layers {
		p, ok := l.(Parametric)
		if !ok {
			continue
		}
		for key, t := range p.StateDict() {
			state[l.Name()+"."+key] = t
		}
	}
	return state
}

// LoadStateDict restores parameters saved by StateDict. If any layer rejects
// its entries, layers already loaded are rolled back.
func (s *Sequential) LoadStateDict(state map[string]*tensor.Tensor[float64]) error {
	type loaded struct {
		p    Parametric
		prev map[string]*tensor.Tensor[float64]
	}
	var done []loaded

	for _, l := range s.layers {
		p, ok := l.(Parametric)
		if !ok {
			continue
		}
		prefix := l.Name() + "."
		sub := make(map[string]*tensor.Tensor[float64])
		for key, t := range state {
			if rest, found := strings.CutPrefix(key, prefix); found {
				sub[rest] = t
			}
		}

		prev := p.StateDict()
		if err := p.LoadStateDict(sub); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				_ = done[i].p.LoadStateDict(done[i].prev)
			}
			return err
		}
		done = append(done, loaded{p: p, prev: prev})
	}
	return nil
}
