// Package nn implements layers, losses and the sequential trainer.
//
// Every layer owns its gradient formula. There is no computation graph: a
// training-mode Forward caches what the matching Backward needs, and Backward
// applies a plain SGD update to the layer's own parameters before returning
// the gradient for the previous layer.
//
// Tensors follow a column-major sample layout: features lie on axis 0 and
// samples on axis 1, so a batch of n inputs with k features has shape [k, n].
package nn
