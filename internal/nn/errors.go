package nn

import "errors"

// Sentinel errors returned by layers and the trainer.
var (
	ErrInvalidActivation  = errors.New("invalid activation")
	ErrInvalidInitializer = errors.New("invalid initializer")
	ErrInvalidLoss        = errors.New("invalid loss")
	ErrNoCachedForward    = errors.New("backward called without a cached training forward")
	ErrEmptyModel         = errors.New("empty model")
	ErrNoLossConfigured   = errors.New("loss function not set")
	ErrInvalidBatchSize   = errors.New("invalid batch size")
	ErrInvalidEpochs      = errors.New("invalid number of epochs")
	ErrMissingParameter   = errors.New("missing parameter in state dict")
	ErrDuplicateLayer     = errors.New("duplicate layer name")
)
