package serialization

import (
	"time"

	"github.com/google/uuid"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Version is the library version recorded in written files.
const Version = "0.1.0"

// Format constants.
const (
	MagicBytes      = "TNCR"
	FormatVersion   = 1
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary
	ChecksumSize    = 32 // SHA-256
	prefixSize      = 4 + 4 + 4 + 8
)

// DTypeFloat64 is the only element type the format stores.
const DTypeFloat64 = "float64"

// Flags for the .tncr format.
const (
	FlagHasMetadata  uint32 = 1 << 0 // bit 0: custom metadata included
	FlagIsCheckpoint uint32 = 1 << 1 // bit 1: checkpoint section present
)

// Header represents the JSON header in a .tncr file.
type Header struct {
	FormatVersion int               `json:"format_version"`       // Version of the .tncr format
	TencorVersion string            `json:"tencor_version"`       // Library version that wrote the file
	ModelType     string            `json:"model_type"`           // Type of model (e.g., "Sequential")
	RunID         uuid.UUID         `json:"run_id"`               // Identifies the training run
	CreatedAt     time.Time         `json:"created_at"`           // When the file was written
	Tensors       []TensorMeta      `json:"tensors"`              // Tensor metadata, sorted by name
	Metadata      map[string]string `json:"metadata"`             // Custom metadata
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"` // Training progress (optional)
}

// CheckpointMeta records training progress for files written mid-training.
type CheckpointMeta struct {
	Epoch int     `json:"epoch"` // last completed epoch, 1-based
	Loss  float64 `json:"loss"`  // mean batch loss of that epoch
}

// TensorMeta describes a tensor in the .tncr file.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "layer 0.weights"
	DType  string `json:"dtype"`  // always "float64"
	Shape  []int  `json:"shape"`  // tensor shape
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // size in bytes
}

// Model is anything whose parameters can be captured as a state dict.
type Model interface {
	StateDict() map[string]*tensor.Tensor[float64]
	LoadStateDict(state map[string]*tensor.Tensor[float64]) error
}

// SaveOptions controls the header of a written file.
type SaveOptions struct {
	ModelType  string
	RunID      uuid.UUID // uuid.Nil draws a fresh ID
	Metadata   map[string]string
	Checkpoint *CheckpointMeta
}

func (h *Header) flags() uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Checkpoint != nil {
		flags |= FlagIsCheckpoint
	}
	return flags
}

// dataOffset returns where tensor data starts for a JSON header of n bytes.
func dataOffset(n int64) int64 {
	pos := int64(prefixSize) + n + ChecksumSize
	padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
	return pos + padding
}
