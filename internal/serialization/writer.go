package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Writer writes models in .tncr format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a new .tncr file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStateDict writes a state dictionary and returns the header it wrote.
func (w *Writer) WriteStateDict(state map[string]*tensor.Tensor[float64], opts SaveOptions) (*Header, error) {
	if w.closed {
		return nil, ErrClosed
	}
	buf := bufio.NewWriter(w.file)
	header, err := Encode(buf, state, opts)
	if err != nil {
		return nil, err
	}
	if err := buf.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush: %w", err)
	}
	return header, nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// NewHeader builds the header for state without writing anything. Tensors
// are laid out back to back in name order.
func NewHeader(state map[string]*tensor.Tensor[float64], opts SaveOptions) (*Header, error) {
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	header := &Header{
		FormatVersion: FormatVersion,
		TencorVersion: Version,
		ModelType:     opts.ModelType,
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(state)),
		Metadata:      opts.Metadata,
		Checkpoint:    opts.Checkpoint,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var offset int64
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		t := state[name]
		if t == nil {
			return nil, fmt.Errorf("%w: %q is nil", ErrInvalidTensorMeta, name)
		}
		size := int64(t.NumElements()) * float64Size
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  []int(t.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}
	return header, nil
}

// Encode writes state to w in .tncr format.
func Encode(w io.Writer, state map[string]*tensor.Tensor[float64], opts SaveOptions) (*Header, error) {
	header, err := NewHeader(state, opts)
	if err != nil {
		return nil, err
	}

	data := encodeData(header, state)
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	prefix := make([]byte, prefixSize)
	copy(prefix[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(prefix[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(prefix[8:12], header.flags())
	binary.LittleEndian.PutUint64(prefix[12:20], uint64(len(headerJSON)))

	start := int64(prefixSize + len(headerJSON) + ChecksumSize)
	padding := make([]byte, dataOffset(int64(len(headerJSON)))-start)

	for _, chunk := range [][]byte{prefix, headerJSON, checksum[:], padding, data} {
		if _, err := w.Write(chunk); err != nil {
			return nil, fmt.Errorf("failed to write: %w", err)
		}
	}
	return header, nil
}

// encodeData serializes each tensor as little-endian float64 in header order.
func encodeData(header *Header, state map[string]*tensor.Tensor[float64]) []byte {
	var total int64
	for _, meta := range header.Tensors {
		total += meta.Size
	}
	data := make([]byte, total)
	for _, meta := range header.Tensors {
		out := data[meta.Offset : meta.Offset+meta.Size]
		for i, v := range state[meta.Name].Raw() {
			binary.LittleEndian.PutUint64(out[i*float64Size:], math.Float64bits(v))
		}
	}
	return data
}

// SaveModel writes model's state dict to path.
//
// The file is written next to path and renamed into place, so an interrupted
// save never leaves a truncated model behind.
func SaveModel(path string, model Model, opts SaveOptions) (err error) {
	tmp := path + ".tmp"
	w, err := NewWriter(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = w.WriteStateDict(model.StateDict(), opts); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
