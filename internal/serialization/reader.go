package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// Reader reads models from .tncr format.
//
// The header and checksum are verified when the reader is created, so every
// later read sees validated data.
type Reader struct {
	src        io.ReaderAt
	closer     io.Closer
	header     Header
	flags      uint32
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64 // Size of the data section
	checksum   Checksum
	closed     bool
}

// NewReader opens a .tncr file.
func NewReader(path string) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := NewReaderAt(file, info.Size())
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReaderAt reads a .tncr image of size bytes from src.
func NewReaderAt(src io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{src: src}
	if err := r.parseHeader(size); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&r.header, r.dataSize); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return r, nil
}

// parseHeader reads the fixed prefix, the JSON header and the checksum, then
// verifies the checksum over the data section.
func (r *Reader) parseHeader(size int64) error {
	if size < prefixSize {
		return fmt.Errorf("%w: file is %d bytes", ErrInvalidMagic, size)
	}
	prefix := make([]byte, prefixSize)
	if _, err := r.src.ReadAt(prefix, 0); err != nil {
		return fmt.Errorf("failed to read prefix: %w", err)
	}
	if string(prefix[0:4]) != MagicBytes {
		return fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, prefix[0:4], MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(prefix[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(prefix[8:12])

	headerSize := binary.LittleEndian.Uint64(prefix[12:20])
	if headerSize > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	n := int64(headerSize)

	r.dataOffset = dataOffset(n)
	if r.dataOffset > size {
		return fmt.Errorf("%w: header runs past end of file", ErrOutOfBounds)
	}
	r.dataSize = size - r.dataOffset

	headerBytes := make([]byte, n)
	if _, err := r.src.ReadAt(headerBytes, prefixSize); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	if _, err := r.src.ReadAt(r.checksum[:], prefixSize+n); err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}
	computed, err := checksumSection(r.src, r.dataOffset, r.dataSize)
	if err != nil {
		return fmt.Errorf("failed to read tensor data for checksum: %w", err)
	}
	return verifyChecksum(computed, r.checksum)
}

// Checksum returns the verified digest of the data section.
func (r *Reader) Checksum() Checksum { return r.checksum }

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the flag word from the file prefix.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// TensorNames returns the tensor names in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			meta := r.header.Tensors[i]
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingTensor, name)
}

// ReadTensor loads a single tensor from the file.
func (r *Reader) ReadTensor(name string) (*tensor.Tensor[float64], error) {
	if r.closed {
		return nil, ErrClosed
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, meta.Size)
	if _, err := r.src.ReadAt(raw, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %q: %w", name, err)
	}
	values := make([]float64, meta.Size/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
	}
	return tensor.FromSlice(values, tensor.Shape(meta.Shape))
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *Reader) ReadStateDict() (map[string]*tensor.Tensor[float64], error) {
	if r.closed {
		return nil, ErrClosed
	}
	state := make(map[string]*tensor.Tensor[float64], len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		t, err := r.ReadTensor(meta.Name)
		if err != nil {
			return nil, err
		}
		state[meta.Name] = t
	}
	return state, nil
}

// Close closes the reader and the underlying file, if any.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Decode reads a complete .tncr image from rd.
func Decode(rd io.Reader) (*Header, map[string]*tensor.Tensor[float64], error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read: %w", err)
	}
	r, err := NewReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	state, err := r.ReadStateDict()
	if err != nil {
		return nil, nil, err
	}
	header := r.Header()
	return &header, state, nil
}

// LoadModel reads path and loads its tensors into model.
func LoadModel(path string, model Model) (*Header, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	state, err := r.ReadStateDict()
	if err != nil {
		return nil, err
	}
	if err := model.LoadStateDict(state); err != nil {
		return nil, fmt.Errorf("failed to load state dict: %w", err)
	}
	header := r.Header()
	return &header, nil
}
