// Package mnist loads handwritten-digit datasets into tensors.
//
// Images come back as a rank-3 tensor [n, rows, cols] of raw intensities
// (0-255) and labels as a rank-1 tensor [n]. Dataset converts them into the
// [features, samples] layout the trainer expects.
package mnist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// IDX magic numbers.
const (
	ImageMagic = 2051 // 0x00000803
	LabelMagic = 2049 // 0x00000801
)

// maxImageBytes bounds the pixel buffer a header may ask for.
const maxImageBytes = 1 << 31

// Errors returned by the readers.
var (
	ErrInvalidMagic  = errors.New("invalid IDX magic number")
	ErrCountMismatch = errors.New("image and label counts differ")
	ErrTooLarge      = errors.New("IDX dimensions too large")
	ErrInvalidRecord = errors.New("invalid CSV record")
)

// ReadImages reads an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// At most limit images are read; limit <= 0 reads them all.
func ReadImages(r io.Reader, limit int) (*tensor.Tensor[float64], error) {
	var hdr struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if hdr.Magic != ImageMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidMagic, hdr.Magic, ImageMagic)
	}

	n := capCount(int(hdr.Count), limit)
	rows, cols := int(hdr.Rows), int(hdr.Cols)
	if int64(n)*int64(rows)*int64(cols) > maxImageBytes {
		return nil, fmt.Errorf("%w: %d images of %dx%d", ErrTooLarge, n, rows, cols)
	}

	pixels := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("failed to read pixels: %w", err)
	}
	values := make([]float64, len(pixels))
	for i, p := range pixels {
		values[i] = float64(p)
	}
	return tensor.FromSlice(values, tensor.Shape{n, rows, cols})
}

// ReadLabels reads an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
//
// At most limit labels are read; limit <= 0 reads them all.
func ReadLabels(r io.Reader, limit int) (*tensor.Tensor[float64], error) {
	var hdr struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if hdr.Magic != LabelMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidMagic, hdr.Magic, LabelMagic)
	}

	n := capCount(int(hdr.Count), limit)
	if n > maxImageBytes {
		return nil, fmt.Errorf("%w: %d labels", ErrTooLarge, n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	values := make([]float64, n)
	for i, b := range raw {
		values[i] = float64(b)
	}
	return tensor.FromSlice(values, tensor.Shape{n})
}

func capCount(count, limit int) int {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}
