package mnist

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/tencor-ml/tencor/internal/tensor"
)

// MaxIntensity is the largest raw pixel value.
const MaxIntensity = 255.0

// Dataset pairs images with their labels.
type Dataset struct {
	Images     *tensor.Tensor[float64] // [n, rows, cols]
	Labels     *tensor.Tensor[float64] // [n]
	normalized bool
}

// New checks that images and labels describe the same samples.
func New(images, labels *tensor.Tensor[float64]) (*Dataset, error) {
	if images.Rank() != 3 || labels.Rank() != 1 {
		return nil, fmt.Errorf("%w: images %v, labels %v", tensor.ErrUnsupportedRank, images.Shape(), labels.Shape())
	}
	if images.Dim(0) != labels.Dim(0) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, images.Dim(0), labels.Dim(0))
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// Load reads an IDX image file and its label file, keeping at most limit
// samples (limit <= 0 keeps all).
func Load(imagePath, labelPath string, limit int) (*Dataset, error) {
	images, err := readFile(imagePath, func(r io.Reader) (*tensor.Tensor[float64], error) {
		return ReadImages(r, limit)
	})
	if err != nil {
		return nil, err
	}
	labels, err := readFile(labelPath, func(r io.Reader) (*tensor.Tensor[float64], error) {
		return ReadLabels(r, limit)
	})
	if err != nil {
		return nil, err
	}
	return New(images, labels)
}

func readFile(path string, read func(io.Reader) (*tensor.Tensor[float64], error)) (*tensor.Tensor[float64], error) {
	//nolint:gosec // G304: dataset paths come from the user
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t, err := read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV reads Kaggle-style CSV data: a header row, then one row per
// sample holding the label followed by rows*cols pixel values.
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
func ReadCSV(r io.Reader, rows, cols, limit int) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 1 + rows*cols

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var pixels, labels []float64
	for limit <= 0 || len(labels) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		row := len(labels) + 1

		label, err := strconv.Atoi(record[0])
		if err != nil || label < 0 || label > 9 {
			return nil, fmt.Errorf("%w: label %q at row %d", ErrInvalidRecord, record[0], row)
		}
		labels = append(labels, float64(label))

		for j, field := range record[1:] {
			p, err := strconv.Atoi(field)
			if err != nil || p < 0 || p > MaxIntensity {
				return nil, fmt.Errorf("%w: pixel %q at row %d, column %d", ErrInvalidRecord, field, row, j+1)
			}
			pixels = append(pixels, float64(p))
		}
	}

	n := len(labels)
	images, err := tensor.FromSlice(pixels, tensor.Shape{n, rows, cols})
	if err != nil {
		return nil, err
	}
	lab, err := tensor.FromSlice(labels, tensor.Shape{n})
	if err != nil {
		return nil, err
	}
	return New(images, lab)
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return d.Images.Dim(0) }

// Rows returns the image height.
func (d *Dataset) Rows() int { return d.Images.Dim(1) }

// Cols returns the image width.
func (d *Dataset) Cols() int { return d.Images.Dim(2) }

// Normalized reports whether Normalize has run.
func (d *Dataset) Normalized() bool { return d.normalized }

// Normalize scales intensities from [0, 255] to [0, 1]. Repeated calls have
// no further effect.
func (d *Dataset) Normalize() {
	if d.normalized {
		return
	}
	d.Images = d.Images.MulScalar(1 / MaxIntensity)
	d.normalized = true
}

// Inputs flattens every image into a column: [rows*cols, n].
func (d *Dataset) Inputs() (*tensor.Tensor[float64], error) {
	flat, err := d.Images.Flatten(1)
	if err != nil {
		return nil, err
	}
	return flat.Transpose()
}

// Targets one-hot encodes the labels: [numClasses, n].
func (d *Dataset) Targets(numClasses int) (*tensor.Tensor[float64], error) {
	return tensor.OneHot(d.Labels, numClasses)
}

// Split returns the first n samples and the rest.
func (d *Dataset) Split(n int) (head, tail *Dataset, err error) {
	if n <= 0 || n >= d.Len() {
		return nil, nil, fmt.Errorf("%w: split at %d of %d", tensor.ErrInvalidSlice, n, d.Len())
	}
	part := func(lo, hi int) (*Dataset, error) {
		img, err := d.Images.Slice(lo, hi, 0)
		if err != nil {
			return nil, err
		}
		lab, err := d.Labels.Slice(lo, hi, 0)
		if err != nil {
			return nil, err
		}
		return &Dataset{Images: img, Labels: lab, normalized: d.normalized}, nil
	}
	if head, err = part(0, n); err != nil {
		return nil, nil, err
	}
	if tail, err = part(n, d.Len()); err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}

// Summary logs the dataset size and label distribution.
func (d *Dataset) Summary(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	counts := make(map[int]int)
	for _, l := range d.Labels.Raw() {
		counts[int(l)]++
	}
	attrs := make([]any, 0, len(counts))
	for digit := 0; digit <= 9; digit++ {
		if c, ok := counts[digit]; ok {
			attrs = append(attrs, slog.Int(strconv.Itoa(digit), c))
		}
	}

	logger.Info("dataset loaded",
		"images", d.Len(),
		"rows", d.Rows(),
		"cols", d.Cols(),
		"labels", d.Labels.NumElements(),
		"normalized", d.normalized,
		slog.Group("distribution", attrs...),
	)
}
