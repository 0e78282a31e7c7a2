// Package config loads YAML training configurations.
//
// Example:
//
//	model:
//	  layers:
//	    - {name: hidden, in: 784, out: 64, activation: relu, init: xavier}
//	    - {name: output, in: 64, out: 10, activation: softmax, init: xavier}
//	loss: cross_entropy
//	training: {epochs: 20, learning_rate: 0.1, batch_size: 32, seed: 1}
//	data: {images: train-images-idx3-ubyte, labels: train-labels-idx1-ubyte, limit: 1000, classes: 10}
//	output: {model_path: mnist.tncr, checkpoint: mnist.ckpt.tncr}
//	log: {level: info}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tencor-ml/tencor/internal/nn"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is a complete training configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Loss     string         `yaml:"loss"`
	Training TrainingConfig `yaml:"training"`
	Data     DataConfig     `yaml:"data"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// ModelConfig lists the layers of a Sequential model in order.
type ModelConfig struct {
	Layers []LayerConfig `yaml:"layers"`
}

// LayerConfig describes one Dense layer.
type LayerConfig struct {
	Name       string `yaml:"name"`
	In         int    `yaml:"in"`
	Out        int    `yaml:"out"`
	Activation string `yaml:"activation"`
	Init       string `yaml:"init"`
}

// TrainingConfig mirrors nn.FitConfig. A batch size of -1 trains on the
// whole set at once. A zero seed draws initial weights from the global
// source.
type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	Seed         int64   `yaml:"seed"`
}

// DataConfig points at an IDX image/label pair.
type DataConfig struct {
	Images  string `yaml:"images"`
	Labels  string `yaml:"labels"`
	Limit   int    `yaml:"limit"`   // <= 0 reads every sample
	Classes int    `yaml:"classes"` // one-hot width
	Holdout int    `yaml:"holdout"` // trailing samples kept for evaluation
}

// OutputConfig says where trained models go. An empty checkpoint disables
// per-epoch snapshots.
type OutputConfig struct {
	ModelPath  string `yaml:"model_path"`
	Checkpoint string `yaml:"checkpoint"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the values used for fields a file leaves out.
func Default() *Config {
	return &Config{
		Loss: "mse",
		Training: TrainingConfig{
			Epochs:       10,
			LearningRate: 0.01,
			BatchSize:    nn.FullBatch,
		},
		Data:   DataConfig{Classes: 10},
		Output: OutputConfig{ModelPath: "model.tncr"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates a YAML file.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Model.Layers) == 0 {
		add("model: %w", nn.ErrEmptyModel)
	}
	names := make(map[string]bool)
	for i, l := range c.Model.Layers {
		if l.In <= 0 || l.Out <= 0 {
			add("model.layers[%d]: in and out must be positive, got %d and %d", i, l.In, l.Out)
		}
		if i > 0 && l.In != c.Model.Layers[i-1].Out {
			add("model.layers[%d]: in %d does not match previous out %d", i, l.In, c.Model.Layers[i-1].Out)
		}
		if _, err := nn.ParseActivation(l.Activation); err != nil {
			add("model.layers[%d]: %w", i, err)
		}
		if _, err := nn.ParseInitializer(l.Init); err != nil {
			add("model.layers[%d]: %w", i, err)
		}
		if l.Name != "" {
			if names[l.Name] {
				add("model.layers[%d]: %w: %q", i, nn.ErrDuplicateLayer, l.Name)
			}
			names[l.Name] = true
		}
	}

	if _, err := nn.ParseLoss(c.Loss); err != nil {
		add("loss: %w", err)
	}
	if c.Training.Epochs <= 0 {
		add("training.epochs: %w: %d", nn.ErrInvalidEpochs, c.Training.Epochs)
	}
	if c.Training.LearningRate <= 0 {
		add("training.learning_rate must be positive, got %g", c.Training.LearningRate)
	}
	if c.Training.BatchSize != nn.FullBatch && c.Training.BatchSize <= 0 {
		add("training.batch_size: %w: %d", nn.ErrInvalidBatchSize, c.Training.BatchSize)
	}
	if c.Data.Classes <= 0 {
		add("data.classes must be positive, got %d", c.Data.Classes)
	}
	if c.Data.Holdout < 0 {
		add("data.holdout must not be negative, got %d", c.Data.Holdout)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		add("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// BuildModel creates the configured model with its loss compiled in.
func (c *Config) BuildModel() (*nn.Sequential, error) {
	var rng *rand.Rand
	if c.Training.Seed != 0 {
		rng = rand.New(rand.NewSource(c.Training.Seed)) //nolint:gosec // G404: weight init is not security sensitive
	}

	model, err := nn.NewSequential()
	if err != nil {
		return nil, err
	}
	for i, l := range c.Model.Layers {
		act, err := nn.ParseActivation(l.Activation)
		if err != nil {
			return nil, err
		}
		initializer, err := nn.ParseInitializer(l.Init)
		if err != nil {
			return nil, err
		}
		opts := []nn.DenseOption{nn.WithInitializer(initializer), nn.WithName(l.Name)}
		if rng != nil {
			opts = append(opts, nn.WithRand(rng))
		}
		layer, err := nn.NewDense(l.In, l.Out, act, opts...)
		if err != nil {
			return nil, fmt.Errorf("model.layers[%d]: %w", i, err)
		}
		if err := model.Add(layer); err != nil {
			return nil, err
		}
	}

	loss, err := nn.ParseLoss(c.Loss)
	if err != nil {
		return nil, err
	}
	model.Compile(loss)
	return model, nil
}

// FitConfig converts the training section for nn.Sequential.Fit.
func (c *Config) FitConfig(callbacks ...nn.Callback) nn.FitConfig {
	return nn.FitConfig{
		Epochs:       c.Training.Epochs,
		LearningRate: c.Training.LearningRate,
		BatchSize:    c.Training.BatchSize,
		Callbacks:    callbacks,
	}
}

// SlogLevel parses Level. The empty string means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	name := l.Level
	if name == "" {
		name = "info"
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return level, nil
}

// NewLogger builds a logger writing to w at the configured level.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
