// Package main provides the Tencor command-line interface.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand"
	"os"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/tencor-ml/tencor/internal/config"
	"github.com/tencor-ml/tencor/internal/mnist"
	"github.com/tencor-ml/tencor/internal/nn"
	"github.com/tencor-ml/tencor/internal/serialization"
	"github.com/tencor-ml/tencor/internal/tensor"
)

const usage = `Commands:
  version    Show version
  xor        Train a 2-3-1 network on XOR
  train      Train a model described by a YAML config
  inspect    Print the contents of a .tncr file
`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintf(stdout, "Tencor %s\n\n%s", serialization.Version, usage)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "Tencor %s\n", serialization.Version)
		return nil
	case "xor":
		return runXOR(args[1:], stdout, stderr)
	case "train":
		return runTrain(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runXOR(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	epochs := fs.Int("epochs", 2000, "training epochs")
	lr := fs.Float64("lr", 0.5, "learning rate")
	seed := fs.Int64("seed", 1, "weight initialization seed")
	save := fs.String("save", "", "write the trained model to this .tncr path")
	verbose := fs.Bool("v", false, "log every batch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := newLogger(stderr, *verbose)

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // G404: weight init is not security sensitive
	hidden, err := nn.NewDense(2, 3, nn.ReLU, nn.WithRand(rng), nn.WithName("hidden"))
	if err != nil {
		return err
	}
	output, err := nn.NewDense(3, 1, nn.Sigmoid, nn.WithRand(rng), nn.WithName("output"))
	if err != nil {
		return err
	}
	model, err := nn.NewSequential(hidden, output)
	if err != nil {
		return err
	}
	model.Compile(nn.NewMSE())

	x := tensor.Must(tensor.FromMatrix([][]float64{{0, 0, 1, 1}, {0, 1, 0, 1}}))
	y := tensor.Must(tensor.FromMatrix([][]float64{{0, 1, 1, 0}}))

	history, err := model.Fit(x, y, nn.FitConfig{
		Epochs:       *epochs,
		LearningRate: *lr,
		BatchSize:    nn.FullBatch,
		Callbacks:    []nn.Callback{sampled(nn.LogProgress(logger), *epochs/10)},
	})
	if err != nil {
		return err
	}
	logger.Info("training finished", "epochs", len(history.EpochLoss), "loss", history.Final())

	pred, err := model.Predict(x)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "x1  x2  target  prediction")
	for i := 0; i < 4; i++ {
		a, _ := x.At(0, i)
		b, _ := x.At(1, i)
		t, _ := y.At(0, i)
		p, _ := pred.At(0, i)
		fmt.Fprintf(stdout, "%-3g %-3g %-7g %.4f\n", a, b, t, p)
	}

	if *save != "" {
		if err := model.Save(*save, map[string]string{"task": "xor"}); err != nil {
			return err
		}
		logger.Info("model saved", "path", *save)
	}
	return nil
}

// sampled forwards every nth epoch (and the last) to cb.
func sampled(cb nn.Callback, every int) nn.Callback {
	return &sampler{cb: cb, every: max(every, 1)}
}

type sampler struct {
	cb    nn.Callback
	every int
}

func (s *sampler) OnBatchEnd(*nn.Sequential, nn.BatchStats) error { return nil }

func (s *sampler) OnEpochEnd(m *nn.Sequential, st nn.EpochStats) error {
	if st.Epoch%s.every != 0 && st.Epoch != st.Epochs {
		return nil
	}
	return s.cb.OnEpochEnd(m, st)
}

func runTrain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "YAML training config (required)")
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(stderr, "train: -config is required")
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}
	if cfg.Data.Images == "" || cfg.Data.Labels == "" {
		return fmt.Errorf("%w: data.images and data.labels are required for train", config.ErrInvalidConfig)
	}

	ds, err := mnist.Load(cfg.Data.Images, cfg.Data.Labels, cfg.Data.Limit)
	if err != nil {
		return err
	}
	ds.Normalize()
	ds.Summary(logger)

	trainSet, evalSet := ds, ds
	if cfg.Data.Holdout > 0 {
		if trainSet, evalSet, err = ds.Split(ds.Len() - cfg.Data.Holdout); err != nil {
			return fmt.Errorf("holdout: %w", err)
		}
	}

	x, y, err := columns(trainSet, cfg.Data.Classes)
	if err != nil {
		return err
	}
	model, err := cfg.BuildModel()
	if err != nil {
		return err
	}

	callbacks := []nn.Callback{nn.LogProgress(logger)}
	if cfg.Output.Checkpoint != "" {
		callbacks = append(callbacks, nn.Checkpoint(cfg.Output.Checkpoint, nil))
	}
	history, err := model.Fit(x, y, cfg.FitConfig(callbacks...))
	if err != nil {
		return err
	}

	ex, ey, err := columns(evalSet, cfg.Data.Classes)
	if err != nil {
		return err
	}
	ev, err := model.Evaluate(ex, ey)
	if err != nil {
		return err
	}
	logger.Info("evaluation", "samples", evalSet.Len(), "loss", ev.Loss, "accuracy", ev.Accuracy)

	meta := map[string]string{
		"epochs":     fmt.Sprint(cfg.Training.Epochs),
		"final_loss": fmt.Sprint(history.Final()),
		"accuracy":   fmt.Sprint(ev.Accuracy),
	}
	if err := model.Save(cfg.Output.ModelPath, meta); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved %s (loss %.6f, accuracy %.2f%%)\n", cfg.Output.ModelPath, history.Final(), 100*ev.Accuracy)
	return nil
}

func columns(ds *mnist.Dataset, classes int) (x, y *tensor.Tensor[float64], err error) {
	if x, err = ds.Inputs(); err != nil {
		return nil, nil, err
	}
	if y, err = ds.Targets(classes); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("model", "", ".tncr file to inspect (required)")
	values := fs.Bool("values", true, "print tensor values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(stderr, "inspect: -model is required")
		fs.Usage()
		return errUsage
	}

	r, err := serialization.NewReader(*path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	h := r.Header()
	fmt.Fprintf(stdout, "model:    %s\n", h.ModelType)
	fmt.Fprintf(stdout, "run:      %s\n", h.RunID)
	fmt.Fprintf(stdout, "created:  %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "version:  format %d, tencor %s\n", h.FormatVersion, h.TencorVersion)
	fmt.Fprintf(stdout, "sha256:   %s\n", r.Checksum())
	if h.Checkpoint != nil {
		fmt.Fprintf(stdout, "checkpoint: epoch %d, loss %g\n", h.Checkpoint.Epoch, h.Checkpoint.Loss)
	}
	for _, k := range slices.Sorted(maps.Keys(h.Metadata)) {
		fmt.Fprintf(stdout, "meta:     %s=%s\n", k, h.Metadata[k])
	}

	for _, name := range r.TensorNames() {
		t, err := r.ReadTensor(name)
		if err != nil {
			return err
		}
		if t.Rank() != 2 || t.NumElements() == 0 {
			fmt.Fprintf(stdout, "\n%s %v\n", name, t.Shape())
			if *values {
				fmt.Fprintf(stdout, "  %v\n", t)
			}
			continue
		}
		m, err := tensor.ToDense(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\n%s %v  norm=%.6g\n", name, t.Shape(), mat.Norm(m, 2))
		if *values {
			fmt.Fprintf(stdout, "  %v\n", mat.Formatted(m, mat.Prefix("  "), mat.Squeeze()))
		}
	}
	return nil
}
