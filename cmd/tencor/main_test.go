package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencor-ml/tencor/internal/mnist"
	"github.com/tencor-ml/tencor/internal/serialization"
)

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out, io.Discard))
	assert.Contains(t, out.String(), serialization.Version)
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &out, io.Discard))
	assert.Contains(t, out.String(), "Commands:")
}

func TestRunUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	err := run([]string{"serve"}, io.Discard, &errOut)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, errOut.String(), `unknown command "serve"`)
}

func TestXORSaveAndInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.tncr")

	var out bytes.Buffer
	require.NoError(t, run([]string{"xor", "-epochs", "20", "-save", path}, &out, io.Discard))
	assert.Contains(t, out.String(), "prediction")

	out.Reset()
	require.NoError(t, run([]string{"inspect", "-model", path}, &out, io.Discard))
	text := out.String()
	assert.Contains(t, text, "model:    Sequential")
	assert.Contains(t, text, "meta:     task=xor")
	assert.Regexp(t, `sha256:   [0-9a-f]{64}\n`, text)
	assert.Contains(t, text, "hidden.weights [3 2]")
	assert.Contains(t, text, "output.biases [1 1]")
}

func TestRequiredFlags(t *testing.T) {
	assert.ErrorIs(t, run([]string{"train"}, io.Discard, io.Discard), errUsage)
	assert.ErrorIs(t, run([]string{"inspect"}, io.Discard, io.Discard), errUsage)
}

func writeIDX(t *testing.T, dir string, labels []byte, rows, cols int) (images, labelPath string) {
	t.Helper()

	var img bytes.Buffer
	for _, v := range []uint32{mnist.ImageMagic, uint32(len(labels)), uint32(rows), uint32(cols)} {
		require.NoError(t, binary.Write(&img, binary.BigEndian, v))
	}
	for i, l := range labels {
		for p := 0; p < rows*cols; p++ {
			// Class 1 images are bright, class 0 dark.
			img.WriteByte(byte(int(l)*200 + (i+p)%10))
		}
	}

	var lab bytes.Buffer
	for _, v := range []uint32{mnist.LabelMagic, uint32(len(labels))} {
		require.NoError(t, binary.Write(&lab, binary.BigEndian, v))
	}
	lab.Write(labels)

	images = filepath.Join(dir, "images.idx")
	labelPath = filepath.Join(dir, "labels.idx")
	require.NoError(t, os.WriteFile(images, img.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(labelPath, lab.Bytes(), 0o600))
	return images, labelPath
}

func TestTrainFromConfig(t *testing.T) {
	dir := t.TempDir()
	images, labels := writeIDX(t, dir, []byte{0, 1, 0, 1, 0, 1}, 2, 2)
	model := filepath.Join(dir, "out.tncr")
	ckpt := filepath.Join(dir, "ckpt.tncr")

	cfg := `
model:
  layers:
    - {name: hidden, in: 4, out: 3, activation: relu}
    - {name: output, in: 3, out: 2, activation: softmax}
loss: cross_entropy
training: {epochs: 3, learning_rate: 0.1, batch_size: 2, seed: 7}
data: {images: ` + images + `, labels: ` + labels + `, classes: 2, holdout: 2}
output: {model_path: ` + model + `, checkpoint: ` + ckpt + `}
log: {level: warn}
`
	cfgPath := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{"train", "-config", cfgPath}, &out, io.Discard))
	assert.Contains(t, out.String(), "saved "+model)

	r, err := serialization.NewReader(model)
	require.NoError(t, err)
	defer r.Close()
	h := r.Header()
	assert.Equal(t, "3", h.Metadata["epochs"])
	assert.Contains(t, r.TensorNames(), "hidden.weights")

	c, err := serialization.NewReader(ckpt)
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.Header().Checkpoint)
	assert.Equal(t, 3, c.Header().Checkpoint.Epoch)
}

func TestTrainRequiresData(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
model:
  layers:
    - {in: 4, out: 2}
`), 0o600))
	err := run([]string{"train", "-config", cfgPath}, io.Discard, io.Discard)
	assert.Error(t, err)
}
