package classifier

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/config"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.onnx", "model")
	fallback := writeFile(t, dir, "fallback.onnx", "model")
	missing := filepath.Join(dir, "missing.onnx")

	t.Run("prefers primary", func(t *testing.T) {
		path, err := ResolveModelPath(primary, fallback)
		require.NoError(t, err)
		assert.Equal(t, primary, path)
	})

	t.Run("falls back when primary is missing", func(t *testing.T) {
		path, err := ResolveModelPath(missing, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, path)
	})

	t.Run("directories do not count", func(t *testing.T) {
		path, err := ResolveModelPath(dir, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, path)
	})

	t.Run("fails when neither exists", func(t *testing.T) {
		_, err := ResolveModelPath(missing, "")
		assert.ErrorIs(t, err, ErrModelNotFound)
	})
}

func TestLoadMetadata(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		meta, err := LoadMetadata("")
		require.NoError(t, err)
		assert.Equal(t, DefaultMetadata(), meta)
		assert.NoError(t, meta.Validate())
	})

	t.Run("overrides from file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "meta.json", `{
			"input_shape": [1, 3, 128, 128],
			"image_size": 128,
			"layout": "NCHW",
			"pixel_scale": 0.00392156862
		}`)

		meta, err := LoadMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3, 128, 128}, meta.InputShape)
		assert.Equal(t, 128, meta.ImageSize)
		assert.Equal(t, LayoutNCHW, meta.Layout)
		assert.InDelta(t, 1.0/255, meta.PixelScale, 1e-6)
		assert.Equal(t, DefaultMetadata().Classes, meta.Classes)
	})

	t.Run("rejects a different label set", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "meta.json", `{"classes": ["Healthy", "Early Blight", "Late Blight"]}`)

		_, err := LoadMetadata(path)
		assert.ErrorIs(t, err, ErrLabelMismatch)
	})

	t.Run("rejects inconsistent input shape", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "meta.json", `{"input_shape": [1, 224, 224, 3]}`)

		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "meta.json", `{not json`)

		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestPreprocess(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}

	t.Run("NHWC interleaves channels", func(t *testing.T) {
		meta := DefaultMetadata()
		meta.ImageSize = 4
		meta.InputShape = []int64{1, 4, 4, 3}

		data := Preprocess(solidImage(10, 7, red), meta)

		require.Len(t, data, 4*4*3)
		for _, px := range [][]float32{data[0:3], data[len(data)-3:]} {
			assert.InDelta(t, 255, px[0], 1)
			assert.InDelta(t, 0, px[1], 1)
			assert.InDelta(t, 0, px[2], 1)
		}
	})

	t.Run("NCHW stacks channel planes", func(t *testing.T) {
		meta := DefaultMetadata()
		meta.ImageSize = 2
		meta.Layout = LayoutNCHW
		meta.PixelScale = 1.0 / 255

		data := Preprocess(solidImage(5, 5, red), meta)

		require.Len(t, data, 2*2*3)
		for i := 0; i < 4; i++ {
			assert.InDelta(t, 1.0, data[i], 0.01)
			assert.InDelta(t, 0.0, data[4+i], 0.01)
			assert.InDelta(t, 0.0, data[8+i], 0.01)
		}
	})
}

func TestNewONNXClassifier_MissingModel(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ModelConfig{
		Path:         filepath.Join(dir, "potatoes_v1.onnx"),
		FallbackPath: filepath.Join(dir, "models", "potatoes_v1.onnx"),
		InputName:    "input",
		OutputName:   "output",
	}

	c, err := NewONNXClassifier(cfg)

	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestRuntimeVersion(t *testing.T) {
	assert.Contains(t, runtimeVersion(), "onnxruntime_go")
}

func TestONNXClassifier_ClassifyAfterClose(t *testing.T) {
	c := &ONNXClassifier{Metadata: DefaultMetadata()}
	c.Close()

	out, err := c.Classify(context.Background(), solidImage(16, 16, color.White))

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrClosed)
}
