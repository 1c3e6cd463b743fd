package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/entity"
)

// Tensor layouts supported by the preprocessor
const (
	LayoutNHWC = "NHWC"
	LayoutNCHW = "NCHW"
)

var (
	// ErrModelNotFound is returned when neither the primary nor the fallback model path exists
	ErrModelNotFound = errors.New("model artifact not found")

	// ErrLabelMismatch is returned when the exported model declares a different label set
	ErrLabelMismatch = errors.New("model classes do not match label set")
)

// Metadata describes the exported model's tensors
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	Layout      string   `json:"layout"`
	// PixelScale multiplies every 8-bit channel value. 1 feeds raw 0-255
	// pixels to models that rescale internally.
	PixelScale float32 `json:"pixel_scale"`
}

// DefaultMetadata matches the 256x256 RGB potato model exported from Keras
func DefaultMetadata() Metadata {
	classes := make([]string, 0, entity.LabelCount())
	for _, l := range entity.Labels() {
		classes = append(classes, string(l))
	}
	return Metadata{
		InputShape:  []int64{1, 256, 256, 3},
		OutputShape: []int64{1, int64(entity.LabelCount())},
		Classes:     classes,
		ImageSize:   256,
		Layout:      LayoutNHWC,
		PixelScale:  1,
	}
}

// LoadMetadata reads metadata from path, filling unset fields from DefaultMetadata.
// An empty path yields the defaults.
func LoadMetadata(path string) (Metadata, error) {
	meta := DefaultMetadata()
	if path == "" {
		return meta, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var loaded Metadata
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(loaded.InputShape) > 0 {
		meta.InputShape = loaded.InputShape
	}
	if len(loaded.OutputShape) > 0 {
		meta.OutputShape = loaded.OutputShape
	}
	if len(loaded.Classes) > 0 {
		meta.Classes = loaded.Classes
	}
	if loaded.ImageSize > 0 {
		meta.ImageSize = loaded.ImageSize
	}
	if loaded.Layout != "" {
		meta.Layout = loaded.Layout
	}
	if loaded.PixelScale > 0 {
		meta.PixelScale = loaded.PixelScale
	}

	return meta, meta.Validate()
}

// Validate checks the metadata against the label set and the supported layouts
func (m Metadata) Validate() error {
	if m.Layout != LayoutNHWC && m.Layout != LayoutNCHW {
		return fmt.Errorf("unsupported layout %q", m.Layout)
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("invalid image size %d", m.ImageSize)
	}

	want := int64(3 * m.ImageSize * m.ImageSize)
	if got := elements(m.InputShape); got != want {
		return fmt.Errorf("input shape %v holds %d values, want %d", m.InputShape, got, want)
	}

	labels := entity.Labels()
	if len(m.Classes) != len(labels) {
		return fmt.Errorf("%w: got %v", ErrLabelMismatch, m.Classes)
	}
	for i, c := range m.Classes {
		if entity.ClassLabel(c) != labels[i] {
			return fmt.Errorf("%w: got %v", ErrLabelMismatch, m.Classes)
		}
	}
	return nil
}

// ResolveModelPath returns the first of primary and fallback that exists on disk
func ResolveModelPath(primary, fallback string) (string, error) {
	for _, p := range []string{primary, fallback} {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %q and %q", ErrModelNotFound, primary, fallback)
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
