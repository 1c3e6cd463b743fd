package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/domain/service"
	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/infrastructure/config"
)

const ortModulePath = "github.com/yalue/onnxruntime_go"

// ErrClosed is returned by Classify once Close has released the session
var ErrClosed = errors.New("classifier closed")

// ONNXClassifier runs the exported potato model through ONNX Runtime
type ONNXClassifier struct {
	// mu guards the pre-bound tensors, which every Run reuses
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	Metadata  Metadata
	ModelPath string
}

var _ service.Classifier = (*ONNXClassifier)(nil)

// NewONNXClassifier resolves the model path, loads metadata and opens an ONNX session
func NewONNXClassifier(cfg *config.ModelConfig) (*ONNXClassifier, error) {
	modelPath, err := ResolveModelPath(cfg.Path, cfg.FallbackPath)
	if err != nil {
		return nil, err
	}

	metadata, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		Metadata:     metadata,
		ModelPath:    modelPath,
	}, nil
}

// Classify preprocesses img and runs the session on a single-item batch
func (c *ONNXClassifier) Classify(ctx context.Context, img image.Image) ([]float32, error) {
	input := Preprocess(img, c.Metadata)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := c.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("preprocessed %d values, input tensor holds %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	output := make([]float32, len(c.outputTensor.GetData()))
	copy(output, c.outputTensor.GetData())
	return output, nil
}

// RuntimeVersion reports the onnxruntime_go module version linked into the binary
func (c *ONNXClassifier) RuntimeVersion() string {
	return runtimeVersion()
}

// Close releases the session, its tensors and the ONNX environment
func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
	}
}

func runtimeVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "onnxruntime_go (unknown)"
	}
	for _, dep := range info.Deps {
		if dep.Path == ortModulePath {
			return "onnxruntime_go " + dep.Version
		}
	}
	return "onnxruntime_go (unknown)"
}
