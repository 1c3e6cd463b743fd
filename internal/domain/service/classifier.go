package service

import (
	"context"
	"image"
)

// Classifier runs the image model. Implementations must be safe for concurrent use.
type Classifier interface {
	// Classify runs the model on a single-item batch and returns the raw
	// probability vector, index-aligned with entity.Labels()
	Classify(ctx context.Context, img image.Image) ([]float32, error)

	// RuntimeVersion identifies the inference runtime backing the model
	RuntimeVersion() string
}
