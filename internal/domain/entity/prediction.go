package entity

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutputLength is returned when a probability vector does not line up with the label set
var ErrOutputLength = errors.New("output length does not match label count")

// ErrInvalidOutput is returned when a probability is NaN or infinite
var ErrInvalidOutput = errors.New("output contains a non-finite value")

// Prediction is the interpreted output of one classifier run
type Prediction struct {
	Class         ClassLabel
	Confidence    float64
	Probabilities map[ClassLabel]float64
}

// NewPrediction interprets a probability vector index-aligned with Labels().
// Ties resolve to the lowest index.
func NewPrediction(output []float32) (*Prediction, error) {
	if len(output) != len(labels) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrOutputLength, len(output), len(labels))
	}

	probabilities := make(map[ClassLabel]float64, len(labels))
	best := 0
	for i, v := range output {
		p := float64(v)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: %v at index %d", ErrInvalidOutput, v, i)
		}
		label, _ := LabelAt(i)
		probabilities[label] = p
		if v > output[best] {
			best = i
		}
	}

	class, _ := LabelAt(best)
	return &Prediction{
		Class:         class,
		Confidence:    probabilities[class],
		Probabilities: probabilities,
	}, nil
}
