// Package models contains shared data models used across the rfClassifier codebase.
package models

import (
	"context"
	"errors"
)

// InferenceEngine is the capability every model backend implements.
// Components depend on this interface, never on a concrete backend.
type InferenceEngine interface {
	// Run feeds one input tensor through the model and returns its raw output tensor.
	Run(ctx context.Context, in Tensor) (Tensor, error)
	// Name returns the engine identifier (e.g., "kserve/cavity_model").
	Name() string
}

// Tensor is a dense FP32 tensor in row-major order.
type Tensor struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

// Elements returns the number of elements the shape describes.
func (t Tensor) Elements() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Inference failures shared by every backend. The inference package re-exports them.
var (
	ErrEngineUnavailable = errors.New("inference engine unavailable")
	ErrInferenceTimeout  = errors.New("inference timeout")
	ErrShapeMismatch     = errors.New("tensor shape mismatch")
	ErrInvalidResponse   = errors.New("inference engine returned invalid response")
)
