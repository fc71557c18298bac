package mock

import (
	"context"
	"sync/atomic"

	"github.com/JeffersonLab/rfClassifier/internal/inference"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Engine satisfies models.InferenceEngine for testing.
type Engine struct {
	Name_   string
	RunFunc func(ctx context.Context, in models.Tensor) (models.Tensor, error)

	calls atomic.Int64
}

func (m *Engine) Name() string { return m.Name_ }

func (m *Engine) Run(ctx context.Context, in models.Tensor) (models.Tensor, error) {
	m.calls.Add(1)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, in)
	}
	return models.Tensor{}, nil
}

// Calls returns how many times Run was invoked.
func (m *Engine) Calls() int { return int(m.calls.Load()) }

// NewEngine returns an Engine that always answers with the given logits as a [1, n] tensor.
func NewEngine(name string, logits ...float32) *Engine {
	return &Engine{
		Name_: name,
		RunFunc: func(_ context.Context, _ models.Tensor) (models.Tensor, error) {
			out := make([]float32, len(logits))
			copy(out, logits)
			return models.Tensor{Shape: []int64{1, int64(len(out))}, Data: out}, nil
		},
	}
}

// NewFailingEngine returns an Engine that always returns the given error.
func NewFailingEngine(err error) *Engine {
	return &Engine{
		Name_: "mock-failing",
		RunFunc: func(_ context.Context, _ models.Tensor) (models.Tensor, error) {
			return models.Tensor{}, err
		},
	}
}

// NewTimeoutEngine returns an Engine that blocks until the context is cancelled.
func NewTimeoutEngine() *Engine {
	return &Engine{
		Name_: "mock-timeout",
		RunFunc: func(ctx context.Context, _ models.Tensor) (models.Tensor, error) {
			<-ctx.Done()
			return models.Tensor{}, inference.ErrInferenceTimeout
		},
	}
}

// Compile-time check that Engine implements InferenceEngine.
var _ models.InferenceEngine = (*Engine)(nil)
