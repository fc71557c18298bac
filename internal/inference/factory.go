// Package inference opens the cavity and fault classification engines.
package inference

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/internal/inference/kserve"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Engines holds the two model handles used by the classifier.
type Engines struct {
	Cavity models.InferenceEngine
	Fault  models.InferenceEngine
}

// NewEngines opens both engines for the configured backend.
// Called once at process startup.
func NewEngines(ctx context.Context, cfg config.InferenceConfig, logger *zap.Logger) (Engines, error) {
	switch cfg.Backend {
	case "kserve":
		cavity, err := kserve.Open(ctx, cfg.KServe.BaseURL, cfg.KServe.CavityModel, cfg.Timeout, logger)
		if err != nil {
			return Engines{}, fmt.Errorf("opening cavity model: %w", err)
		}
		fault, err := kserve.Open(ctx, cfg.KServe.BaseURL, cfg.KServe.FaultModel, cfg.Timeout, logger)
		if err != nil {
			return Engines{}, fmt.Errorf("opening fault model: %w", err)
		}
		return Engines{Cavity: cavity, Fault: fault}, nil
	default:
		return Engines{}, fmt.Errorf("unknown inference backend %q: must be kserve", cfg.Backend)
	}
}

type readier interface {
	Ready(ctx context.Context) error
}

// Ready checks every engine that can report readiness.
func (e Engines) Ready(ctx context.Context) error {
	for _, eng := range []models.InferenceEngine{e.Cavity, e.Fault} {
		r, ok := eng.(readier)
		if !ok {
			continue
		}
		if err := r.Ready(ctx); err != nil {
			return fmt.Errorf("%s: %w", eng.Name(), err)
		}
	}
	return nil
}
