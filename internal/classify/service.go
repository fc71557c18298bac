// Package classify validates fault event captures, extracts model features and runs
// the two-stage cavity and fault classification.
package classify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/waveform"
	"github.com/JeffersonLab/rfClassifier/pkg/event"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Event outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CaptureSource loads the raw captures of an event.
type CaptureSource interface {
	Captures(ctx context.Context, id event.Identity) ([]waveform.Capture, error)
}

// ResultStore persists batch records.
type ResultStore interface {
	SaveRecords(ctx context.Context, records []models.Record) error
}

// Publisher announces successful classifications to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, results []*models.AnalysisResult) error
}

// Service runs the analysis pipeline over batches of events.
// It holds no per-batch state and may be shared between goroutines.
type Service struct {
	captures   CaptureSource
	validator  *Validator
	classifier *Classifier
	model      string
	stepSize   float64
	store      ResultStore
	publisher  Publisher
	recorder   Recorder
	logger     *zap.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithStore persists every record of a batch.
func WithStore(st ResultStore) Option {
	return func(s *Service) { s.store = st }
}

// WithPublisher publishes every successful result of a batch.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder sets the measurement sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service. model is the identity written into every result.
func NewService(captures CaptureSource, validator *Validator, classifier *Classifier, model string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		captures:   captures,
		validator:  validator,
		classifier: classifier,
		model:      model,
		stepSize:   validator.params.StepSize,
		recorder:   NopRecorder{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeBatch analyzes each event path in order and returns exactly one record per
// path. A failing event yields an *models.AnalysisError and never stops the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, paths []string) []models.Record {
	records := make([]models.Record, 0, len(paths))
	for _, p := range paths {
		records = append(records, s.analyzeOne(ctx, p))
	}

	if s.store != nil {
		if err := s.store.SaveRecords(ctx, records); err != nil {
			s.logger.Error("failed to persist analysis records", zap.Error(err), zap.Int("records", len(records)))
		}
	}
	if s.publisher != nil {
		if results := successes(records); len(results) > 0 {
			if err := s.publisher.Publish(ctx, results); err != nil {
				s.logger.Error("failed to publish analysis results", zap.Error(err), zap.Int("results", len(results)))
			}
		}
	}
	return records
}

// analyzeOne runs the whole pipeline for one event. Errors and panics are
// converted into an AnalysisError record.
func (s *Service) analyzeOne(ctx context.Context, path string) (rec models.Record) {
	var (
		id     event.Identity
		parsed bool
	)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while analyzing event", zap.Any("panic", r), zap.String("path", path))
			rec = s.failure(path, id, parsed, fmt.Errorf("internal error: %v", r))
		}
	}()

	if !event.IsAbs(path) {
		return s.failure(path, id, parsed, errors.New("path to fault-data must be absolute"))
	}

	id, err := event.ParsePath(path)
	if err != nil {
		return s.failure(path, id, parsed, err)
	}
	parsed = true

	result, err := s.classify(ctx, id)
	if err != nil {
		return s.failure(path, id, parsed, err)
	}

	s.recorder.EventAnalyzed(OutcomeSuccess)
	s.logger.Info("event classified",
		zap.String("zone", result.Location),
		zap.String("timestamp", result.Timestamp),
		zap.String("cavity", result.CavityLabel),
		zap.String("fault", result.FaultLabel),
	)
	return result
}

func (s *Service) classify(ctx context.Context, id event.Identity) (*models.AnalysisResult, error) {
	captures, err := s.captures.Captures(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(ctx, id, captures); err != nil {
		return nil, err
	}
	features, err := ExtractFeatures(captures, s.stepSize)
	if err != nil {
		return nil, err
	}
	decision, err := s.classifier.Classify(ctx, features)
	if err != nil {
		return nil, err
	}
	return Assemble(id, decision, s.model), nil
}

func (s *Service) failure(path string, id event.Identity, parsed bool, err error) *models.AnalysisError {
	rec := &models.AnalysisError{Message: err.Error()}
	if parsed {
		rec.Location, rec.Timestamp = id.Zone, id.Timestamp()
	} else {
		rec.Location, rec.Timestamp = event.RawSegments(path)
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		s.recorder.ValidationFailed(verr.Code())
	}
	s.recorder.EventAnalyzed(OutcomeFailure)

	s.logger.Warn("event analysis failed",
		zap.String("zone", rec.Location),
		zap.String("timestamp", rec.Timestamp),
		zap.Error(err),
	)
	return rec
}

func successes(records []models.Record) []*models.AnalysisResult {
	var out []*models.AnalysisResult
	for _, r := range records {
		if res, ok := r.(*models.AnalysisResult); ok {
			out = append(out, res)
		}
	}
	return out
}
