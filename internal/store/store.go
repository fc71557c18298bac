package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	CavityMode(ctx context.Context, zone string, cavity int, deployment string, at time.Time) (int, error)
	RecordCavityModes(ctx context.Context, modes []models.CavityMode) error

	SaveRecords(ctx context.Context, records []models.Record) error
	ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]*models.StoredResult, int, error)
}

// ResultFilter selects stored analysis results. Zero values match everything.
type ResultFilter struct {
	Zone   string
	Failed *bool
	Since  time.Time
	Page   int
	Limit  int
}
