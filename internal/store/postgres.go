package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JeffersonLab/rfClassifier/pkg/event"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Cavity modes ---

// CavityMode returns the latest mode recorded for the cavity at or before at.
// Returns ErrNotFound when the deployment has no earlier sample.
func (s *PostgresStore) CavityMode(ctx context.Context, zone string, cavity int, deployment string, at time.Time) (int, error) {
	var mode int
	err := s.pool.QueryRow(ctx,
		`SELECT mode FROM cavity_modes
		 WHERE zone = $1 AND cavity = $2 AND deployment = $3 AND recorded_at <= $4
		 ORDER BY recorded_at DESC LIMIT 1`,
		zone, cavity, deployment, at,
	).Scan(&mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get cavity mode: %w", err)
	}
	return mode, nil
}

// RecordCavityModes upserts mode samples in one transaction.
func (s *PostgresStore) RecordCavityModes(ctx context.Context, modes []models.CavityMode) error {
	if len(modes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range modes {
		batch.Queue(
			`INSERT INTO cavity_modes (zone, cavity, deployment, mode, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (zone, deployment, cavity, recorded_at) DO UPDATE SET mode = EXCLUDED.mode`,
			m.Zone, m.Cavity, m.Deployment, m.Mode, m.RecordedAt)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("record cavity modes: %w", err)
	}
	return nil
}

// --- Analysis results ---

// SaveRecords stores every record of a batch in one transaction.
func (s *PostgresStore) SaveRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, r := range records {
		row := toStoredResult(r, now)
		batch.Queue(
			`INSERT INTO analysis_results (id, zone, event_timestamp, event_time, cavity_label, cavity_confidence,
			   fault_label, fault_confidence, model, error, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			row.ID, row.Location, row.Timestamp, row.EventTime, row.CavityLabel, row.CavityConfidence,
			row.FaultLabel, row.FaultConfidence, row.Model, row.Error, row.CreatedAt)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("save analysis records: %w", err)
	}
	return nil
}

func toStoredResult(r models.Record, now time.Time) *models.StoredResult {
	row := &models.StoredResult{
		ID:        uuid.New(),
		Location:  r.Zone(),
		Timestamp: r.EventTime(),
		CreatedAt: now,
	}
	if t, err := time.Parse(event.TimestampLayout, r.EventTime()); err == nil {
		row.EventTime = &t
	}

	switch v := r.(type) {
	case *models.AnalysisResult:
		row.CavityLabel = &v.CavityLabel
		row.CavityConfidence = &v.CavityConfidence
		row.FaultLabel = &v.FaultLabel
		row.FaultConfidence = &v.FaultConfidence
		row.Model = &v.Model
	case *models.AnalysisError:
		row.Error = &v.Message
	}
	return row
}

// ListAnalysisResults returns one page of stored results, newest first, and the total match count.
func (s *PostgresStore) ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]*models.StoredResult, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if filter.Zone != "" {
		conditions = append(conditions, fmt.Sprintf("zone = $%d", argIdx))
		args = append(args, filter.Zone)
		argIdx++
	}
	if filter.Failed != nil {
		if *filter.Failed {
			conditions = append(conditions, "error IS NOT NULL")
		} else {
			conditions = append(conditions, "error IS NULL")
		}
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analysis_results WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analysis results: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT id, zone, event_timestamp, event_time, cavity_label, cavity_confidence,
		   fault_label, fault_confidence, model, error, created_at
		 FROM analysis_results WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analysis results: %w", err)
	}
	defer rows.Close()

	var results []*models.StoredResult
	for rows.Next() {
		var r models.StoredResult
		if err := rows.Scan(&r.ID, &r.Location, &r.Timestamp, &r.EventTime, &r.CavityLabel, &r.CavityConfidence,
			&r.FaultLabel, &r.FaultConfidence, &r.Model, &r.Error, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan analysis result: %w", err)
		}
		results = append(results, &r)
	}
	return results, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
