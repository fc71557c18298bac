package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/api/response"
	"github.com/JeffersonLab/rfClassifier/internal/store"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ResultLister reads persisted analysis records.
type ResultLister interface {
	ListAnalysisResults(ctx context.Context, filter store.ResultFilter) ([]*models.StoredResult, int, error)
}

// NewResultsHandler returns GET /api/v1/results.
// Query: zone, failed (true|false), since (RFC3339), page, limit.
func NewResultsHandler(s ResultLister, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.ResultFilter{Zone: q.Get("zone"), Page: 1, Limit: defaultPageLimit}
		details := map[string]string{}

		if v := q.Get("failed"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				details["failed"] = "must be true or false"
			} else {
				filter.Failed = &b
			}
		}
		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				details["since"] = "must be an RFC3339 timestamp"
			} else {
				filter.Since = t
			}
		}
		if v := q.Get("page"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				details["page"] = "must be a positive integer"
			} else {
				filter.Page = n
			}
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				details["limit"] = "must be a positive integer"
			} else {
				filter.Limit = min(n, maxPageLimit)
			}
		}
		if len(details) > 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query parameters", details)
			return
		}

		results, total, err := s.ListAnalysisResults(r.Context(), filter)
		if err != nil {
			logger.Error("listing analysis results", zap.Error(err))
			response.Internal(w, "Failed to list results")
			return
		}
		if results == nil {
			results = []*models.StoredResult{}
		}
		response.Collection(w, results, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}
