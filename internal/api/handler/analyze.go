package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JeffersonLab/rfClassifier/internal/api/response"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// MaxBatchEvents bounds one analyze request.
const MaxBatchEvents = 100

const maxBodyBytes = 1 << 20

// Analyzer runs the classification pipeline over a batch of event paths.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, paths []string) []models.Record
}

type analyzeRequest struct {
	Events []string `json:"events"`
}

// NewAnalyzeHandler returns POST /api/v1/analyze. Per-event failures are part
// of a 200 response; only malformed requests are rejected.
func NewAnalyzeHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		switch {
		case len(req.Events) == 0:
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "events is required", nil)
			return
		case len(req.Events) > MaxBatchEvents:
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("at most %d events per request", MaxBatchEvents),
				map[string]int{"events": len(req.Events), "max": MaxBatchEvents})
			return
		}

		response.JSON(w, svc.AnalyzeBatch(r.Context(), req.Events))
	}
}
