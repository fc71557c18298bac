package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/JeffersonLab/rfClassifier/internal/api/response"
)

// Check probes one dependency for the health endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// NewHealthHandler returns GET /api/v1/health. Each check gets its own
// short deadline so one hung dependency cannot stall the probe.
func NewHealthHandler(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]string, len(checks))
		degraded := false
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := c.Ping(ctx)
			cancel()
			if err != nil {
				services[c.Name] = "degraded"
				degraded = true
				continue
			}
			services[c.Name] = "ok"
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", services)
			return
		}
		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": services,
		})
	}
}
