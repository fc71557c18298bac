package handler

import (
	"net/http"

	"github.com/JeffersonLab/rfClassifier/internal/api/response"
	"github.com/JeffersonLab/rfClassifier/internal/modelinfo"
)

type modelResponse struct {
	*modelinfo.Description
	Identity string `json:"identity"`
}

// NewModelHandler returns GET /api/v1/model.
func NewModelHandler(d *modelinfo.Description) http.HandlerFunc {
	body := modelResponse{Description: d, Identity: d.Identity()}
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, body)
	}
}
