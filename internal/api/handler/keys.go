package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/api/response"
	"github.com/JeffersonLab/rfClassifier/internal/apikey"
	"github.com/JeffersonLab/rfClassifier/internal/store"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// KeyManager persists API keys.
type KeyManager interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

// Keys serves the admin key endpoints.
type Keys struct {
	store  KeyManager
	logger *zap.Logger
}

func NewKeys(s KeyManager, logger *zap.Logger) *Keys {
	return &Keys{store: s, logger: logger}
}

type keyView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key,omitempty"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func viewOf(k *models.APIKey) keyView {
	return keyView{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		Scopes:     k.Scopes,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}

// Create handles POST /api/v1/admin/keys. The raw key appears only in this response.
func (h *Keys) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string   `json:"name"`
		Scopes []string `json:"scopes"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	key, raw, err := apikey.Issue(req.Name, req.Scopes, 0)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "API key with this name already exists", nil)
			return
		}
		h.logger.Error("creating api key", zap.String("name", req.Name), zap.Error(err))
		response.Internal(w, "Failed to create key")
		return
	}

	h.logger.Info("api key created", zap.String("name", key.Name), zap.String("prefix", key.KeyPrefix))
	v := viewOf(key)
	v.Key = raw
	response.Created(w, v)
}

// List handles GET /api/v1/admin/keys.
func (h *Keys) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("listing api keys", zap.Error(err))
		response.Internal(w, "Failed to list keys")
		return
	}
	views := make([]keyView, len(keys))
	for i, k := range keys {
		views[i] = viewOf(k)
	}
	response.JSON(w, views)
}

// Revoke handles DELETE /api/v1/admin/keys/{keyID}.
func (h *Keys) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_KEY_ID", "Invalid key ID", nil)
		return
	}

	if err := h.store.RevokeAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found", nil)
			return
		}
		h.logger.Error("revoking api key", zap.Stringer("key_id", id), zap.Error(err))
		response.Internal(w, "Failed to revoke key")
		return
	}
	h.logger.Info("api key revoked", zap.Stringer("key_id", id))
	response.NoContent(w)
}
