package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/JeffersonLab/rfClassifier/internal/api/middleware"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const rawKey = "rfc_0123456789abcdef0123"

// --- Mock key store ---

type mockKeyStore struct {
	keys []*models.APIKey
	err  error

	mu      sync.Mutex
	touched chan uuid.UUID
}

func (m *mockKeyStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return m.keys, m.err
}

func (m *mockKeyStore) UpdateAPIKeyLastUsed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touched != nil {
		m.touched <- id
	}
	return nil
}

// --- Mock counter ---

type mockCounter struct {
	counter int64
	err     error
}

func (m *mockCounter) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	m.counter++
	return m.counter, m.err
}

type recordedRequest struct {
	method, route string
	status        int
}

type mockObserver struct{ got []recordedRequest }

func (m *mockObserver) HTTPRequest(method, route string, status int) {
	m.got = append(m.got, recordedRequest{method, route, status})
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func keyWithScopes(t *testing.T, raw string, scopes ...string) *models.APIKey {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.APIKey{ID: uuid.New(), KeyHash: string(h), KeyPrefix: raw[:8], Scopes: scopes}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func serve(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ========================================
// Auth Middleware Tests
// ========================================

func TestAuth_RejectsBadHeaders(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{}, zap.NewNop())
	handler := auth.Authenticate(okHandler())

	for _, authz := range []string{"", "Basic abc123", "Bearer", "Bearer short"} {
		w := serve(handler, authz)
		assert.Equal(t, http.StatusUnauthorized, w.Code, authz)
		assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
	}
}

func TestAuth_KeyNotFound(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{keys: []*models.APIKey{}}, zap.NewNop())
	w := serve(auth.Authenticate(okHandler()), "Bearer "+rawKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_StoreError(t *testing.T) {
	auth := mw.NewAuth(&mockKeyStore{err: errors.New("db down")}, zap.NewNop())
	w := serve(auth.Authenticate(okHandler()), "Bearer "+rawKey)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestAuth_WrongSecret(t *testing.T) {
	ks := &mockKeyStore{keys: []*models.APIKey{keyWithScopes(t, "rfc_0123_something_else", "read")}}
	auth := mw.NewAuth(ks, zap.NewNop())
	w := serve(auth.Authenticate(okHandler()), "Bearer "+rawKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidKey(t *testing.T) {
	key := keyWithScopes(t, rawKey, "read", "analyze")
	ks := &mockKeyStore{keys: []*models.APIKey{key}, touched: make(chan uuid.UUID, 1)}
	auth := mw.NewAuth(ks, zap.NewNop())

	var gotPrefix string
	var gotScopes []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefix, _ = mw.KeyPrefix(r)
		gotScopes = mw.Scopes(r)
		w.WriteHeader(http.StatusOK)
	})

	w := serve(auth.Authenticate(inner), "Bearer "+rawKey)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rawKey[:8], gotPrefix)
	assert.Equal(t, []string{"read", "analyze"}, gotScopes)

	select {
	case id := <-ks.touched:
		assert.Equal(t, key.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("last use was not recorded")
	}
}

func TestAuth_RequireScope(t *testing.T) {
	tests := []struct {
		name   string
		scopes []string
		want   int
	}{
		{"has scope", []string{"read", "analyze"}, http.StatusOK},
		{"admin implies all", []string{"admin"}, http.StatusOK},
		{"missing scope", []string{"read"}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ks := &mockKeyStore{keys: []*models.APIKey{keyWithScopes(t, rawKey, tc.scopes...)}}
			auth := mw.NewAuth(ks, zap.NewNop())
			handler := auth.Authenticate(auth.RequireScope("analyze")(okHandler()))

			w := serve(handler, "Bearer "+rawKey)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errBody(t, w)["code"])
			}
		})
	}
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func authenticated(prefix string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	return req.WithContext(mw.WithKeyPrefix(req.Context(), prefix))
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCounter{}, 60, zap.NewNop())

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, authenticated("rfc_abcd"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCounter{counter: 60}, 60, zap.NewNop())

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, authenticated("rfc_abcd"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_DefaultLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCounter{}, 0, zap.NewNop())

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, authenticated("rfc_abcd"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_PassThrough(t *testing.T) {
	t.Run("no key prefix", func(t *testing.T) {
		rl := mw.NewRateLimit(&mockCounter{}, 60, zap.NewNop())
		w := serve(rl.Limit(okHandler()), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("no counter", func(t *testing.T) {
		rl := mw.NewRateLimit(nil, 60, zap.NewNop())
		w := httptest.NewRecorder()
		rl.Limit(okHandler()).ServeHTTP(w, authenticated("rfc_abcd"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	})
	t.Run("counter error fails open", func(t *testing.T) {
		rl := mw.NewRateLimit(&mockCounter{err: errors.New("redis down")}, 60, zap.NewNop())
		w := httptest.NewRecorder()
		rl.Limit(okHandler()).ServeHTTP(w, authenticated("rfc_abcd"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	w := serve(mw.Recovery(zap.NewNop())(panicking), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	w := serve(mw.Recovery(zap.NewNop())(okHandler()), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_ReportsRoutePattern(t *testing.T) {
	obs := &mockObserver{}
	r := chi.NewRouter()
	r.Use(mw.Logger(zap.NewNop(), obs))
	r.Get("/keys/{keyID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/keys/abc", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	require.Len(t, obs.got, 1)
	assert.Equal(t, recordedRequest{"GET", "/keys/{keyID}", http.StatusTeapot}, obs.got[0])
}

func TestLogger_NilObserver(t *testing.T) {
	w := serve(mw.Logger(zap.NewNop(), nil)(okHandler()), "")
	assert.Equal(t, http.StatusOK, w.Code)
}
