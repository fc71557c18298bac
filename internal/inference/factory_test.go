package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/internal/inference"
	"github.com/JeffersonLab/rfClassifier/internal/inference/mock"
)

func metadataServer(t *testing.T, readyStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/models/cavity_model", "/v2/models/fault_model":
			json.NewEncoder(w).Encode(map[string]any{
				"name":    r.URL.Path[len("/v2/models/"):],
				"inputs":  []map[string]any{{"name": "x", "datatype": "FP32", "shape": []int64{-1, 4096, 32}}},
				"outputs": []map[string]any{{"name": "y", "datatype": "FP32", "shape": []int64{-1, 9}}},
			})
		case "/v2/models/cavity_model/ready", "/v2/models/fault_model/ready":
			w.WriteHeader(readyStatus)
		default:
			http.NotFound(w, r)
		}
	}))
}

func kserveConfig(baseURL string) config.InferenceConfig {
	return config.InferenceConfig{
		Backend: "kserve",
		Timeout: 5 * time.Second,
		KServe: config.KServeConfig{
			BaseURL:     baseURL,
			CavityModel: "cavity_model",
			FaultModel:  "fault_model",
		},
	}
}

func TestNewEngines_KServe(t *testing.T) {
	ts := metadataServer(t, http.StatusOK)
	defer ts.Close()

	engines, err := inference.NewEngines(context.Background(), kserveConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "kserve/cavity_model", engines.Cavity.Name())
	assert.Equal(t, "kserve/fault_model", engines.Fault.Name())
	assert.NoError(t, engines.Ready(context.Background()))
}

func TestNewEngines_NotReady(t *testing.T) {
	ts := metadataServer(t, http.StatusServiceUnavailable)
	defer ts.Close()

	engines, err := inference.NewEngines(context.Background(), kserveConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	err = engines.Ready(context.Background())
	assert.ErrorIs(t, err, inference.ErrEngineUnavailable)
}

func TestNewEngines_MissingFaultModel(t *testing.T) {
	ts := metadataServer(t, http.StatusOK)
	defer ts.Close()

	cfg := kserveConfig(ts.URL)
	cfg.KServe.FaultModel = "missing_model"

	_, err := inference.NewEngines(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening fault model")
	assert.True(t, errors.Is(err, inference.ErrEngineUnavailable))
}

func TestNewEngines_UnknownBackend(t *testing.T) {
	cfg := config.InferenceConfig{Backend: "onnx"}
	_, err := inference.NewEngines(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown inference backend")
}

func TestEngines_ReadySkipsEnginesWithoutReadiness(t *testing.T) {
	engines := inference.Engines{
		Cavity: mock.NewEngine("cavity", 1),
		Fault:  mock.NewEngine("fault", 1),
	}
	assert.NoError(t, engines.Ready(context.Background()))
}
