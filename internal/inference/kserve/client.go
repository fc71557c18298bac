// Package kserve runs models served over the Open Inference Protocol (KServe v2 REST).
package kserve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const datatypeFP32 = "FP32"

// Engine implements models.InferenceEngine for one served model.
type Engine struct {
	baseURL string
	model   string
	input   tensorMetadata
	output  string
	client  *http.Client
	logger  *zap.Logger
}

// Open fetches the model metadata and returns an engine bound to its first input
// and first output. Called once per model at startup.
func Open(ctx context.Context, baseURL, model string, timeout time.Duration, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}

	var meta modelMetadata
	if err := e.get(ctx, e.modelURL(""), &meta); err != nil {
		return nil, fmt.Errorf("fetching metadata for %s: %w", model, err)
	}
	if len(meta.Inputs) == 0 || len(meta.Outputs) == 0 {
		return nil, fmt.Errorf("%w: model %s declares no inputs or outputs", models.ErrInvalidResponse, model)
	}
	if meta.Inputs[0].Datatype != datatypeFP32 {
		return nil, fmt.Errorf("%w: model %s input %s is %s, want %s",
			models.ErrShapeMismatch, model, meta.Inputs[0].Name, meta.Inputs[0].Datatype, datatypeFP32)
	}
	e.input = meta.Inputs[0]
	e.output = meta.Outputs[0].Name

	logger.Info("inference engine opened",
		zap.String("model", model),
		zap.String("input", e.input.Name),
		zap.Int64s("input_shape", e.input.Shape),
		zap.String("output", e.output),
	)
	return e, nil
}

// Name returns "kserve/<model>".
func (e *Engine) Name() string { return "kserve/" + e.model }

// Run sends one FP32 tensor to the model and returns its first requested output.
func (e *Engine) Run(ctx context.Context, in models.Tensor) (models.Tensor, error) {
	if err := e.checkShape(in); err != nil {
		return models.Tensor{}, err
	}

	body, err := json.Marshal(inferRequest{
		Inputs: []inferTensor{{
			Name:     e.input.Name,
			Shape:    in.Shape,
			Datatype: datatypeFP32,
			Data:     in.Data,
		}},
		Outputs: []requestedOutput{{Name: e.output}},
	})
	if err != nil {
		return models.Tensor{}, fmt.Errorf("encoding infer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.modelURL("/infer"), bytes.NewReader(body))
	if err != nil {
		return models.Tensor{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return models.Tensor{}, classifyError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return models.Tensor{}, err
	}

	var inferResp inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&inferResp); err != nil {
		return models.Tensor{}, fmt.Errorf("%w: decoding infer response: %v", models.ErrInvalidResponse, err)
	}

	return e.pickOutput(inferResp)
}

// Ready reports whether the model is loaded and ready to serve.
func (e *Engine) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.modelURL("/ready"), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: model %s not ready (status %d)", models.ErrEngineUnavailable, e.model, resp.StatusCode)
	}
	return nil
}

func (e *Engine) checkShape(in models.Tensor) error {
	if int64(len(in.Data)) != in.Elements() {
		return fmt.Errorf("%w: %d values for shape %v", models.ErrShapeMismatch, len(in.Data), in.Shape)
	}
	if len(in.Shape) != len(e.input.Shape) {
		return fmt.Errorf("%w: model %s expects rank %d, got shape %v",
			models.ErrShapeMismatch, e.model, len(e.input.Shape), in.Shape)
	}
	for i, d := range e.input.Shape {
		if d != -1 && d != in.Shape[i] {
			return fmt.Errorf("%w: model %s expects shape %v, got %v",
				models.ErrShapeMismatch, e.model, e.input.Shape, in.Shape)
		}
	}
	return nil
}

func (e *Engine) pickOutput(resp inferResponse) (models.Tensor, error) {
	if len(resp.Outputs) == 0 {
		return models.Tensor{}, fmt.Errorf("%w: no outputs", models.ErrInvalidResponse)
	}
	out := resp.Outputs[0]
	for _, o := range resp.Outputs {
		if o.Name == e.output {
			out = o
			break
		}
	}

	t := models.Tensor{Shape: out.Shape, Data: out.Data}
	if int64(len(t.Data)) != t.Elements() {
		return models.Tensor{}, fmt.Errorf("%w: output %s has %d values for shape %v",
			models.ErrInvalidResponse, out.Name, len(t.Data), t.Shape)
	}
	return t, nil
}

func (e *Engine) get(ctx context.Context, u string, dst any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding response: %v", models.ErrInvalidResponse, err)
	}
	return nil
}

func (e *Engine) modelURL(suffix string) string {
	return fmt.Sprintf("%s/v2/models/%s%s", e.baseURL, url.PathEscape(e.model), suffix)
}

// checkStatus maps non-200 responses to sentinel errors. Server-side failures
// mean the engine is unavailable; anything else means it rejected the request.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := fmt.Sprintf("status %d", resp.StatusCode)
	var errResp errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		msg += ": " + errResp.Error
	}

	switch {
	case resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", models.ErrInferenceTimeout, msg)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrEngineUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", models.ErrInvalidResponse, msg)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", models.ErrEngineUnavailable, err)
}

// --- Open Inference Protocol types ---

type modelMetadata struct {
	Name     string           `json:"name"`
	Versions []string         `json:"versions,omitempty"`
	Platform string           `json:"platform"`
	Inputs   []tensorMetadata `json:"inputs"`
	Outputs  []tensorMetadata `json:"outputs"`
}

type tensorMetadata struct {
	Name     string  `json:"name"`
	Datatype string  `json:"datatype"`
	Shape    []int64 `json:"shape"`
}

type inferRequest struct {
	Inputs  []inferTensor     `json:"inputs"`
	Outputs []requestedOutput `json:"outputs,omitempty"`
}

type requestedOutput struct {
	Name string `json:"name"`
}

type inferTensor struct {
	Name     string    `json:"name"`
	Shape    []int64   `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type inferResponse struct {
	ModelName string        `json:"model_name"`
	ID        string        `json:"id,omitempty"`
	Outputs   []inferTensor `json:"outputs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Compile-time check that Engine implements InferenceEngine.
var _ models.InferenceEngine = (*Engine)(nil)
