package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"videod/internal/engine"
	"videod/internal/store"
	"videod/pkg/types"
)

type mockService struct {
	models      types.ModelsResponse
	generations []store.Generation
	loras       []types.LoRA
	status      types.StatusResponse
	ready       bool
	genResult   *engine.Result
	genErr      error
	listErr     error

	lastPrompt string
	lastDevice string
	lastLimit  int
}

func (m *mockService) Generate(ctx context.Context, prompt, deviceHint string) (*engine.Result, error) {
	m.lastPrompt, m.lastDevice = prompt, deviceHint
	if m.genErr != nil {
		return nil, m.genErr
	}
	if m.genResult != nil {
		return m.genResult, nil
	}
	return &engine.Result{Filename: "out.mp4", Frames: 150}, nil
}

func (m *mockService) Models(ctx context.Context) types.ModelsResponse { return m.models }

func (m *mockService) Generations(ctx context.Context, limit int) ([]store.Generation, error) {
	m.lastLimit = limit
	return m.generations, m.listErr
}

func (m *mockService) LoRAs(ctx context.Context) ([]types.LoRA, error) {
	return m.loras, m.listErr
}

func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func postGenerate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestGenerateHandler(t *testing.T) {
	seed := int64(99)
	svc := &mockService{genResult: &engine.Result{
		RecordID: 7, Filename: "a-cat_1a2b.mp4", Frames: 150, GenerationTime: 12.5, Seed: &seed,
	}}
	r := NewMux(svc)
	w := postGenerate(t, r, `{"prompt":"a cat","device":"cuda"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.RecordID != 7 || body.Filename != "a-cat_1a2b.mp4" || body.Frames != 150 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Seed == nil || *body.Seed != 99 {
		t.Fatalf("seed=%v", body.Seed)
	}
	if svc.lastPrompt != "a cat" || svc.lastDevice != "cuda" {
		t.Fatalf("service saw prompt=%q device=%q", svc.lastPrompt, svc.lastDevice)
	}
}

func TestGenerate_RequiresJSONContentType(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"prompt":"x"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	w := postGenerate(t, NewMux(&mockService{}), `{"prompt":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	w := postGenerate(t, NewMux(&mockService{}), `{"prompt":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Code != http.StatusBadRequest || body.Error == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: types.ModelsResponse{
		Device: types.DeviceCPU,
		Models: []types.ModelDescriptor{{ID: "m1"}, {ID: "m2", Recommended: true}},
	}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 || body.Device != types.DeviceCPU {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGenerationsHandler(t *testing.T) {
	svc := &mockService{generations: []store.Generation{
		{ID: 2, GenerationRecord: types.GenerationRecord{Prompt: "b"}},
		{ID: 1, GenerationRecord: types.GenerationRecord{Prompt: "a"}},
	}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generations?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.lastLimit != 2 {
		t.Fatalf("limit=%d", svc.lastLimit)
	}
	var body map[string][]store.Generation
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body["generations"]) != 2 {
		t.Fatalf("generations len=%d", len(body["generations"]))
	}
}

func TestGenerationsHandler_BadLimit(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generations?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerationsHandler_EmptyIsArray(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generations", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"generations":[]`) {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestLoRAsHandler(t *testing.T) {
	svc := &mockService{loras: []types.LoRA{{ID: 1, Filename: "ink.safetensors"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loras", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string][]types.LoRA
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body["loras"]) != 1 || body["loras"][0].Filename != "ink.safetensors" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Pipeline: "loaded", Model: "wan22-5b-bf16"}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Pipeline != "loaded" || body.Model != "wan22-5b-bf16" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenerate_BodyTooLarge(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := postGenerate(t, NewMux(&mockService{}), `{"prompt":"a prompt longer than sixteen bytes"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerate_UnknownErrorMaps500(t *testing.T) {
	svc := &mockService{genErr: errors.New("boom")}
	w := postGenerate(t, NewMux(svc), `{"prompt":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
