// Package httpapi exposes the video daemon over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"videod/internal/engine"
	"videod/internal/store"
	"videod/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, prompt, deviceHint string) (*engine.Result, error)
	Models(ctx context.Context) types.ModelsResponse
	Generations(ctx context.Context, limit int) ([]store.Generation, error)
	LoRAs(ctx context.Context) ([]types.LoRA, error)
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the router with all endpoints registered.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Post("/generate", handleGenerate(svc))
	r.Get("/models", handleModels(svc))
	r.Get("/generations", handleGenerations(svc))
	r.Get("/loras", handleLoRAs(svc))

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleGenerate runs one synchronous text-to-video generation.
//
// @Summary      Generate a video from a text prompt
// @Accept       json
// @Produce      json
// @Param        request body types.GenerateRequest true "generation request"
// @Success      200 {object} types.GenerateResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      429 {object} types.ErrorResponse
// @Failure      500 {object} types.ErrorResponse
// @Failure      503 {object} types.ErrorResponse
// @Router       /generate [post]
func handleGenerate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if sec := generateTimeout; sec > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(sec)*time.Second)
			defer tcancel()
		}

		start := time.Now()
		logRequestStart(r, "generate start", req.Prompt)
		res, err := svc.Generate(ctx, req.Prompt, req.Device)
		if err != nil {
			// Client disconnect or shutdown: nothing sensible to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := statusForError(err)
			writeJSONError(w, status, err.Error())
			logRequestEnd(r, "generate end", status, time.Since(start), err)
			return
		}
		writeJSON(w, http.StatusOK, types.GenerateResponse{
			RecordID:       res.RecordID,
			Filename:       res.Filename,
			Frames:         res.Frames,
			GenerationTime: res.GenerationTime,
			Seed:           res.Seed,
		})
		logRequestEnd(r, "generate end", http.StatusOK, time.Since(start), nil)
	}
}

// handleModels reports the probed hardware and the model variants that fit.
//
// @Summary      List model variants that fit this host
// @Produce      json
// @Success      200 {object} types.ModelsResponse
// @Router       /models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Models(r.Context()))
	}
}

// handleGenerations lists recent generation records, newest first.
//
// @Summary      List recent generations
// @Produce      json
// @Param        limit query int false "maximum rows to return"
// @Success      200 {object} map[string][]store.Generation
// @Failure      500 {object} types.ErrorResponse
// @Router       /generations [get]
func handleGenerations(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		gens, err := svc.Generations(r.Context(), limit)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if gens == nil {
			gens = []store.Generation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"generations": gens})
	}
}

// handleLoRAs lists registered LoRA adapters.
//
// @Summary      List registered LoRA adapters
// @Produce      json
// @Success      200 {object} map[string][]types.LoRA
// @Failure      500 {object} types.ErrorResponse
// @Router       /loras [get]
func handleLoRAs(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loras, err := svc.LoRAs(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if loras == nil {
			loras = []types.LoRA{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"loras": loras})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already written; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}
