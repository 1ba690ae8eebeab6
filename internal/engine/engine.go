// Package engine orchestrates text-to-video generation: it owns the
// single-slot pipeline cache, admits one generation at a time, and
// guarantees transient memory is reclaimed on every exit path.
package engine

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"videod/internal/common/fsutil"
	"videod/pkg/types"
)

// Generation parameters fixed for the Wan2.2 T2V family. Parameterization
// per request is deliberately deferred.
const (
	genWidth     = 720
	genHeight    = 1280
	genFrames    = 150
	genSteps     = 30
	genGuidance  = 4.0
	genGuidance2 = 3.0
)

// defaultNegativePrompt is the family-tuned negative prompt carried with
// the upstream model card.
const defaultNegativePrompt = "色调艳丽，过曝，静态，细节模糊不清，字幕，风格，作品，画作，画面，静止，整体发灰，最差质量，低质量，JPEG压缩残留，丑陋的，残缺的，多余的手指，画得不好的手部，画得不好的脸部，畸形的，毁容的，形态畸形的肢体，手指融合，静止不动的画面，杂乱的背景，三条腿，背景人很多，倒着走"

// reclaimTimeout bounds the post-generation memory reclamation pass. It
// runs on a background context so caller cancellation cannot skip it.
const reclaimTimeout = 30 * time.Second

// recordTimeout bounds the recorder handoff. Like reclamation it runs on a
// background context: a canceled request must still leave its terminal
// record behind.
const recordTimeout = 10 * time.Second

// Recorder persists terminal generation metadata, best-effort. Returns the
// new record id, or 0 when persistence failed (already logged/counted by
// the implementation).
type Recorder interface {
	Record(ctx context.Context, rec types.GenerationRecord) int64
}

// Result is the outcome of a successful generation. A failed generation
// yields a typed error instead, never a nil-result success.
type Result struct {
	RecordID       int64
	Filename       string
	OutputPath     string
	Frames         int
	GenerationTime float64
	Seed           *int64
}

// Config wires an Engine.
type Config struct {
	Cache      *Cache
	Recorder   Recorder
	OutputsDir string
	Log        zerolog.Logger
}

// Engine executes generation requests against the cached pipeline.
type Engine struct {
	cache      *Cache
	recorder   Recorder
	outputsDir string
	log        zerolog.Logger

	genCh       chan struct{} // size 1: single in-flight generation
	generations atomic.Uint64

	errMu   sync.Mutex
	lastErr string

	startTime time.Time
}

// New builds an Engine around an injected cache and recorder.
func New(cfg Config) *Engine {
	return &Engine{
		cache:      cfg.Cache,
		recorder:   cfg.Recorder,
		outputsDir: cfg.OutputsDir,
		log:        cfg.Log,
		genCh:      make(chan struct{}, 1),
		startTime:  time.Now(),
	}
}

// Generate runs one text-to-video computation for prompt. The device hint
// only matters for the first call, which loads the pipeline.
//
// Exactly one memory reclamation pass runs per admitted call, success or
// failure; it flushes transient allocations, never the cached pipeline.
func (e *Engine) Generate(ctx context.Context, prompt, deviceHint string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, invalidPromptError{}
	}

	// Admission: one generation at a time, no queueing. The hardware has a
	// fixed memory budget; a second computation would thrash the offload.
	select {
	case e.genCh <- struct{}{}:
	default:
		return nil, busyError{}
	}
	defer func() { <-e.genCh }()

	pipe, err := e.cache.Acquire(ctx, deviceHint)
	if err != nil {
		return nil, err
	}

	filename := outputFilename(prompt)
	job := Job{
		Prompt:         prompt,
		NegativePrompt: defaultNegativePrompt,
		Width:          genWidth,
		Height:         genHeight,
		Frames:         genFrames,
		Steps:          genSteps,
		GuidanceScale:  genGuidance,
		GuidanceScale2: genGuidance2,
		OutputPath:     filepath.Join(e.outputsDir, filename),
	}

	e.log.Info().Str("prompt", prompt).Str("model", pipe.Model.ID).Msg("generation start")
	start := time.Now()
	e.generations.Add(1)

	// Reclaim transient memory no matter how the computation ends. A
	// background context keeps the pass alive through caller cancellation.
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), reclaimTimeout)
		defer cancel()
		if rerr := pipe.Reclaim(rctx); rerr != nil {
			e.log.Warn().Err(rerr).Msg("memory reclamation failed")
		}
		memoryReclaimsTotal.Inc()
	}()

	jobRes, err := pipe.Generate(ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		e.log.Error().Err(err).Dur("dur", elapsed).Msg("generation failed")
		e.setLastError(err.Error())
		generationsTotal.WithLabelValues(types.StatusFailed).Inc()
		rec := e.buildRecord(job, filename, elapsed, nil, types.StatusFailed)
		e.record(rec)
		return nil, generationError{cause: err}
	}

	generationsTotal.WithLabelValues(types.StatusSucceeded).Inc()
	generationDuration.Observe(elapsed.Seconds())

	seed := jobRes.Seed
	rec := e.buildRecord(job, filename, elapsed, &seed, types.StatusSucceeded)
	recordID := e.record(rec)

	frames := jobRes.Frames
	if frames == 0 {
		frames = job.Frames
	}
	e.log.Info().
		Str("filename", filename).
		Int("frames", frames).
		Dur("dur", elapsed).
		Msg("generation complete")
	return &Result{
		RecordID:       recordID,
		Filename:       filename,
		OutputPath:     job.OutputPath,
		Frames:         frames,
		GenerationTime: elapsed.Seconds(),
		Seed:           &seed,
	}, nil
}

// record hands a terminal record to the recorder on a fresh context, so a
// record is written even when the request that produced it was canceled.
func (e *Engine) record(rec types.GenerationRecord) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	return e.recorder.Record(ctx, rec)
}

// buildRecord assembles the immutable terminal record handed to the
// recorder. Only terminal outcomes ever reach here.
func (e *Engine) buildRecord(job Job, filename string, elapsed time.Duration, seed *int64, status string) types.GenerationRecord {
	pipeModel, pipePrecision := e.residentModel()
	return types.GenerationRecord{
		Prompt:         job.Prompt,
		Steps:          job.Steps,
		Width:          job.Width,
		Height:         job.Height,
		Filename:       filename,
		GenerationTime: elapsed.Seconds(),
		FileSizeKB:     fsutil.FileSizeKB(job.OutputPath),
		Model:          pipeModel,
		Precision:      pipePrecision,
		Seed:           seed,
		CFGScale:       job.GuidanceScale,
		Status:         status,
	}
}

func (e *Engine) residentModel() (model, precision string) {
	_, model, _ = e.cache.State()
	if desc, ok := e.descFor(model); ok {
		precision = desc.Precision
	}
	return model, precision
}

func (e *Engine) descFor(id string) (types.ModelDescriptor, bool) {
	return e.cache.cfg.Catalog.Get(id)
}

// Status summarizes engine and cache state for GET /status.
func (e *Engine) Status() types.StatusResponse {
	state, model, device := e.cache.State()
	lastErr := e.cache.LastError()
	if own := e.getLastError(); own != "" {
		lastErr = own
	}
	return types.StatusResponse{
		Pipeline:         state,
		Model:            model,
		Device:           device,
		LoadsTotal:       e.cache.LoadsTotal(),
		GenerationsTotal: e.generations.Load(),
		InFlight:         len(e.genCh) > 0,
		UptimeSeconds:    int64(time.Since(e.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
		LastError:        lastErr,
	}
}

// Ready reports whether the engine can serve requests. The pipeline loads
// lazily, so an empty cache is still ready; only a poisoned state is not.
func (e *Engine) Ready() bool {
	state, _, _ := e.cache.State()
	return state != CacheLoading
}

// Close releases the cached pipeline at shutdown.
func (e *Engine) Close() error {
	return e.cache.Close()
}

func (e *Engine) setLastError(msg string) {
	e.errMu.Lock()
	e.lastErr = msg
	e.errMu.Unlock()
}

func (e *Engine) getLastError() string {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// outputFilename derives a safe, unique clip name from the prompt prefix.
func outputFilename(prompt string) string {
	return sanitizePrompt(prompt, 30) + "_" + uuid.NewString()[:8] + ".mp4"
}

// sanitizePrompt keeps only filename-safe characters from the prompt head.
func sanitizePrompt(prompt string, maxLen int) string {
	if len(prompt) > maxLen {
		prompt = prompt[:maxLen]
	}
	var b strings.Builder
	for _, c := range prompt {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "video"
	}
	return b.String()
}
