package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"videod/internal/catalog"
	"videod/internal/common/fsutil"
	"videod/internal/hardware"
	"videod/pkg/types"
)

// Cache state names reported by Status.
const (
	CacheEmpty   = "empty"
	CacheLoading = "loading"
	CacheLoaded  = "loaded"
)

// Prober yields a device profile; satisfied by hardware.Prober.
type Prober interface {
	Probe(ctx context.Context) types.DeviceProfile
}

// WeightsConfig locates the pre-populated local weight directories. The
// daemon never downloads weights; missing paths fail the load.
type WeightsConfig struct {
	// BaseDir holds the base pipeline (denoiser stages, VAE, text encoder).
	BaseDir string
	// QuantDirs hold compact-weight overlays, one per denoiser stage in
	// stage order. Empty means the base precision runs as-is.
	QuantDirs []string
}

// CacheConfig wires a Cache. NewRuntime is invoked once per load attempt.
type CacheConfig struct {
	Catalog    catalog.Catalog
	Prober     Prober
	Weights    WeightsConfig
	NewRuntime func() (Runtime, error)
	// Model pins the catalog entry to load. Empty picks the probed
	// recommendation.
	Model string
	Log   zerolog.Logger
}

// Pipeline is the loaded, device-resident generation pipeline. At most one
// instance exists per process; the Cache owns it exclusively.
type Pipeline struct {
	rt      Runtime
	Model   types.ModelDescriptor
	Device  types.DeviceClass
	Slicing bool
}

// Generate runs one computation on the resident pipeline.
func (p *Pipeline) Generate(ctx context.Context, job Job) (JobResult, error) {
	return p.rt.Generate(ctx, job)
}

// Reclaim releases transient memory from the last computation. The pipeline
// weights stay resident.
func (p *Pipeline) Reclaim(ctx context.Context) error {
	return p.rt.ReclaimMemory(ctx)
}

// Healthy reports whether the underlying runtime can still serve calls.
func (p *Pipeline) Healthy() bool {
	return p.rt.Healthy()
}

// Cache is the process-wide single-slot pipeline cache. The slot is never
// evicted during normal operation: load cost (minutes, tens of gigabytes)
// dwarfs inference cost, so residency is traded for zero reload latency.
//
// The mutex is held across the whole load, so concurrent acquirers block on
// the in-flight load instead of racing duplicate loads.
type Cache struct {
	cfg CacheConfig

	mu   sync.Mutex
	pipe *Pipeline

	statusMu sync.Mutex
	state    string
	model    string
	device   string
	loads    uint64
	lastErr  string
}

// NewCache builds an empty cache. Nothing is loaded until first Acquire.
func NewCache(cfg CacheConfig) *Cache {
	return &Cache{cfg: cfg, state: CacheEmpty}
}

// Acquire returns the resident pipeline, loading it on first use. The
// device hint overrides the probed device class when non-empty. A failed
// load leaves the cache empty; the next Acquire retries from scratch.
func (c *Cache) Acquire(ctx context.Context, deviceHint string) (*Pipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipe != nil {
		if c.pipe.Healthy() {
			return c.pipe, nil
		}
		// The worker died (killed on cancellation, or crashed). A dead
		// slot must not stay resident: evict it and load fresh, same as
		// a first acquire.
		c.cfg.Log.Warn().Str("model", c.pipe.Model.ID).Msg("resident pipeline runtime is dead, reloading")
		_ = c.pipe.rt.Close()
		c.pipe = nil
		c.statusMu.Lock()
		c.state = CacheEmpty
		c.model = ""
		c.device = ""
		c.statusMu.Unlock()
	}

	c.setState(CacheLoading, "")
	start := time.Now()
	pipe, err := c.load(ctx, deviceHint)
	if err != nil {
		loadFailuresTotal.Inc()
		c.setState(CacheEmpty, err.Error())
		return nil, err
	}
	c.pipe = pipe
	loadsTotal.Inc()
	loadDuration.Observe(time.Since(start).Seconds())
	c.statusMu.Lock()
	c.loads++
	c.model = pipe.Model.ID
	c.device = string(pipe.Device)
	c.statusMu.Unlock()
	c.setState(CacheLoaded, "")
	c.cfg.Log.Info().
		Str("model", pipe.Model.ID).
		Str("device", string(pipe.Device)).
		Dur("dur", time.Since(start)).
		Msg("pipeline loaded")
	return c.pipe, nil
}

// load runs the full load sequence. On any failure the partially built
// runtime is closed and nothing is cached.
func (c *Cache) load(ctx context.Context, deviceHint string) (*Pipeline, error) {
	profile := c.cfg.Prober.Probe(ctx)
	device := profile.Device
	if deviceHint != "" {
		device = types.DeviceClass(deviceHint)
		c.cfg.Log.Debug().Str("device", deviceHint).Msg("device hint overrides probe")
	}

	desc, err := c.resolveModel(profile)
	if err != nil {
		return nil, err
	}

	if !fsutil.PathExists(c.cfg.Weights.BaseDir) {
		return nil, weightsMissingError{path: c.cfg.Weights.BaseDir}
	}
	for _, dir := range c.cfg.Weights.QuantDirs {
		if !fsutil.PathExists(dir) {
			return nil, weightsMissingError{path: dir}
		}
	}

	rt, err := c.cfg.NewRuntime()
	if err != nil {
		return nil, loadError{stage: "runtime start", cause: err}
	}

	spec := LoadSpec{
		Device:           string(device),
		UpstreamID:       desc.UpstreamID,
		BaseWeightsDir:   c.cfg.Weights.BaseDir,
		AttentionSlicing: hardware.AttentionSlicing(profile),
	}
	if err := rt.LoadComponents(ctx, spec); err != nil {
		_ = rt.Close()
		return nil, loadError{stage: "base components", cause: err}
	}
	for i, dir := range c.cfg.Weights.QuantDirs {
		overlay := QuantOverlay{Submodule: stageName(i), WeightsDir: dir}
		if err := rt.ApplyQuantization(ctx, overlay); err != nil {
			_ = rt.Close()
			return nil, loadError{stage: "quantization overlay " + overlay.Submodule, cause: err}
		}
	}
	if err := rt.EnableOffload(ctx); err != nil {
		_ = rt.Close()
		return nil, loadError{stage: "offload", cause: err}
	}

	return &Pipeline{rt: rt, Model: desc, Device: device, Slicing: spec.AttentionSlicing}, nil
}

// resolveModel picks the pinned catalog entry, or the probed
// recommendation when none is pinned.
func (c *Cache) resolveModel(profile types.DeviceProfile) (types.ModelDescriptor, error) {
	if c.cfg.Model != "" {
		desc, ok := c.cfg.Catalog.Get(c.cfg.Model)
		if !ok {
			return types.ModelDescriptor{}, loadError{
				stage: "model resolution",
				cause: fmt.Errorf("unknown model id %q", c.cfg.Model),
			}
		}
		return desc, nil
	}
	for _, d := range c.cfg.Catalog.Recommend(profile) {
		if d.Recommended {
			return d, nil
		}
	}
	return types.ModelDescriptor{}, noModelError{}
}

// stageName maps overlay index to denoiser stage names: the Wan2.2 family
// runs a high-noise and a low-noise transformer.
func stageName(i int) string {
	if i == 0 {
		return "transformer"
	}
	return fmt.Sprintf("transformer_%d", i+1)
}

// Loaded reports whether a pipeline is resident.
func (c *Cache) Loaded() bool {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.state == CacheLoaded
}

// State returns the cache state name plus the resident model and device,
// empty strings when nothing is loaded.
func (c *Cache) State() (state, model, device string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	state = c.state
	if c.state == CacheLoaded {
		model = c.model
		device = c.device
	}
	return state, model, device
}

// LoadsTotal returns the number of successful loads this process.
func (c *Cache) LoadsTotal() uint64 {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.loads
}

// LastError returns the most recent load error message, if any.
func (c *Cache) LastError() string {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.lastErr
}

// setState records the state transition. lastErr is assigned
// unconditionally, so a successful load clears the previous failure.
func (c *Cache) setState(state, lastErr string) {
	c.statusMu.Lock()
	c.state = state
	c.lastErr = lastErr
	c.statusMu.Unlock()
}

// Close releases the resident pipeline. Only meant for daemon shutdown.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipe == nil {
		return nil
	}
	err := c.pipe.rt.Close()
	c.pipe = nil
	c.statusMu.Lock()
	c.state = CacheEmpty
	c.model = ""
	c.device = ""
	c.statusMu.Unlock()
	return err
}
