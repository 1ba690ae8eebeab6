package engine

import "context"

// Runtime abstracts the diffusion runtime that hosts the actual pipeline.
// The production implementation drives a worker subprocess; tests inject
// fakes. Calls arrive in a fixed order during load: LoadComponents,
// ApplyQuantization (once per overlay), EnableOffload.
type Runtime interface {
	// LoadComponents resolves the base pipeline (denoiser stages, VAE,
	// text encoder) from local weights. It must not download anything.
	LoadComponents(ctx context.Context, spec LoadSpec) error
	// ApplyQuantization rebinds one denoiser sub-module to a compact
	// weight representation to reduce the resident footprint.
	ApplyQuantization(ctx context.Context, overlay QuantOverlay) error
	// EnableOffload turns on host/accelerator staging so a model larger
	// than accelerator memory can still run.
	EnableOffload(ctx context.Context) error
	// Generate runs one text-to-video computation and writes the clip to
	// job.OutputPath.
	Generate(ctx context.Context, job Job) (JobResult, error)
	// ReclaimMemory releases transient allocation residue from the last
	// call: a general collection pass plus accelerator cache flush when
	// one exists. It never unloads the pipeline weights.
	ReclaimMemory(ctx context.Context) error
	// Healthy reports whether the runtime can still serve calls. A
	// runtime killed on cancellation or crashed mid-call reports false;
	// the cache evicts and reloads such a slot on the next acquire.
	Healthy() bool
	// Close tears the runtime down. Only called at daemon shutdown or
	// when a load sequence failed partway.
	Close() error
}

// LoadSpec describes the base pipeline load.
type LoadSpec struct {
	Device           string `json:"device"`
	UpstreamID       string `json:"upstream_id"`
	BaseWeightsDir   string `json:"base_weights_dir"`
	AttentionSlicing bool   `json:"attention_slicing"`
}

// QuantOverlay rebinds one sub-module to compact weights.
type QuantOverlay struct {
	Submodule  string `json:"submodule"`
	WeightsDir string `json:"weights_dir"`
}

// Job carries the parameters of one generation computation.
type Job struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Frames         int     `json:"num_frames"`
	Steps          int     `json:"num_inference_steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	GuidanceScale2 float64 `json:"guidance_scale_2"`
	Seed           *int64  `json:"seed,omitempty"`
	OutputPath     string  `json:"output_path"`
}

// JobResult is what the runtime reports for a finished computation.
type JobResult struct {
	Frames int   `json:"frames"`
	Seed   int64 `json:"seed"`
}
