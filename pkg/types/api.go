package types

// GenerateRequest represents a video generation request payload.
type GenerateRequest struct {
	// Required prompt text to generate a video for.
	// example: a cat chasing a paper plane across a rooftop
	Prompt string `json:"prompt" example:"a cat chasing a paper plane across a rooftop"`
	// Optional device hint (cuda, mps, cpu). Empty lets the server probe.
	// example: cuda
	Device string `json:"device,omitempty" example:"cuda"`
}

// GenerateResponse is returned by POST /generate on success.
type GenerateResponse struct {
	// Record id assigned by the store, 0 when recording failed.
	// example: 17
	RecordID int64 `json:"record_id"`
	// Output file name under the outputs directory.
	// example: a-cat-chasing_5f3a.mp4
	Filename string `json:"filename" example:"a-cat-chasing_5f3a.mp4"`
	// Number of frames in the produced clip.
	// example: 150
	Frames int `json:"frames" example:"150"`
	// Wall-clock generation time in seconds.
	// example: 412.7
	GenerationTime float64 `json:"generation_time" example:"412.7"`
	// Seed the computation ran with, when reported by the runtime.
	Seed *int64 `json:"seed,omitempty"`
}

// ModelsResponse wraps the probed device profile and the catalog view
// returned by GET /models. Constructed fresh per call.
type ModelsResponse struct {
	// Device class the host was classified as.
	// example: cuda
	Device DeviceClass `json:"device" example:"cuda"`
	// Host RAM in GB, omitted when not measurable.
	RAMGB *float64 `json:"ram_gb,omitempty"`
	// Accelerator memory in GB, omitted when not measurable.
	VRAMGB *float64 `json:"vram_gb,omitempty"`
	// Catalog entries that fit the probed hardware, catalog order.
	Models []ModelDescriptor `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: prompt is required
	Error string `json:"error" example:"prompt is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Pipeline cache state: empty, loading or loaded.
	// example: loaded
	Pipeline string `json:"pipeline" example:"loaded"`
	// Model id the cached pipeline was loaded for, empty when none.
	// example: wan22-a14b-df11
	Model string `json:"model,omitempty" example:"wan22-a14b-df11"`
	// Device the pipeline is resident on, empty when none.
	// example: cuda
	Device string `json:"device,omitempty" example:"cuda"`
	// Total successful pipeline loads this process.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Total generation attempts this process.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Whether a generation is currently executing.
	InFlight bool `json:"in_flight"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
	// Last load or generation error observed, if any.
	LastError string `json:"last_error,omitempty"`
}
