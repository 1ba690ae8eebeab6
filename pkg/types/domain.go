package types

// DeviceClass is the category of compute hardware available on the host.
type DeviceClass string

const (
	// DeviceCUDA is a dedicated accelerator with its own memory.
	DeviceCUDA DeviceClass = "cuda"
	// DeviceMPS is a unified-memory accelerator (Apple silicon).
	DeviceMPS DeviceClass = "mps"
	// DeviceCPU means no usable accelerator was found.
	DeviceCPU DeviceClass = "cpu"
)

// DeviceProfile is the result of probing the host once. RAMGB and VRAMGB
// are nil when the corresponding measurement was not possible.
type DeviceProfile struct {
	// Device class selected in preference order cuda > mps > cpu.
	// example: cuda
	Device DeviceClass `json:"device" example:"cuda"`
	// Host RAM in GB, nil when not measurable.
	// example: 64
	RAMGB *float64 `json:"ram_gb,omitempty" example:"64"`
	// Accelerator memory in GB, nil when not measurable.
	// example: 24
	VRAMGB *float64 `json:"vram_gb,omitempty" example:"24"`
}

// MemoryBudgetGB returns the memory pool model weights must fit into for
// this device class: dedicated VRAM for cuda, host RAM for unified-memory
// and CPU execution. Returns 0, false when the relevant pool is unknown.
func (p DeviceProfile) MemoryBudgetGB() (float64, bool) {
	switch p.Device {
	case DeviceCUDA:
		if p.VRAMGB != nil {
			return *p.VRAMGB, true
		}
	default:
		if p.RAMGB != nil {
			return *p.RAMGB, true
		}
	}
	return 0, false
}

// ModelDescriptor maps a stable abstract model id to the upstream weights
// it resolves to, plus the resources it needs. Catalog entries are
// read-only at runtime.
type ModelDescriptor struct {
	// Stable identifier used across CLI, API and generation records.
	// example: wan22-a14b-df11
	ID string `json:"id" example:"wan22-a14b-df11"`
	// Upstream repository the weights come from.
	// example: DFloat11/Wan2.2-T2V-A14B-DF11
	UpstreamID string `json:"upstream_id" example:"DFloat11/Wan2.2-T2V-A14B-DF11"`
	// Weight precision variant.
	// example: df11
	Precision string `json:"precision" example:"df11"`
	// Minimum memory in GB required to run this variant.
	// example: 32
	MinMemGB float64 `json:"min_mem_gb" example:"32"`
	// Relative output quality rank; higher fits win the recommendation.
	Capability int `json:"-"`
	// True for the single best entry that fits the probed hardware.
	Recommended bool `json:"recommended"`
}

// LoRARef identifies a LoRA applied to a generation.
type LoRARef struct {
	// Store id of the LoRA.
	ID int64 `json:"id"`
	// Weight file name.
	// example: ink-style.safetensors
	Filename string `json:"filename"`
	// Strength the adapter was applied with.
	// example: 0.8
	Scale float64 `json:"scale"`
}

// LoRA is a stored LoRA weight file with display metadata.
type LoRA struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at_unix"`
}

// GenerationRecord is the metadata of a terminal generation attempt,
// immutable once constructed. It is only ever built after the attempt
// finished (succeeded or failed), never from an in-flight one.
type GenerationRecord struct {
	Prompt         string    `json:"prompt"`
	Steps          int       `json:"steps"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Filename       string    `json:"filename"`
	GenerationTime float64   `json:"generation_time"`
	FileSizeKB     float64   `json:"file_size_kb"`
	Model          string    `json:"model"`
	Precision      string    `json:"precision"`
	Seed           *int64    `json:"seed,omitempty"`
	CFGScale       float64   `json:"cfg_scale"`
	Status         string    `json:"status"`
	LoRAs          []LoRARef `json:"loras,omitempty"`
}

// Generation statuses persisted with a record.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)
