// Package hardware classifies the host into a device class and measures
// the memory pools relevant to model placement. Probing is best-effort:
// a failed measurement leaves the field absent, it never fails the probe.
package hardware

import (
	"context"
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"

	"videod/pkg/types"
)

// Prober inspects the host once per Probe call. It holds no probe state
// between calls.
type Prober struct {
	log zerolog.Logger
	smi *SMI
}

// NewProber builds a Prober using the default nvidia-smi location.
func NewProber(log zerolog.Logger) *Prober {
	return &Prober{log: log, smi: NewSMI("")}
}

// Probe classifies the host in fixed preference order
// (cuda > mps > cpu) and fills in best-effort memory sizes.
func (p *Prober) Probe(ctx context.Context) types.DeviceProfile {
	profile := types.DeviceProfile{Device: p.detectDevice(ctx)}

	if gb, err := ramGB(); err == nil {
		profile.RAMGB = &gb
	} else {
		p.log.Debug().Err(err).Msg("ram size not measurable")
	}

	if profile.Device == types.DeviceCUDA {
		if gb, err := p.smi.MemoryTotalGB(ctx); err == nil {
			profile.VRAMGB = &gb
		} else {
			p.log.Debug().Err(err).Msg("vram size not measurable")
		}
	}

	p.log.Debug().
		Str("device", string(profile.Device)).
		Msg("hardware probe complete")
	return profile
}

func (p *Prober) detectDevice(ctx context.Context) types.DeviceClass {
	if hasCUDA(ctx, p.smi) {
		return types.DeviceCUDA
	}
	if hasMPS() {
		return types.DeviceMPS
	}
	return types.DeviceCPU
}

// hasMPS reports a unified-memory Apple accelerator.
func hasMPS() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

// hasCUDA reports a dedicated NVIDIA accelerator via the device node or a
// responsive nvidia-smi.
func hasCUDA(ctx context.Context, smi *SMI) bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	if _, err := exec.LookPath(smi.Path()); err != nil {
		return false
	}
	return smi.Available(ctx)
}

// attentionSlicingThresholdGB is the accelerator memory below which
// attention slicing is worth its throughput cost.
const attentionSlicingThresholdGB = 16.0

// AttentionSlicing hints whether the pipeline should slice attention to
// fit the probed memory. CPU execution never slices; an accelerator with
// unknown memory is assumed small.
func AttentionSlicing(profile types.DeviceProfile) bool {
	if profile.Device == types.DeviceCPU {
		return false
	}
	if profile.Device == types.DeviceCUDA {
		if profile.VRAMGB == nil {
			return true
		}
		return *profile.VRAMGB < attentionSlicingThresholdGB
	}
	// Unified memory: slice when the shared pool is small.
	if profile.RAMGB == nil {
		return true
	}
	return *profile.RAMGB < attentionSlicingThresholdGB
}
