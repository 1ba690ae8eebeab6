// Package catalog holds the static mapping from abstract model ids to
// upstream weight repositories and their resource requirements.
package catalog

import (
	"context"

	"videod/pkg/types"
)

// Catalog is an ordered, read-only set of model descriptors. Declaration
// order is significant: it breaks capability ties during recommendation.
type Catalog struct {
	entries []types.ModelDescriptor
}

// New builds a catalog from the given descriptors. The slice is copied.
func New(entries []types.ModelDescriptor) Catalog {
	out := make([]types.ModelDescriptor, len(entries))
	copy(out, entries)
	return Catalog{entries: out}
}

// Default is the built-in catalog for the Wan2.2 text-to-video family.
func Default() Catalog {
	return New([]types.ModelDescriptor{
		{
			ID:         "wan22-a14b-bf16",
			UpstreamID: "Wan-AI/Wan2.2-T2V-A14B-Diffusers",
			Precision:  "bf16",
			MinMemGB:   58,
			Capability: 30,
		},
		{
			ID:         "wan22-a14b-df11",
			UpstreamID: "DFloat11/Wan2.2-T2V-A14B-DF11",
			Precision:  "df11",
			MinMemGB:   32,
			Capability: 28,
		},
		{
			ID:         "wan22-5b-bf16",
			UpstreamID: "Wan-AI/Wan2.2-TI2V-5B-Diffusers",
			Precision:  "bf16",
			MinMemGB:   12,
			Capability: 10,
		},
	})
}

// All returns a copy of every descriptor in declaration order.
func (c Catalog) All() []types.ModelDescriptor {
	out := make([]types.ModelDescriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get looks up a descriptor by abstract id.
func (c Catalog) Get(id string) (types.ModelDescriptor, bool) {
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return types.ModelDescriptor{}, false
}

// Recommend filters the catalog down to the entries that fit the profile's
// memory budget and marks exactly one of them, the highest-capability fit,
// as recommended. Earlier declaration wins capability ties. An empty result
// means no model is runnable on this hardware; that is not an error.
func (c Catalog) Recommend(profile types.DeviceProfile) []types.ModelDescriptor {
	budget, known := profile.MemoryBudgetGB()

	var fits []types.ModelDescriptor
	best := -1
	for _, e := range c.entries {
		if e.MinMemGB > 0 && (!known || e.MinMemGB > budget) {
			continue
		}
		e.Recommended = false
		fits = append(fits, e)
		if best < 0 || fits[best].Capability < e.Capability {
			best = len(fits) - 1
		}
	}
	if best >= 0 {
		fits[best].Recommended = true
	}
	return fits
}

// Prober yields a device profile; satisfied by hardware.Prober.
type Prober interface {
	Probe(ctx context.Context) types.DeviceProfile
}

// Available probes the host and assembles the models response served by
// the CLI and the HTTP API. Built fresh per call, no shared state.
func (c Catalog) Available(ctx context.Context, prober Prober) types.ModelsResponse {
	profile := prober.Probe(ctx)
	return types.ModelsResponse{
		Device: profile.Device,
		RAMGB:  profile.RAMGB,
		VRAMGB: profile.VRAMGB,
		Models: c.Recommend(profile),
	}
}
