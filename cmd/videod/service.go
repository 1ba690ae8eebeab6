package main

import (
	"context"

	"videod/internal/catalog"
	"videod/internal/engine"
	"videod/internal/hardware"
	"videod/internal/store"
	"videod/pkg/types"
)

// service glues the engine, catalog and store into the HTTP API surface.
type service struct {
	eng           *engine.Engine
	cat           catalog.Catalog
	prober        *hardware.Prober
	st            *store.Store
	defaultDevice string
}

func (s *service) Generate(ctx context.Context, prompt, deviceHint string) (*engine.Result, error) {
	if deviceHint == "" {
		deviceHint = s.defaultDevice
	}
	return s.eng.Generate(ctx, prompt, deviceHint)
}

func (s *service) Models(ctx context.Context) types.ModelsResponse {
	return s.cat.Available(ctx, s.prober)
}

func (s *service) Generations(ctx context.Context, limit int) ([]store.Generation, error) {
	return s.st.ListGenerations(ctx, limit)
}

func (s *service) LoRAs(ctx context.Context) ([]types.LoRA, error) {
	return s.st.ListLoRAs(ctx)
}

func (s *service) Status() types.StatusResponse { return s.eng.Status() }
func (s *service) Ready() bool                  { return s.eng.Ready() }
