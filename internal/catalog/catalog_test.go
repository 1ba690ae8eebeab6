package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videod/pkg/types"
)

func gb(v float64) *float64 { return &v }

func testCatalog() Catalog {
	return New([]types.ModelDescriptor{
		{ID: "big", UpstreamID: "up/big", MinMemGB: 16, Capability: 20},
		{ID: "small", UpstreamID: "up/small", MinMemGB: 4, Capability: 10},
	})
}

func TestRecommendFiltersByBudget(t *testing.T) {
	// cpu-only host with 8 GB RAM: only the 4 GB entry fits, and it is
	// the recommendation.
	profile := types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(8)}
	got := testCatalog().Recommend(profile)
	require.Len(t, got, 1)
	assert.Equal(t, "small", got[0].ID)
	assert.True(t, got[0].Recommended)
}

func TestRecommendPicksHighestCapabilityFit(t *testing.T) {
	profile := types.DeviceProfile{Device: types.DeviceCUDA, VRAMGB: gb(24)}
	got := testCatalog().Recommend(profile)
	require.Len(t, got, 2)

	var recommended []string
	for _, d := range got {
		if d.Recommended {
			recommended = append(recommended, d.ID)
		}
	}
	require.Equal(t, []string{"big"}, recommended, "exactly one entry marked, the best fit")
}

func TestRecommendNothingFits(t *testing.T) {
	profile := types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(2)}
	got := testCatalog().Recommend(profile)
	assert.Empty(t, got)
}

func TestRecommendUnknownBudget(t *testing.T) {
	// cuda host where VRAM could not be measured: nothing fits.
	profile := types.DeviceProfile{Device: types.DeviceCUDA, RAMGB: gb(64)}
	got := testCatalog().Recommend(profile)
	assert.Empty(t, got)
}

func TestRecommendTieBrokenByDeclarationOrder(t *testing.T) {
	c := New([]types.ModelDescriptor{
		{ID: "first", MinMemGB: 4, Capability: 10},
		{ID: "second", MinMemGB: 4, Capability: 10},
	})
	got := c.Recommend(types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(8)})
	require.Len(t, got, 2)
	assert.True(t, got[0].Recommended)
	assert.False(t, got[1].Recommended)
}

func TestRecommendDoesNotMutateCatalog(t *testing.T) {
	c := testCatalog()
	_ = c.Recommend(types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(8)})
	for _, e := range c.All() {
		assert.False(t, e.Recommended, "catalog entries stay unmarked")
	}
}

func TestGet(t *testing.T) {
	c := testCatalog()
	d, ok := c.Get("big")
	require.True(t, ok)
	assert.Equal(t, "up/big", d.UpstreamID)

	_, ok = c.Get("nope")
	assert.False(t, ok)
}

type stubProber struct{ profile types.DeviceProfile }

func (s stubProber) Probe(context.Context) types.DeviceProfile { return s.profile }

func TestAvailable(t *testing.T) {
	prober := stubProber{profile: types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(8)}}
	resp := testCatalog().Available(context.Background(), prober)
	assert.Equal(t, types.DeviceCPU, resp.Device)
	require.NotNil(t, resp.RAMGB)
	assert.Equal(t, 8.0, *resp.RAMGB)
	require.Len(t, resp.Models, 1)
	assert.Equal(t, "small", resp.Models[0].ID)
}

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	all := c.All()
	require.NotEmpty(t, all)
	// Every id resolves back through Get and maps to an upstream repo.
	for _, e := range all {
		d, ok := c.Get(e.ID)
		require.True(t, ok)
		assert.NotEmpty(t, d.UpstreamID)
		assert.Greater(t, d.MinMemGB, 0.0)
	}
}
