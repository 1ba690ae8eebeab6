package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"videod/internal/catalog"
	"videod/pkg/types"
)

func gb(v float64) *float64 { return &v }

type fakeProber struct{ profile types.DeviceProfile }

func (f fakeProber) Probe(context.Context) types.DeviceProfile { return f.profile }

// fakeRuntime counts lifecycle calls and can be told to fail each stage.
type fakeRuntime struct {
	mu           sync.Mutex
	loadCalls    int
	overlays     []string
	offloadCalls int
	genCalls     int
	reclaimCalls int
	closeCalls   int

	failLoad    bool
	failQuant   bool
	failOffload bool
	genErr      error
	genBlock    chan struct{} // when set, Generate waits for a receive
	genResult   JobResult

	dead           bool // Healthy reports the inverse
	dieOnCtxCancel bool // Generate blocks until ctx is done, then dies
}

func (f *fakeRuntime) LoadComponents(ctx context.Context, spec LoadSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.failLoad {
		return errors.New("missing local model files")
	}
	return nil
}

func (f *fakeRuntime) ApplyQuantization(ctx context.Context, overlay QuantOverlay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlays = append(f.overlays, overlay.Submodule)
	if f.failQuant {
		return errors.New("bad shard")
	}
	return nil
}

func (f *fakeRuntime) EnableOffload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offloadCalls++
	if f.failOffload {
		return errors.New("offload unsupported")
	}
	return nil
}

func (f *fakeRuntime) Generate(ctx context.Context, job Job) (JobResult, error) {
	f.mu.Lock()
	f.genCalls++
	block := f.genBlock
	die := f.dieOnCtxCancel
	f.mu.Unlock()
	if die {
		// Mimics the worker adapter: cancellation kills the subprocess.
		<-ctx.Done()
		f.markDead()
		return JobResult{}, ctx.Err()
	}
	if block != nil {
		<-block
	}
	if f.genErr != nil {
		return JobResult{}, f.genErr
	}
	if f.genResult.Frames == 0 {
		return JobResult{Frames: job.Frames, Seed: 42}, nil
	}
	return f.genResult, nil
}

func (f *fakeRuntime) ReclaimMemory(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reclaimCalls++
	return nil
}

func (f *fakeRuntime) Healthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead
}

func (f *fakeRuntime) markDead() {
	f.mu.Lock()
	f.dead = true
	f.mu.Unlock()
}

func (f *fakeRuntime) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakeRuntime) counts() (load, offload, gen, reclaim, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls, f.offloadCalls, f.genCalls, f.reclaimCalls, f.closeCalls
}

func testEntries() catalog.Catalog {
	return catalog.New([]types.ModelDescriptor{
		{ID: "t2v-big", UpstreamID: "up/big", Precision: "bf16", MinMemGB: 16, Capability: 20},
		{ID: "t2v-small", UpstreamID: "up/small", Precision: "df11", MinMemGB: 4, Capability: 10},
	})
}

// newTestCache returns a cache whose runtime constructor hands out rt and
// counts constructions.
func newTestCache(t *testing.T, rt Runtime, mutate func(*CacheConfig)) (*Cache, *int) {
	t.Helper()
	constructions := 0
	cfg := CacheConfig{
		Catalog: testEntries(),
		Prober:  fakeProber{profile: types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(32)}},
		Weights: WeightsConfig{BaseDir: t.TempDir(), QuantDirs: []string{t.TempDir(), t.TempDir()}},
		NewRuntime: func() (Runtime, error) {
			constructions++
			return rt, nil
		},
		Log: zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewCache(cfg), &constructions
}

func TestAcquireLoadsOnce(t *testing.T) {
	rt := &fakeRuntime{}
	c, constructions := newTestCache(t, rt, nil)
	ctx := context.Background()

	p1, err := c.Acquire(ctx, "")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	p2, err := c.Acquire(ctx, "")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("expected identical pipeline across acquires")
	}
	if *constructions != 1 {
		t.Fatalf("expected 1 runtime construction, got %d", *constructions)
	}
	load, offload, _, _, _ := rt.counts()
	if load != 1 || offload != 1 {
		t.Fatalf("load sequence ran %d/%d times, want once", load, offload)
	}
	if !c.Loaded() {
		t.Fatalf("cache should report loaded")
	}
}

func TestAcquirePicksRecommendedModel(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, nil)
	p, err := c.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// 32 GB budget fits both entries; the higher-capability one wins.
	if p.Model.ID != "t2v-big" {
		t.Fatalf("expected recommended model, got %q", p.Model.ID)
	}
}

func TestAcquireFailureLeavesCacheEmptyAndRetries(t *testing.T) {
	rt := &fakeRuntime{failLoad: true}
	c, constructions := newTestCache(t, rt, nil)
	ctx := context.Background()

	if _, err := c.Acquire(ctx, ""); !IsLoadError(err) {
		t.Fatalf("expected load error, got %v", err)
	}
	if state, _, _ := c.State(); state != CacheEmpty {
		t.Fatalf("cache state after failure: %q, want empty", state)
	}
	_, _, _, _, closed := rt.counts()
	if closed != 1 {
		t.Fatalf("failed runtime not closed: %d", closed)
	}

	// Not a cached failure: the next acquire reruns the whole sequence.
	rt.failLoad = false
	if _, err := c.Acquire(ctx, ""); err != nil {
		t.Fatalf("retry acquire: %v", err)
	}
	if *constructions != 2 {
		t.Fatalf("expected fresh runtime per attempt, got %d constructions", *constructions)
	}
	load, _, _, _, _ := rt.counts()
	if load != 2 {
		t.Fatalf("expected load sequence rerun, got %d", load)
	}
}

func TestAcquireMissingWeights(t *testing.T) {
	rt := &fakeRuntime{}
	c, constructions := newTestCache(t, rt, func(cfg *CacheConfig) {
		cfg.Weights.BaseDir = "/nonexistent/wan22"
	})
	_, err := c.Acquire(context.Background(), "")
	if !IsWeightsMissing(err) {
		t.Fatalf("expected weights-missing error, got %v", err)
	}
	if *constructions != 0 {
		t.Fatalf("runtime must not start without weights")
	}
}

func TestAcquireNoModelFits(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, func(cfg *CacheConfig) {
		cfg.Prober = fakeProber{profile: types.DeviceProfile{Device: types.DeviceCPU, RAMGB: gb(2)}}
	})
	_, err := c.Acquire(context.Background(), "")
	if !IsNoModel(err) {
		t.Fatalf("expected no-model error, got %v", err)
	}
}

func TestAcquirePinnedModel(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, func(cfg *CacheConfig) {
		cfg.Model = "t2v-small"
	})
	p, err := c.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if p.Model.ID != "t2v-small" {
		t.Fatalf("pinned model not honored: %q", p.Model.ID)
	}
}

func TestAcquireUnknownPinnedModel(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, func(cfg *CacheConfig) {
		cfg.Model = "does-not-exist"
	})
	_, err := c.Acquire(context.Background(), "")
	if !IsLoadError(err) {
		t.Fatalf("expected load error for unknown model, got %v", err)
	}
}

func TestQuantOverlayStageOrder(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, nil)
	if _, err := c.Acquire(context.Background(), ""); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	rt.mu.Lock()
	overlays := append([]string(nil), rt.overlays...)
	rt.mu.Unlock()
	if len(overlays) != 2 || overlays[0] != "transformer" || overlays[1] != "transformer_2" {
		t.Fatalf("unexpected overlay order: %v", overlays)
	}
}

func TestConcurrentAcquireSharesOneLoad(t *testing.T) {
	rt := &fakeRuntime{}
	c, constructions := newTestCache(t, rt, nil)

	const n = 8
	var wg sync.WaitGroup
	pipes := make([]*Pipeline, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Acquire(context.Background(), "")
			if err != nil {
				t.Errorf("acquire %d: %v", i, err)
				return
			}
			pipes[i] = p
		}(i)
	}
	wg.Wait()

	if *constructions != 1 {
		t.Fatalf("concurrent acquires duplicated the load: %d constructions", *constructions)
	}
	for i := 1; i < n; i++ {
		if pipes[i] != pipes[0] {
			t.Fatalf("acquire %d returned a different pipeline", i)
		}
	}
}

func TestDeviceHintOverridesProbe(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, nil)
	p, err := c.Acquire(context.Background(), "cuda")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if p.Device != types.DeviceCUDA {
		t.Fatalf("hint ignored: %q", p.Device)
	}
}

func TestAcquireReloadsDeadRuntime(t *testing.T) {
	var made []*fakeRuntime
	c, _ := newTestCache(t, nil, func(cfg *CacheConfig) {
		cfg.NewRuntime = func() (Runtime, error) {
			rt := &fakeRuntime{}
			made = append(made, rt)
			return rt, nil
		}
	})
	ctx := context.Background()

	p1, err := c.Acquire(ctx, "")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	made[0].markDead()

	// A dead resident slot must be evicted and reloaded, not handed out.
	p2, err := c.Acquire(ctx, "")
	if err != nil {
		t.Fatalf("acquire after runtime death: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("dead pipeline handed out again")
	}
	if len(made) != 2 {
		t.Fatalf("expected a fresh runtime, got %d constructions", len(made))
	}
	_, _, _, _, closed := made[0].counts()
	if closed != 1 {
		t.Fatalf("dead runtime close calls: %d", closed)
	}
	if !c.Loaded() {
		t.Fatalf("cache should report loaded after reload")
	}
}

func TestRetryClearsLastError(t *testing.T) {
	rt := &fakeRuntime{failLoad: true}
	c, _ := newTestCache(t, rt, nil)
	ctx := context.Background()

	if _, err := c.Acquire(ctx, ""); !IsLoadError(err) {
		t.Fatalf("expected load error, got %v", err)
	}
	if c.LastError() == "" {
		t.Fatalf("failure not recorded in last error")
	}

	rt.failLoad = false
	if _, err := c.Acquire(ctx, ""); err != nil {
		t.Fatalf("retry acquire: %v", err)
	}
	if got := c.LastError(); got != "" {
		t.Fatalf("stale last error after successful load: %q", got)
	}
}

func TestCloseEmptiesCache(t *testing.T) {
	rt := &fakeRuntime{}
	c, _ := newTestCache(t, rt, nil)
	if _, err := c.Acquire(context.Background(), ""); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if state, _, _ := c.State(); state != CacheEmpty {
		t.Fatalf("state after close: %q", state)
	}
	_, _, _, _, closed := rt.counts()
	if closed != 1 {
		t.Fatalf("runtime close calls: %d", closed)
	}
}
