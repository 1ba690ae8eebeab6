package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// workerStartTimeout bounds how long we wait for the worker handshake.
const workerStartTimeout = 30 * time.Second

// WorkerRuntime drives a diffusion worker subprocess over NDJSON on
// stdin/stdout. The worker hosts the real pipeline; videod only sequences
// its lifecycle. Calls are serialized: the engine admits one generation at
// a time and the load sequence runs under the cache lock.
type WorkerRuntime struct {
	bin string
	log zerolog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  *bufio.Scanner
	nextID int

	// closed is atomic so health checks never block behind an
	// in-flight call holding mu.
	closed atomic.Bool
}

type workerRequest struct {
	ID     int             `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

type workerReply struct {
	ID     int             `json:"id"`
	Event  string          `json:"event,omitempty"`
	Done   bool            `json:"done,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// NewWorkerRuntime spawns the worker binary and waits for its ready line.
func NewWorkerRuntime(bin string, log zerolog.Logger) (*WorkerRuntime, error) {
	if strings.TrimSpace(bin) == "" {
		return nil, fmt.Errorf("worker binary not configured")
	}
	cmd := exec.Command(bin)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn worker %s: %w", bin, err)
	}
	go relayStderr(stderr, log)

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	w := &WorkerRuntime{bin: bin, log: log, cmd: cmd, stdin: stdin, lines: sc}

	if err := w.awaitReady(); err != nil {
		_ = w.Close()
		return nil, err
	}
	log.Info().Str("bin", bin).Int("pid", cmd.Process.Pid).Msg("worker started")
	return w, nil
}

// relayStderr forwards worker diagnostics into the structured log.
func relayStderr(r io.Reader, log zerolog.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			log.Debug().Str("stream", "worker").Msg(line)
		}
	}
}

func (w *WorkerRuntime) awaitReady() error {
	type ready struct {
		ok  bool
		err error
	}
	ch := make(chan ready, 1)
	go func() {
		for w.lines.Scan() {
			var rep workerReply
			if json.Unmarshal(w.lines.Bytes(), &rep) != nil {
				continue
			}
			if rep.Event == "ready" {
				ch <- ready{ok: true}
				return
			}
		}
		ch <- ready{err: fmt.Errorf("worker exited before ready")}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		return nil
	case <-time.After(workerStartTimeout):
		return fmt.Errorf("worker did not become ready within %s", workerStartTimeout)
	}
}

// call sends one op and blocks for its terminal reply, honoring ctx.
// Progress events for the op are logged and skipped.
func (w *WorkerRuntime) call(ctx context.Context, op string, params any, result any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed.Load() {
		return fmt.Errorf("worker closed")
	}

	w.nextID++
	req := workerRequest{ID: w.nextID, Op: op}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", op, err)
		}
		req.Params = raw
	}
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if _, err := w.stdin.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", op, err)
	}

	type outcome struct {
		rep workerReply
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		for w.lines.Scan() {
			var rep workerReply
			if err := json.Unmarshal(w.lines.Bytes(), &rep); err != nil {
				continue
			}
			if rep.ID != req.ID {
				continue
			}
			if !rep.Done {
				w.log.Debug().Str("op", op).Str("event", rep.Event).Msg("worker progress")
				continue
			}
			ch <- outcome{rep: rep}
			return
		}
		if err := w.lines.Err(); err != nil {
			ch <- outcome{err: fmt.Errorf("read worker: %w", err)}
			return
		}
		ch <- outcome{err: fmt.Errorf("worker closed stdout during %s", op)}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return o.err
		}
		if o.rep.Error != "" {
			return fmt.Errorf("%s: %s", op, o.rep.Error)
		}
		if result != nil && len(o.rep.Result) > 0 {
			if err := json.Unmarshal(o.rep.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", op, err)
			}
		}
		return nil
	case <-ctx.Done():
		// The computation cannot be interrupted mid-op; kill the worker so
		// the caller is not left sharing stdout with an abandoned reader.
		// Wait reaps the process; Healthy now reports false and the cache
		// reloads a fresh worker on the next acquire.
		w.closed.Store(true)
		_ = w.stdin.Close()
		_ = w.cmd.Process.Kill()
		_ = w.cmd.Wait()
		return ctx.Err()
	}
}

func (w *WorkerRuntime) LoadComponents(ctx context.Context, spec LoadSpec) error {
	return w.call(ctx, "load_components", spec, nil)
}

func (w *WorkerRuntime) ApplyQuantization(ctx context.Context, overlay QuantOverlay) error {
	return w.call(ctx, "apply_quantization", overlay, nil)
}

func (w *WorkerRuntime) EnableOffload(ctx context.Context) error {
	return w.call(ctx, "enable_offload", nil, nil)
}

func (w *WorkerRuntime) Generate(ctx context.Context, job Job) (JobResult, error) {
	var res JobResult
	if err := w.call(ctx, "generate", job, &res); err != nil {
		return JobResult{}, err
	}
	return res, nil
}

func (w *WorkerRuntime) ReclaimMemory(ctx context.Context) error {
	return w.call(ctx, "reclaim_memory", nil, nil)
}

// Healthy reports whether the worker process is still serviceable.
func (w *WorkerRuntime) Healthy() bool {
	return !w.closed.Load()
}

// Close terminates the worker. Best effort: close stdin so a well-behaved
// worker exits, then kill after a grace period.
func (w *WorkerRuntime) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}

	_ = w.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = w.cmd.Process.Kill()
		<-done
	}
	w.log.Info().Str("bin", w.bin).Msg("worker stopped")
	return nil
}
