package hardware

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultSMIPath = "nvidia-smi"

// SMI queries NVIDIA accelerator properties through the nvidia-smi tool.
type SMI struct {
	path    string
	timeout time.Duration
}

// NewSMI builds an SMI wrapper; an empty path uses the PATH lookup default.
func NewSMI(path string) *SMI {
	if path == "" {
		path = defaultSMIPath
	}
	return &SMI{path: path, timeout: 5 * time.Second}
}

// Path returns the nvidia-smi binary path in use.
func (s *SMI) Path() string { return s.path }

// SetTimeout overrides the per-invocation timeout.
func (s *SMI) SetTimeout(d time.Duration) { s.timeout = d }

// Available reports whether nvidia-smi runs successfully on this host.
func (s *SMI) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return exec.CommandContext(ctx, s.path, "--list-gpus").Run() == nil
}

// MemoryTotalGB returns the total memory of the first accelerator in GB.
func (s *SMI) MemoryTotalGB(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, s.path,
		"--query-gpu=memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("nvidia-smi exited with code %d: %s",
				exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("run nvidia-smi: %w", err)
	}
	return parseMemoryTotalGB(string(out))
}

// parseMemoryTotalGB converts the first CSV line (MiB) to GB.
func parseMemoryTotalGB(out string) (float64, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, fmt.Errorf("empty nvidia-smi output")
	}
	mib, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("parse nvidia-smi memory %q: %w", line, err)
	}
	return mib / 1024.0, nil
}
