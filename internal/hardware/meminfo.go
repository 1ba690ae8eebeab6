package hardware

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseMemInfoGB extracts MemTotal from /proc/meminfo content and converts
// it from kB to GB.
func parseMemInfoGB(r io.Reader) (float64, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed MemTotal line: %q", line)
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, fmt.Errorf("parse MemTotal %q: %w", fields[1], err)
		}
		return kb / (1024.0 * 1024.0), nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal not found")
}

// parseSysctlBytesGB converts a sysctl hw.memsize value (bytes) to GB.
func parseSysctlBytesGB(out string) (float64, error) {
	s := strings.TrimSpace(out)
	b, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hw.memsize %q: %w", s, err)
	}
	return b / (1024.0 * 1024.0 * 1024.0), nil
}
