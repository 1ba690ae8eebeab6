//go:build linux

package hardware

import "os"

// ramGB reads the host memory size from /proc/meminfo.
func ramGB() (float64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return parseMemInfoGB(f)
}
