//go:build darwin

package hardware

import "os/exec"

// ramGB reads the host memory size via sysctl.
func ramGB() (float64, error) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return 0, err
	}
	return parseSysctlBytesGB(string(out))
}
