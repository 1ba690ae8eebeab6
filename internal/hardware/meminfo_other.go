//go:build !linux && !darwin

package hardware

import "fmt"

func ramGB() (float64, error) {
	return 0, fmt.Errorf("ram measurement not supported on this platform")
}
