//go:build !linux && !windows

package device

import (
	"fmt"
	"os"
	"runtime"
)

func platformSize(f *os.File) (int64, error) {
	return 0, fmt.Errorf("block device size detection is not supported on %s", runtime.GOOS)
}

func listDevices() ([]Device, error) {
	return nil, fmt.Errorf("device enumeration is not supported on %s", runtime.GOOS)
}
