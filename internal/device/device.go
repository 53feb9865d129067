package device

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
)

// ErrTargetNotWritable возвращается, когда цель нельзя открыть на запись
var ErrTargetNotWritable = errors.New("target is not writable")

// Device contains information about a storage device
type Device struct {
	Path        string   `json:"path"`
	Name        string   `json:"name"`
	SizeBytes   int64    `json:"size_bytes"`
	SizeHuman   string   `json:"size_human"`
	Type        string   `json:"type"` // HDD/SSD/Unknown
	Removable   bool     `json:"removable"`
	Writable    bool     `json:"writable"`
	MountPoints []string `json:"mount_points,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// List enumerates candidate storage devices on this platform.
// Inaccessible devices are skipped, not reported as errors.
func List() ([]Device, error) {
	return listDevices()
}

// Open opens a wipe target for read+write and determines its size.
// Подходит и для блочных устройств, и для образов дисков.
func Open(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("target %s not found", path)
		}
		if os.IsPermission(err) {
			return nil, 0, fmt.Errorf("%w: %s: %v", ErrTargetNotWritable, path, err)
		}
		return nil, 0, fmt.Errorf("failed to open target %s: %w", path, err)
	}

	size, err := Size(f)
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to determine size of %s: %w", path, err)
	}
	if size <= 0 {
		f.Close()
		return nil, 0, fmt.Errorf("target %s has zero size", path)
	}

	return f, size, nil
}

// Size определяет размер цели: seek в конец, для блочных устройств,
// где seek возвращает 0, запасной путь через платформенный ioctl
func Size(f *os.File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err == nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return 0, serr
		}
		if size > 0 {
			return size, nil
		}
	}

	return platformSize(f)
}

// HumanSize форматирует размер для вывода (IEC, 1024-based)
func HumanSize(bytes int64) string {
	if bytes < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(bytes))
}
