//go:build linux

package device

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// platformSize возвращает размер блочного устройства через BLKGETSIZE64
func platformSize(f *os.File) (int64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}

// listDevices перечисляет блочные устройства через /sys/block
func listDevices() ([]Device, error) {
	entries, err := os.ReadDir("/sys/block")
	if err != nil {
		return nil, err
	}

	mounts := readMountTable()

	var devices []Device
	for _, entry := range entries {
		name := entry.Name()
		if skipBlockDevice(name) {
			continue
		}

		sysPath := filepath.Join("/sys/block", name)
		devPath := filepath.Join("/dev", name)

		size := readSysInt(filepath.Join(sysPath, "size")) * 512
		if size <= 0 {
			continue // Пропускаем устройства без носителя
		}

		dev := Device{
			Path:        devPath,
			Name:        name,
			SizeBytes:   size,
			SizeHuman:   HumanSize(size),
			Type:        deviceType(sysPath),
			Removable:   readSysInt(filepath.Join(sysPath, "removable")) == 1,
			Writable:    unix.Access(devPath, unix.W_OK) == nil,
			MountPoints: mounts[devPath],
			Model:       readSysString(filepath.Join(sysPath, "device", "model")),
		}

		devices = append(devices, dev)
	}

	return devices, nil
}

// skipBlockDevice отфильтровывает виртуальные устройства
func skipBlockDevice(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "sr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func deviceType(sysPath string) string {
	switch readSysInt(filepath.Join(sysPath, "queue", "rotational")) {
	case 0:
		return "SSD"
	case 1:
		return "HDD"
	default:
		return "Unknown"
	}
}

func readSysInt(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func readSysString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readMountTable читает таблицу монтирования: устройство -> точки
func readMountTable() map[string][]string {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil
	}
	defer f.Close()

	return parseMountTable(f)
}

// parseMountTable разбирает таблицу в формате /proc/mounts.
// Разделы (/dev/sda1) учитываются за родительским устройством (/dev/sda).
func parseMountTable(r io.Reader) map[string][]string {
	mounts := make(map[string][]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}

		source := fields[0]
		point := fields[1]

		mounts[source] = append(mounts[source], point)

		// Раздел считается монтированием родительского устройства
		parent := strings.TrimRight(source, "0123456789")
		parent = strings.TrimSuffix(parent, "p")
		if parent != source && parent != "/dev/" {
			mounts[parent] = append(mounts[parent], point)
		}
	}

	return mounts
}
