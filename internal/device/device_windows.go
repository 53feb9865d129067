//go:build windows

package device

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IOCTL_DISK_GET_LENGTH_INFO возвращает длину диска в байтах
const ioctlDiskGetLengthInfo = 0x0007405C

// platformSize возвращает размер физического диска через DeviceIoControl
func platformSize(f *os.File) (int64, error) {
	var length int64
	var returned uint32

	err := windows.DeviceIoControl(
		windows.Handle(f.Fd()),
		ioctlDiskGetLengthInfo,
		nil, 0,
		(*byte)(unsafe.Pointer(&length)), uint32(unsafe.Sizeof(length)),
		&returned, nil,
	)
	if err != nil {
		return 0, fmt.Errorf("IOCTL_DISK_GET_LENGTH_INFO failed: %w", err)
	}

	return length, nil
}

// listDevices перечисляет логические диски через Windows API
func listDevices() ([]Device, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("GetLogicalDrives failed: %w", err)
	}

	var devices []Device
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}

		letter := string(rune('A'+i)) + ":"
		root := letter + `\`

		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		// Только локальные диски
		if windows.GetDriveType(rootPtr) != windows.DRIVE_FIXED {
			continue
		}

		var freeBytes, totalBytes, totalFree uint64
		if err := windows.GetDiskFreeSpaceEx(rootPtr, &freeBytes, &totalBytes, &totalFree); err != nil {
			continue // Пропускаем недоступные диски
		}

		devices = append(devices, Device{
			Path:        letter,
			Name:        letter,
			SizeBytes:   int64(totalBytes),
			SizeHuman:   HumanSize(int64(totalBytes)),
			Type:        "Unknown",
			Writable:    true,
			MountPoints: []string{root},
		})
	}

	return devices, nil
}
