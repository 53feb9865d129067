package config

import "runtime"

// defaultProtectedPaths возвращает пути, затирание которых запрещено
// по умолчанию (системные носители)
func defaultProtectedPaths() []string {
	if runtime.GOOS == "windows" {
		systemDrive := "C:"
		return []string{
			systemDrive + `\Windows`,
			systemDrive + `\Program Files`,
			systemDrive + `\Program Files (x86)`,
			systemDrive + `\Users`,
			`\\.\PhysicalDrive0`,
		}
	}

	return []string{
		"/",
		"/boot",
		"/dev/sda",
		"/dev/nvme0n1",
	}
}
