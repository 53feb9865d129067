package security

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"wipeout_enterprise/internal/config"
)

func Checks(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}

	if cfg.Security.RequireAdmin {
		if !IsAdmin() {
			return fmt.Errorf("требуются права администратора (root)")
		}
	}

	return nil
}

// Проверка административных прав
func IsAdmin() bool {
	if runtime.GOOS == "windows" {
		// На Windows пробуем открыть физический диск напрямую
		f, err := os.Open(`\\.\PHYSICALDRIVE0`)
		if err == nil {
			f.Close()
			return true
		}
		return false
	}

	return os.Geteuid() == 0
}

// ValidateTargetPath проверяет, что цель не защищена политикой безопасности
func ValidateTargetPath(cfg *config.Config, path string) error {
	if path == "" {
		return fmt.Errorf("пустой путь цели")
	}

	clean := filepath.Clean(path)
	if clean == "." {
		return fmt.Errorf("некорректный путь цели: %s", path)
	}

	for _, protected := range cfg.Security.ProtectedPaths {
		if protected == "" {
			continue
		}
		if strings.EqualFold(clean, filepath.Clean(protected)) {
			return fmt.Errorf("цель %s защищена политикой безопасности", path)
		}
	}

	return nil
}
