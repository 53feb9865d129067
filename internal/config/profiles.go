package config

import (
	"fmt"
)

// ApplyProfile применяет профиль производительности к конфигурации
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "safe":
		cfg.Wipe.MaxSpeedMBps = 10
		cfg.Wipe.BufferSize = 1 * 1024 * 1024 // 1MB
		cfg.Wipe.VerifyAfterWipe = true
	case "balanced":
		cfg.Wipe.MaxSpeedMBps = 50
		cfg.Wipe.BufferSize = 4 * 1024 * 1024 // 4MB
	case "aggressive":
		cfg.Wipe.MaxSpeedMBps = 0              // unlimited
		cfg.Wipe.BufferSize = 16 * 1024 * 1024 // 16MB
	case "fast":
		cfg.Wipe.MaxSpeedMBps = 0              // unlimited
		cfg.Wipe.BufferSize = 64 * 1024 * 1024 // 64MB
		cfg.Wipe.DefaultAlgorithm = "single-random"
	default:
		return fmt.Errorf("неизвестный профиль: %s", profile)
	}
	return nil
}
