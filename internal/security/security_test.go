package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wipeout_enterprise/internal/config"
)

func TestValidateTargetPath(t *testing.T) {
	cfg := config.Default()
	cfg.Security.ProtectedPaths = []string{"/", "/boot", "/dev/sda"}

	require.NoError(t, ValidateTargetPath(cfg, "/dev/sdb"))
	require.NoError(t, ValidateTargetPath(cfg, "/tmp/disk.img"))

	require.Error(t, ValidateTargetPath(cfg, ""))
	require.Error(t, ValidateTargetPath(cfg, "."))
	require.Error(t, ValidateTargetPath(cfg, "/"))
	require.Error(t, ValidateTargetPath(cfg, "/boot"))
	require.Error(t, ValidateTargetPath(cfg, "/dev/sda"))

	// Сравнение без учёта регистра и с нормализацией пути
	require.Error(t, ValidateTargetPath(cfg, "/boot/"))
	require.Error(t, ValidateTargetPath(cfg, "/DEV/SDA"))
}

func TestChecksWithoutAdminRequirement(t *testing.T) {
	cfg := config.Default()
	cfg.Security.RequireAdmin = false
	require.NoError(t, Checks(cfg))
}
