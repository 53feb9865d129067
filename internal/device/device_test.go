package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenDiskImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 64*1024), 0644))

	f, size, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, int64(64*1024), size)

	// Позиция после определения размера остаётся в начале
	pos, err := f.Seek(0, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos)
}

func TestOpenMissingTarget(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "nope.img"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestOpenEmptyTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, _, err := Open(path)
	require.Error(t, err)
}

func TestHumanSize(t *testing.T) {
	require.Equal(t, "1.0 GiB", HumanSize(1024*1024*1024))
	require.Equal(t, "512 B", HumanSize(512))
	require.Equal(t, "unknown", HumanSize(-1))
}
