package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

func newTestImage(t *testing.T, blocks int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	require.NoError(t, CreateImage(path, blocks*types.BlockSize, false))
	return path
}

func TestCreateImage(t *testing.T) {
	path := newTestImage(t, 8)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8*types.BlockSize), info.Size())

	// Existing file is kept unless overwrite is requested
	assert.Error(t, CreateImage(path, 4*types.BlockSize, false))
	require.NoError(t, CreateImage(path, 4*types.BlockSize, true))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4*types.BlockSize), info.Size())

	assert.Error(t, CreateImage(path, 100, true))
	assert.Error(t, CreateImage(path, 0, true))
}

func TestMappedImageWritesPersist(t *testing.T) {
	path := newTestImage(t, 8)

	img, err := OpenImage(path, OpenOptions{Lock: true})
	require.NoError(t, err)
	assert.Equal(t, int64(8*types.BlockSize), img.Size())
	assert.Equal(t, path, img.Path())
	assert.False(t, img.ReadOnly())

	copy(img.Bytes()[types.BlockSize:], "persisted")
	require.NoError(t, img.Sync())

	stats := img.GetStats()
	assert.Equal(t, int64(1), stats.Syncs)
	assert.True(t, stats.Locked)
	require.NoError(t, img.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(raw[types.BlockSize:types.BlockSize+9]))
}

func TestReadOnlyImageDiscardsStores(t *testing.T) {
	path := newTestImage(t, 8)

	img, err := OpenImage(path, OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.True(t, img.ReadOnly())

	copy(img.Bytes(), "scratch")
	require.NoError(t, img.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 7), raw[:7])
}

func TestImageLockIsExclusive(t *testing.T) {
	path := newTestImage(t, 8)

	first, err := OpenImage(path, OpenOptions{Lock: true})
	require.NoError(t, err)

	_, err = OpenImage(path, OpenOptions{Lock: true})
	assert.ErrorIs(t, err, ErrImageLocked)

	require.NoError(t, first.Close())

	second, err := OpenImage(path, OpenOptions{Lock: true})
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenImageErrors(t *testing.T) {
	_, err := OpenImage(filepath.Join(t.TempDir(), "missing.img"), OpenOptions{})
	assert.Error(t, err)

	small := filepath.Join(t.TempDir(), "small.img")
	require.NoError(t, os.WriteFile(small, make([]byte, 100), 0o644))
	_, err = OpenImage(small, OpenOptions{})
	assert.Error(t, err)
}
