package vsfs

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

const (
	mib           = 1 << 20
	testImageSize = 1 * mib
)

var testTime = time.Unix(1700000000, 42)

func fixedClock() time.Time {
	return testTime
}

// newTestFS formats a zeroed in-memory image and mounts it.
func newTestFS(t *testing.T, size int, inodes uint32) *FileSystem {
	t.Helper()
	image := make([]byte, size)
	_, err := Format(image, FormatOptions{Inodes: inodes, Zero: true, Clock: fixedClock})
	require.NoError(t, err)

	fs, err := Mount(image, WithClock(fixedClock))
	require.NoError(t, err)
	return fs
}

func requireConsistent(t *testing.T, fs *FileSystem) {
	t.Helper()
	report := fs.Check()
	require.True(t, report.OK(), "image is inconsistent: %v", report.Err())
}

func listRoot(t *testing.T, fs *FileSystem) []string {
	t.Helper()
	var names []string
	require.NoError(t, fs.Readdir("/", func(name string) bool {
		names = append(names, name)
		return true
	}))
	return names
}

func readAll(t *testing.T, fs *FileSystem, path string, size int, off int64) []byte {
	t.Helper()
	buf := make([]byte, size)
	n, err := fs.Read(path, buf, off)
	require.NoError(t, err)
	return buf[:n]
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7) + seed
	}
	return b
}

func fileName(i int) string {
	return fmt.Sprintf("/file-%05d", i)
}

func freeBlocks(fs *FileSystem) uint64 {
	return fs.Statfs().Bfree
}

func rootInode(fs *FileSystem) *types.InodeT {
	return fs.loadInode(types.RootIno)
}
