package vsfs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// 1 MiB image with 32 inodes: one inode table block.
const (
	scenarioInodes   = 32
	postMkfsFreeBlks = 256 - 3 - 1 - 1
)

func TestScenarioFormatAndInspect(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)

	want := types.Statfs{
		Bsize:   types.BlockSize,
		Frsize:  types.BlockSize,
		Blocks:  256,
		Bfree:   postMkfsFreeBlks,
		Bavail:  postMkfsFreeBlks,
		Files:   32,
		Ffree:   31,
		Favail:  31,
		Namemax: types.NameMax,
	}
	if diff := cmp.Diff(want, fs.Statfs()); diff != "" {
		t.Errorf("statfs mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{".", ".."}, listRoot(t, fs))

	root, err := fs.Getattr("/")
	require.NoError(t, err)
	wantRoot := types.Stat{
		Ino:    types.RootIno,
		Mode:   types.ModeDir | 0o777,
		Nlink:  2,
		Size:   types.BlockSize,
		Blocks: types.BlockSize / 512,
		Mtime:  types.TimespecOf(testTime),
	}
	if diff := cmp.Diff(wantRoot, root); diff != "" {
		t.Errorf("root attributes mismatch (-want +got):\n%s", diff)
	}
	requireConsistent(t, fs)
}

func TestScenarioCreateTwoFiles(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)

	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))
	require.NoError(t, fs.Create("/b", types.ModeRegular|0o644))

	assert.Equal(t, []string{".", "..", "a", "b"}, listRoot(t, fs))

	st, err := fs.Getattr("/a")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.Size)
	assert.Equal(t, uint32(1), st.Nlink)
	assert.Equal(t, uint64(0), st.Blocks)
	assert.Equal(t, types.ModeRegular|0o644, st.Mode)

	assert.Equal(t, uint64(29), fs.Statfs().Ffree)
	assert.Equal(t, uint64(postMkfsFreeBlks), freeBlocks(fs))
	requireConsistent(t, fs)
}

func TestScenarioWriteAndRead(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))

	n, err := fs.Write("/a", []byte("HELLO"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	st, err := fs.Getattr("/a")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), st.Size)
	assert.Equal(t, uint64(types.BlockSize/512), st.Blocks)

	assert.Equal(t, []byte("HELLO"), readAll(t, fs, "/a", 5, 0))
	assert.Equal(t, uint64(postMkfsFreeBlks-1), freeBlocks(fs))
	requireConsistent(t, fs)
}

func TestScenarioSparseWrite(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))

	n, err := fs.Write("/a", []byte("X"), 8000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := fs.Getattr("/a")
	require.NoError(t, err)
	assert.Equal(t, uint64(8001), st.Size)

	assert.Equal(t, []byte{0}, readAll(t, fs, "/a", 1, 0))
	assert.Equal(t, []byte("X"), readAll(t, fs, "/a", 1, 8000))
	assert.Equal(t, make([]byte, 8000), readAll(t, fs, "/a", 8000, 0))
	requireConsistent(t, fs)
}

func TestScenarioTruncateShrink(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))
	_, err := fs.Write("/a", []byte("HELLO"), 0)
	require.NoError(t, err)

	require.NoError(t, fs.Truncate("/a", 2))

	st, err := fs.Getattr("/a")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Size)
	assert.Equal(t, []byte("HE"), readAll(t, fs, "/a", 5, 0))
	requireConsistent(t, fs)
}

func TestScenarioUnlink(t *testing.T) {
	fs := newTestFS(t, testImageSize, scenarioInodes)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))
	_, err := fs.Write("/a", []byte("HELLO"), 0)
	require.NoError(t, err)
	before := fs.Statfs()

	require.NoError(t, fs.Unlink("/a"))

	_, err = fs.Getattr("/a")
	assert.ErrorIs(t, err, ErrNotFound)

	after := fs.Statfs()
	assert.Equal(t, before.Ffree+1, after.Ffree)
	assert.Equal(t, uint64(postMkfsFreeBlks), after.Bfree)
	assert.Equal(t, []string{".", ".."}, listRoot(t, fs))
	requireConsistent(t, fs)
}
