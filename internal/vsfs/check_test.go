package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

func populatedFS(t *testing.T) *FileSystem {
	t.Helper()
	fs := newTestFS(t, testImageSize, 32)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))
	require.NoError(t, fs.Create("/b", types.ModeRegular|0o644))
	_, err := fs.Write("/a", pattern(7*types.BlockSize, 2), 0)
	require.NoError(t, err)
	return fs
}

func problemRules(r *CheckReport) []string {
	var rules []string
	for _, p := range r.Problems {
		rules = append(rules, p.Rule)
	}
	return rules
}

func TestCheckCleanImage(t *testing.T) {
	fs := populatedFS(t)

	report := fs.Check()
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, 3, report.InodesInUse)
	assert.Equal(t, 4, report.Entries)
	// Metadata, root directory, seven data blocks and one indirect block.
	assert.Equal(t, 4+1+7+1, report.BlocksInUse)
}

func TestCheckDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(fs *FileSystem)
		rule    string
	}{
		{
			name: "free block counter",
			corrupt: func(fs *FileSystem) {
				sb := fs.superblock()
				sb.FreeBlocks++
				fs.storeSuperblock(sb)
			},
			rule: "counters",
		},
		{
			name: "free inode counter",
			corrupt: func(fs *FileSystem) {
				sb := fs.superblock()
				sb.FreeInodes--
				fs.storeSuperblock(sb)
			},
			rule: "counters",
		},
		{
			name: "pointer to free block",
			corrupt: func(fs *FileSystem) {
				_, ino, _ := fs.lookup(rootInode(fs), "b")
				inode := fs.loadInode(ino)
				inode.Direct[0] = 200
				inode.Blocks = 1
				fs.storeInode(ino, inode)
			},
			rule: "pointers",
		},
		{
			name: "block shared by two inodes",
			corrupt: func(fs *FileSystem) {
				root := rootInode(fs)
				_, a, _ := fs.lookup(root, "a")
				_, b, _ := fs.lookup(root, "b")
				shared := fs.loadInode(a).Direct[0]
				inode := fs.loadInode(b)
				inode.Direct[0] = shared
				inode.Blocks = 1
				inode.Size = 1
				fs.storeInode(b, inode)
			},
			rule: "ownership",
		},
		{
			name: "leaked block",
			corrupt: func(fs *FileSystem) {
				fs.dataBitmap().Set(fs.numBlocks, 250, true)
				sb := fs.superblock()
				sb.FreeBlocks--
				fs.storeSuperblock(sb)
			},
			rule: "ownership",
		},
		{
			name: "block count",
			corrupt: func(fs *FileSystem) {
				_, ino, _ := fs.lookup(rootInode(fs), "a")
				inode := fs.loadInode(ino)
				inode.Blocks--
				fs.storeInode(ino, inode)
			},
			rule: "block-count",
		},
		{
			name: "directory size",
			corrupt: func(fs *FileSystem) {
				root := rootInode(fs)
				root.Size--
				fs.storeInode(types.RootIno, root)
			},
			rule: "size",
		},
		{
			name: "duplicate name",
			corrupt: func(fs *FileSystem) {
				loc, _, _ := fs.lookup(rootInode(fs), "b")
				_ = fs.writeDentry(loc, &types.DentryT{Ino: 2, Name: "a"})
			},
			rule: "entries",
		},
		{
			name: "entry for free inode",
			corrupt: func(fs *FileSystem) {
				loc, _, _ := fs.lookup(rootInode(fs), "b")
				_ = fs.writeDentry(loc, &types.DentryT{Ino: 30, Name: "b"})
			},
			rule: "entries",
		},
		{
			name: "free inode with links",
			corrupt: func(fs *FileSystem) {
				fs.storeInode(20, &types.InodeT{Mode: types.ModeRegular, Nlink: 1})
			},
			rule: "inodes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := populatedFS(t)
			tt.corrupt(fs)

			report := fs.Check()
			assert.False(t, report.OK())
			assert.Error(t, report.Err())
			assert.Contains(t, problemRules(report), tt.rule)
		})
	}
}
