package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

func TestPlanGeometry(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		inodes  uint32
		want    Geometry
		wantErr bool
	}{
		{
			name:   "1 MiB with 32 inodes",
			size:   mib,
			inodes: 32,
			want:   Geometry{NumBlocks: 256, NumInodes: 32, TableBlocks: 1, DataRegion: 4},
		},
		{
			name:   "inode count rounds up to a whole table block",
			size:   mib,
			inodes: 33,
			want:   Geometry{NumBlocks: 256, NumInodes: 64, TableBlocks: 2, DataRegion: 5},
		},
		{
			name:   "smallest image",
			size:   types.BlkMin * types.BlockSize,
			inodes: 1,
			want:   Geometry{NumBlocks: types.BlkMin, NumInodes: types.InodesPerBlock, TableBlocks: 1, DataRegion: 4},
		},
		{
			name:   "largest image",
			size:   types.BlkMax * types.BlockSize,
			inodes: types.BitsPerBitmap,
			want:   Geometry{NumBlocks: types.BlkMax, NumInodes: types.BitsPerBitmap, TableBlocks: 1024, DataRegion: 1027},
		},
		{name: "size not block aligned", size: mib + 1, inodes: 32, wantErr: true},
		{name: "too few blocks", size: (types.BlkMin - 1) * types.BlockSize, inodes: 32, wantErr: true},
		{name: "too many blocks", size: (types.BlkMax + 1) * types.BlockSize, inodes: 32, wantErr: true},
		{name: "zero inodes", size: mib, inodes: 0, wantErr: true},
		{name: "inode sentinel", size: mib, inodes: uint32(types.InoMax), wantErr: true},
		{name: "inodes beyond bitmap", size: 32 * mib, inodes: types.BitsPerBitmap + 1, wantErr: true},
		{name: "inode table does not fit", size: 8 * types.BlockSize, inodes: 5 * types.InodesPerBlock, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanGeometry(tt.size, tt.inodes)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatLayout(t *testing.T) {
	image := make([]byte, testImageSize)
	sb, err := Format(image, FormatOptions{Inodes: 32, Clock: fixedClock})
	require.NoError(t, err)

	assert.Equal(t, types.Magic, sb.Magic)
	assert.Equal(t, uint64(testImageSize), sb.Size)
	assert.Equal(t, uint32(32), sb.NumInodes)
	assert.Equal(t, uint32(31), sb.FreeInodes)
	assert.Equal(t, uint32(256), sb.NumBlocks)
	assert.Equal(t, uint32(postMkfsFreeBlks), sb.FreeBlocks)
	assert.Equal(t, types.Blk(4), sb.DataRegion)
	assert.NotEqual(t, types.UUID{}, sb.UUID)

	onImage, err := layout.ParseSuperblock(image, types.Endian)
	require.NoError(t, err)
	assert.Equal(t, *sb, *onImage)

	// Blocks 0-3 are metadata and block 4 is the root directory.
	dbmap := image[2*types.BlockSize : 3*types.BlockSize]
	assert.Equal(t, byte(0x1f), dbmap[0])
	assert.Equal(t, byte(0xff), dbmap[256/8], "bits past the last block stay set")

	ibmap := image[types.BlockSize : 2*types.BlockSize]
	assert.Equal(t, byte(0x01), ibmap[0])
	assert.Equal(t, byte(0xff), ibmap[32/8])

	root, err := layout.ParseInode(image[3*types.BlockSize:], types.Endian)
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.Equal(t, uint32(0o777), root.Mode&types.ModePermMask)
	assert.Equal(t, uint32(2), root.Nlink)
	assert.Equal(t, types.Blk(4), root.Direct[0])
	for _, blk := range root.Direct[1:] {
		assert.Equal(t, types.BlkUnassigned, blk)
	}
	assert.Equal(t, types.BlkUnassigned, root.Indirect)

	dot, err := layout.ParseDentry(image[4*types.BlockSize:], types.Endian)
	require.NoError(t, err)
	assert.Equal(t, types.DentryT{Ino: types.RootIno, Name: "."}, *dot)
	dotdot, err := layout.ParseDentry(image[4*types.BlockSize+types.DentrySize:], types.Endian)
	require.NoError(t, err)
	assert.Equal(t, types.DentryT{Ino: types.RootIno, Name: ".."}, *dotdot)
	free, err := layout.ParseDentry(image[4*types.BlockSize+2*types.DentrySize:], types.Endian)
	require.NoError(t, err)
	assert.True(t, free.IsFree())
}

func TestFormatRefusesFormattedImageWithoutForce(t *testing.T) {
	image := make([]byte, testImageSize)
	first, err := Format(image, FormatOptions{Inodes: 32})
	require.NoError(t, err)

	_, err = Format(image, FormatOptions{Inodes: 64})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	second, err := Format(image, FormatOptions{Inodes: 64, Force: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(64), second.NumInodes)
	assert.NotEqual(t, first.UUID, second.UUID)
}

func TestReformatDiscardsFiles(t *testing.T) {
	fs := newTestFS(t, testImageSize, 32)
	require.NoError(t, fs.Create("/a", types.ModeRegular|0o644))
	_, err := fs.Write("/a", pattern(3*types.BlockSize, 1), 0)
	require.NoError(t, err)

	_, err = Format(fs.image, FormatOptions{Inodes: 32, Force: true, Clock: fixedClock})
	require.NoError(t, err)

	remounted, err := Mount(fs.image)
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, listRoot(t, remounted))
	assert.Equal(t, uint64(postMkfsFreeBlks), freeBlocks(remounted))
	requireConsistent(t, remounted)
}

func TestFormatZero(t *testing.T) {
	image := make([]byte, testImageSize)
	for i := range image {
		image[i] = 0xee
	}

	_, err := Format(image, FormatOptions{Inodes: 32, Zero: true})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, types.BlockSize), image[len(image)-types.BlockSize:])

	fs, err := Mount(image)
	require.NoError(t, err)
	requireConsistent(t, fs)
}

func TestMountRejectsInvalidImages(t *testing.T) {
	formatted := func() []byte {
		image := make([]byte, testImageSize)
		_, err := Format(image, FormatOptions{Inodes: 32})
		require.NoError(t, err)
		return image
	}

	tests := []struct {
		name  string
		image func() []byte
	}{
		{name: "blank image", image: func() []byte { return make([]byte, testImageSize) }},
		{name: "too small", image: func() []byte { return make([]byte, types.BlockSize) }},
		{name: "not block aligned", image: func() []byte { return append(formatted(), 0) }},
		{name: "truncated image", image: func() []byte { return formatted()[:testImageSize/2] }},
		{name: "bad data region", image: func() []byte {
			image := formatted()
			types.Endian.PutUint32(image[types.SuperblockDataRegionOffset:], 200)
			return image
		}},
		{name: "root is not a directory", image: func() []byte {
			image := formatted()
			types.Endian.PutUint32(image[3*types.BlockSize+types.InodeModeOffset:], types.ModeRegular)
			return image
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Mount(tt.image())
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}
