package vsfs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-vsfs/internal/bitmap"
	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// FormatOptions controls Format.
type FormatOptions struct {
	// Inodes is the requested inode count. It is rounded up to fill whole
	// inode table blocks.
	Inodes uint32

	// Force allows formatting an image that already carries a vsfs layout.
	Force bool

	// Zero fills the whole image with zeros first.
	Zero bool

	// Clock stamps the root directory. Defaults to time.Now.
	Clock func() time.Time
}

// Geometry describes the layout Format chose for an image.
type Geometry struct {
	NumBlocks   uint32
	NumInodes   uint32
	TableBlocks uint32
	DataRegion  types.Blk
}

// PlanGeometry checks that an image of size bytes can hold inodes inodes and
// returns the resulting layout.
func PlanGeometry(size int64, inodes uint32) (Geometry, error) {
	if size <= 0 || size%types.BlockSize != 0 {
		return Geometry{}, fmt.Errorf("%w: image size %d is not a multiple of %d", ErrInvalidFormat, size, types.BlockSize)
	}
	nblks := size / types.BlockSize
	if nblks < types.BlkMin || nblks > types.BlkMax {
		return Geometry{}, fmt.Errorf("%w: %d blocks is outside [%d, %d]", ErrInvalidFormat, nblks, types.BlkMin, types.BlkMax)
	}
	if inodes == 0 || types.Ino(inodes) >= types.InoMax {
		return Geometry{}, fmt.Errorf("%w: invalid inode count %d", ErrInvalidFormat, inodes)
	}

	rounded := types.DivRoundUp(uint64(inodes), types.InodesPerBlock) * types.InodesPerBlock
	if rounded > types.BitsPerBitmap {
		return Geometry{}, fmt.Errorf("%w: %d inodes exceed the inode bitmap", ErrInvalidFormat, rounded)
	}
	table := uint32(rounded / types.InodesPerBlock)

	// Metadata, the inode table and the first root directory block.
	if uint64(types.InodeTableBlock)+uint64(table)+1 > uint64(nblks) {
		return Geometry{}, fmt.Errorf("%w: %d inode table blocks do not fit in %d blocks", ErrInvalidFormat, table, nblks)
	}

	return Geometry{
		NumBlocks:   uint32(nblks),
		NumInodes:   uint32(rounded),
		TableBlocks: table,
		DataRegion:  types.InodeTableBlock + types.Blk(table),
	}, nil
}

// Format writes a fresh vsfs layout into image: empty bitmaps, a zeroed
// inode table and a root directory holding "." and "..". The magic number
// is written last, so an interrupted format leaves an image Mount rejects.
func Format(image []byte, opts FormatOptions) (*types.SuperblockT, error) {
	geo, err := PlanGeometry(int64(len(image)), opts.Inodes)
	if err != nil {
		return nil, err
	}
	if !opts.Force && layout.HasMagic(image, types.Endian) {
		return nil, fmt.Errorf("%w: image is already formatted", ErrInvalidFormat)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate volume uuid: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	if opts.Zero {
		clear(image)
	} else {
		clear(image[:int(geo.DataRegion)*types.BlockSize])
	}

	blk := func(b types.Blk) []byte {
		off := int(b) * types.BlockSize
		return image[off : off+types.BlockSize]
	}

	ibmap := bitmap.Bitmap(blk(types.InodeBitmapBlock))
	dbmap := bitmap.Bitmap(blk(types.DataBitmapBlock))
	fillOnes(ibmap)
	fillOnes(dbmap)
	ibmap.Init(geo.NumInodes)
	dbmap.Init(geo.NumBlocks)

	dbmap.Set(geo.NumBlocks, uint32(types.SuperblockBlock), true)
	dbmap.Set(geo.NumBlocks, uint32(types.InodeBitmapBlock), true)
	dbmap.Set(geo.NumBlocks, uint32(types.DataBitmapBlock), true)
	for i := uint32(0); i < geo.TableBlocks; i++ {
		if _, err := dbmap.Alloc(geo.NumBlocks); err != nil {
			return nil, fmt.Errorf("%w: inode table allocation failed", ErrInvalidFormat)
		}
	}

	rootIno, err := ibmap.Alloc(geo.NumInodes)
	if err != nil || types.Ino(rootIno) != types.RootIno {
		return nil, fmt.Errorf("%w: root inode allocation failed", ErrInvalidFormat)
	}
	rootIdx, err := dbmap.Alloc(geo.NumBlocks)
	if err != nil {
		return nil, fmt.Errorf("%w: root directory allocation failed", ErrInvalidFormat)
	}
	rootBlk := types.Blk(rootIdx)

	dirBlock := blk(rootBlk)
	clear(dirBlock)
	layout.InitDirectoryBlock(dirBlock, types.Endian)
	for i, name := range []string{".", ".."} {
		d := &types.DentryT{Ino: types.RootIno, Name: name}
		if err := layout.WriteDentry(dirBlock[i*types.DentrySize:], d, types.Endian); err != nil {
			return nil, err
		}
	}

	root := &types.InodeT{
		Mode:   types.ModeDir | 0o777,
		Nlink:  2,
		Blocks: 1,
		Size:   types.BlockSize,
		Mtime:  types.TimespecOf(clock()),
	}
	root.ClearPointers()
	root.Direct[0] = rootBlk
	if err := layout.WriteInode(blk(types.InodeTableBlock), root, types.Endian); err != nil {
		return nil, err
	}

	sb := &types.SuperblockT{
		Magic:      types.Magic,
		Size:       uint64(len(image)),
		NumInodes:  geo.NumInodes,
		FreeInodes: ibmap.CountClear(geo.NumInodes),
		NumBlocks:  geo.NumBlocks,
		FreeBlocks: dbmap.CountClear(geo.NumBlocks),
		DataRegion: geo.DataRegion,
		UUID:       types.UUID(id),
	}
	if err := layout.WriteSuperblock(blk(types.SuperblockBlock), sb, types.Endian); err != nil {
		return nil, err
	}

	return sb, nil
}

func fillOnes(b []byte) {
	for i := range b {
		b[i] = 0xff
	}
}
