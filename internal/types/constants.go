package types

// Image geometry (fixed block indices and record sizes)
// The image is a flat array of BlockSize blocks. Blocks 0-2 hold the
// superblock and the two allocation bitmaps, the inode table follows, and
// everything after the inode table is the data region.

const (
	// BlockSize is the size of every block in the image, in bytes.
	BlockSize = 4096

	// SuperblockBlock is the block holding the superblock.
	SuperblockBlock Blk = 0

	// InodeBitmapBlock is the block holding the inode allocation bitmap.
	InodeBitmapBlock Blk = 1

	// DataBitmapBlock is the block holding the data block allocation bitmap.
	DataBitmapBlock Blk = 2

	// InodeTableBlock is the first block of the inode table.
	InodeTableBlock Blk = 3

	// NumDirect is the number of direct block pointers in an inode.
	NumDirect = 5

	// InodeSize is the on-image size of an inode record.
	InodeSize = 128

	// InodesPerBlock is the number of inode records per inode table block.
	InodesPerBlock = BlockSize / InodeSize

	// DentrySize is the on-image size of a directory entry.
	DentrySize = 256

	// DentriesPerBlock is the number of directory entries per directory block.
	DentriesPerBlock = BlockSize / DentrySize

	// BlkSize is the on-image size of a block index.
	BlkSize = 4

	// IndirectCapacity is the number of block indices held by an indirect block.
	IndirectCapacity = BlockSize / BlkSize

	// MaxFileBlocks is the largest number of data blocks a single inode can address.
	MaxFileBlocks = NumDirect + IndirectCapacity

	// MaxFileSize is the largest file size in bytes.
	MaxFileSize = MaxFileBlocks * BlockSize

	// BitsPerBitmap is the capacity of a single bitmap block.
	BitsPerBitmap = BlockSize * 8
)

// Limits
const (
	// NameMax is the width of the name field of a directory entry,
	// including the terminating NUL.
	NameMax = 252

	// PathMax bounds the length of a whole path.
	PathMax = 4096

	// BlkMin is the smallest image, in blocks, that can hold a vsfs layout:
	// superblock, two bitmaps, one inode table block and the root directory block.
	BlkMin = 5

	// BlkMax is the largest image, in blocks, a single data bitmap can track.
	BlkMax = BitsPerBitmap
)

// Sentinels
const (
	// BlkUnassigned marks a block pointer slot that does not reference a block.
	BlkUnassigned Blk = 0xFFFFFFFF

	// InoMax marks a free directory entry; it is never a valid inode number.
	InoMax Ino = 0xFFFFFFFF

	// RootIno is the inode number of the root directory.
	RootIno Ino = 0

	// Magic identifies a formatted vsfs image.
	Magic uint64 = 0xC5C369A4C5C369A4
)

// File mode bits
const (
	ModeTypeMask uint32 = 0o170000
	ModeDir      uint32 = 0o040000
	ModeRegular  uint32 = 0o100000
	ModePermMask uint32 = 0o7777
)

// Special nanosecond values accepted by utimens, as defined by utimensat(2).
const (
	UtimeNow  int64 = (1 << 30) - 1
	UtimeOmit int64 = (1 << 30) - 2
)
