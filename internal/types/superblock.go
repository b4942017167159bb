package types

// Superblock (block 0)
// The superblock describes the geometry of the image and tracks the number
// of free inodes and data blocks.

// SuperblockT is the in-memory form of the vsfs superblock.
type SuperblockT struct {
	// Identifies a formatted image; always Magic.
	Magic uint64

	// Total size of the image in bytes.
	Size uint64

	// Number of inodes, a multiple of InodesPerBlock.
	NumInodes uint32

	// Number of free inodes.
	FreeInodes uint32

	// Number of blocks in the image, metadata included.
	NumBlocks uint32

	// Number of free blocks.
	FreeBlocks uint32

	// Index of the first block after the inode table.
	DataRegion Blk

	// Volume identifier assigned by mkfs.
	UUID UUID
}

// Byte offsets of superblock fields.
const (
	SuperblockMagicOffset      = 0
	SuperblockSizeOffset       = 8
	SuperblockNumInodesOffset  = 16
	SuperblockFreeInodesOffset = 20
	SuperblockNumBlocksOffset  = 24
	SuperblockFreeBlocksOffset = 28
	SuperblockDataRegionOffset = 32
	SuperblockUUIDOffset       = 36

	// SuperblockLen is the number of meaningful bytes at the start of block 0.
	SuperblockLen = 52
)
