package types

// Inode records
// Every file and the root directory is described by one inode. Data is
// addressed through NumDirect direct pointers followed by a single indirect
// block of IndirectCapacity pointers.

// InodeT is the in-memory form of an inode record.
type InodeT struct {
	// File type and permission bits.
	Mode uint32

	// Number of links. Zero for a free inode.
	Nlink uint32

	// Number of assigned data blocks, not counting the indirect block.
	Blocks uint32

	// Logical size in bytes.
	Size uint64

	// Last modification time.
	Mtime Timespec

	// Direct data block pointers.
	Direct [NumDirect]Blk

	// Block holding further block pointers, or BlkUnassigned.
	Indirect Blk
}

// Byte offsets of inode fields.
const (
	InodeModeOffset      = 0
	InodeNlinkOffset     = 4
	InodeBlocksOffset    = 8
	InodeSizeOffset      = 16
	InodeMtimeSecOffset  = 24
	InodeMtimeNsecOffset = 32
	InodeDirectOffset    = 40
	InodeIndirectOffset  = InodeDirectOffset + NumDirect*BlkSize
)

// IsDir reports whether the inode describes a directory.
func (i *InodeT) IsDir() bool {
	return i.Mode&ModeTypeMask == ModeDir
}

// IsRegular reports whether the inode describes a regular file.
func (i *InodeT) IsRegular() bool {
	return i.Mode&ModeTypeMask == ModeRegular
}

// ValidDirect returns the number of assigned direct pointers.
func (i *InodeT) ValidDirect() uint32 {
	var n uint32
	for _, b := range i.Direct {
		if b != BlkUnassigned {
			n++
		}
	}
	return n
}

// ClearPointers marks every block pointer of the inode unassigned.
func (i *InodeT) ClearPointers() {
	for n := range i.Direct {
		i.Direct[n] = BlkUnassigned
	}
	i.Indirect = BlkUnassigned
}
