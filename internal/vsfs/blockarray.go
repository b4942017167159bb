package vsfs

import (
	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// blockArray is a sequence of block pointer slots: either the direct
// pointers of an inode or the slots of an indirect block.
type blockArray interface {
	Len() int
	At(i int) types.Blk
	SetAt(i int, blk types.Blk)
}

// directArray views the direct pointers of an in-memory inode.
type directArray struct {
	inode *types.InodeT
}

func (a directArray) Len() int {
	return types.NumDirect
}

func (a directArray) At(i int) types.Blk {
	return a.inode.Direct[i]
}

func (a directArray) SetAt(i int, b types.Blk) {
	a.inode.Direct[i] = b
}

// indirectArray views an indirect block in the image.
type indirectArray struct {
	data []byte
}

func (a indirectArray) Len() int {
	return types.IndirectCapacity
}

func (a indirectArray) At(i int) types.Blk {
	return layout.ReadBlk(a.data, i, types.Endian)
}

func (a indirectArray) SetAt(i int, b types.Blk) {
	layout.WriteBlk(a.data, i, b, types.Endian)
}

func (fs *FileSystem) indirectArray(blk types.Blk) indirectArray {
	return indirectArray{data: fs.block(blk)}
}

// firstUnassigned returns the lowest unassigned slot, or -1.
func firstUnassigned(a blockArray) int {
	for i := 0; i < a.Len(); i++ {
		if a.At(i) == types.BlkUnassigned {
			return i
		}
	}
	return -1
}

// countAssigned returns the number of slots holding a block.
func countAssigned(a blockArray) int {
	n := 0
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != types.BlkUnassigned {
			n++
		}
	}
	return n
}
