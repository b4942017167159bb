package layout

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// ReadBlk returns the block index stored in the given slot of an indirect block.
func ReadBlk(data []byte, slot int, endian binary.ByteOrder) types.Blk {
	offset := slot * types.BlkSize
	return types.Blk(endian.Uint32(data[offset : offset+types.BlkSize]))
}

// WriteBlk stores a block index into the given slot of an indirect block.
func WriteBlk(data []byte, slot int, blk types.Blk, endian binary.ByteOrder) {
	offset := slot * types.BlkSize
	endian.PutUint32(data[offset:offset+types.BlkSize], uint32(blk))
}

// InitIndirect marks every slot of an indirect block unassigned. Slots are
// written one at a time rather than byte-filled so the sentinel never
// depends on the width of a block index.
func InitIndirect(data []byte, endian binary.ByteOrder) {
	for slot := 0; slot < types.IndirectCapacity; slot++ {
		WriteBlk(data, slot, types.BlkUnassigned, endian)
	}
}

// InitDirectoryBlock marks every entry of a directory block free.
func InitDirectoryBlock(data []byte, endian binary.ByteOrder) {
	for i := 0; i < types.DentriesPerBlock; i++ {
		entry := data[i*types.DentrySize : (i+1)*types.DentrySize]
		for j := range entry {
			entry[j] = 0
		}
		SetDentryIno(entry, types.InoMax, endian)
	}
}
