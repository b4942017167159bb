package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// ParseSuperblock parses the superblock stored at the start of data.
func ParseSuperblock(data []byte, endian binary.ByteOrder) (*types.SuperblockT, error) {
	if len(data) < types.SuperblockLen {
		return nil, fmt.Errorf("insufficient data for superblock: %d bytes", len(data))
	}

	sb := &types.SuperblockT{}
	sb.Magic = endian.Uint64(data[0:8])
	sb.Size = endian.Uint64(data[8:16])
	sb.NumInodes = endian.Uint32(data[16:20])
	sb.FreeInodes = endian.Uint32(data[20:24])
	sb.NumBlocks = endian.Uint32(data[24:28])
	sb.FreeBlocks = endian.Uint32(data[28:32])
	sb.DataRegion = types.Blk(endian.Uint32(data[32:36]))
	copy(sb.UUID[:], data[36:52])

	return sb, nil
}

// WriteSuperblock encodes sb into the start of data.
func WriteSuperblock(data []byte, sb *types.SuperblockT, endian binary.ByteOrder) error {
	if len(data) < types.SuperblockLen {
		return fmt.Errorf("insufficient space for superblock: %d bytes", len(data))
	}

	endian.PutUint64(data[0:8], sb.Magic)
	endian.PutUint64(data[8:16], sb.Size)
	endian.PutUint32(data[16:20], sb.NumInodes)
	endian.PutUint32(data[20:24], sb.FreeInodes)
	endian.PutUint32(data[24:28], sb.NumBlocks)
	endian.PutUint32(data[28:32], sb.FreeBlocks)
	endian.PutUint32(data[32:36], uint32(sb.DataRegion))
	copy(data[36:52], sb.UUID[:])

	return nil
}

// HasMagic reports whether data starts with a vsfs superblock magic number.
func HasMagic(data []byte, endian binary.ByteOrder) bool {
	if len(data) < 8 {
		return false
	}
	return endian.Uint64(data[0:8]) == types.Magic
}
