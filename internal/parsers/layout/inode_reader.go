package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// ParseInode parses a single inode record.
func ParseInode(data []byte, endian binary.ByteOrder) (*types.InodeT, error) {
	if len(data) < types.InodeSize {
		return nil, fmt.Errorf("insufficient data for inode: %d bytes", len(data))
	}

	inode := &types.InodeT{}
	inode.Mode = endian.Uint32(data[0:4])
	inode.Nlink = endian.Uint32(data[4:8])
	inode.Blocks = endian.Uint32(data[8:12])
	inode.Size = endian.Uint64(data[16:24])
	inode.Mtime.Sec = int64(endian.Uint64(data[24:32]))
	inode.Mtime.Nsec = int64(endian.Uint64(data[32:40]))

	offset := types.InodeDirectOffset
	for i := range inode.Direct {
		inode.Direct[i] = types.Blk(endian.Uint32(data[offset : offset+4]))
		offset += 4
	}
	inode.Indirect = types.Blk(endian.Uint32(data[offset : offset+4]))

	return inode, nil
}

// WriteInode encodes inode into a single inode record. Reserved bytes and
// padding are zeroed.
func WriteInode(data []byte, inode *types.InodeT, endian binary.ByteOrder) error {
	if len(data) < types.InodeSize {
		return fmt.Errorf("insufficient space for inode: %d bytes", len(data))
	}

	rec := data[:types.InodeSize]
	for i := range rec {
		rec[i] = 0
	}

	endian.PutUint32(rec[0:4], inode.Mode)
	endian.PutUint32(rec[4:8], inode.Nlink)
	endian.PutUint32(rec[8:12], inode.Blocks)
	endian.PutUint64(rec[16:24], inode.Size)
	endian.PutUint64(rec[24:32], uint64(inode.Mtime.Sec))
	endian.PutUint64(rec[32:40], uint64(inode.Mtime.Nsec))

	offset := types.InodeDirectOffset
	for _, blk := range inode.Direct {
		endian.PutUint32(rec[offset:offset+4], uint32(blk))
		offset += 4
	}
	endian.PutUint32(rec[offset:offset+4], uint32(inode.Indirect))

	return nil
}
