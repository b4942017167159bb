package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// ParseDentry parses a single directory entry.
func ParseDentry(data []byte, endian binary.ByteOrder) (*types.DentryT, error) {
	if len(data) < types.DentrySize {
		return nil, fmt.Errorf("insufficient data for directory entry: %d bytes", len(data))
	}

	d := &types.DentryT{
		Ino: types.Ino(endian.Uint32(data[0:4])),
	}

	name := data[types.DentryNameOffset:types.DentrySize]
	if end := bytes.IndexByte(name, 0); end >= 0 {
		name = name[:end]
	}
	d.Name = string(name)

	return d, nil
}

// WriteDentry encodes d into a single directory entry slot.
func WriteDentry(data []byte, d *types.DentryT, endian binary.ByteOrder) error {
	if len(data) < types.DentrySize {
		return fmt.Errorf("insufficient space for directory entry: %d bytes", len(data))
	}
	if len(d.Name) >= types.NameMax {
		return fmt.Errorf("directory entry name is %d bytes, limit is %d", len(d.Name), types.NameMax-1)
	}

	endian.PutUint32(data[0:4], uint32(d.Ino))
	name := data[types.DentryNameOffset:types.DentrySize]
	n := copy(name, d.Name)
	for i := n; i < len(name); i++ {
		name[i] = 0
	}

	return nil
}

// DentryIno returns the inode field of the directory entry in data without
// decoding the name.
func DentryIno(data []byte, endian binary.ByteOrder) types.Ino {
	return types.Ino(endian.Uint32(data[0:4]))
}

// SetDentryIno overwrites the inode field of the directory entry in data.
func SetDentryIno(data []byte, ino types.Ino, endian binary.ByteOrder) {
	endian.PutUint32(data[0:4], uint32(ino))
}

// DentryNameEquals compares the stored name with name byte for byte,
// including the terminating NUL.
func DentryNameEquals(data []byte, name string) bool {
	stored := data[types.DentryNameOffset:types.DentrySize]
	if len(name) >= len(stored) {
		return false
	}
	return string(stored[:len(name)]) == name && stored[len(name)] == 0
}
