// Package types defines the on-image data structures of the vsfs file system.
// All structures live in a single memory-mapped image made of fixed-size blocks.
package types

import (
	"encoding/binary"
	"time"
)

// Blk is the index of a block within the image.
type Blk uint32

// Ino is the index of an inode within the inode table.
type Ino uint32

// Endian is the byte order of every multi-byte field in the image.
// vsfs images are not portable: fields are stored in host byte order.
var Endian binary.ByteOrder = binary.NativeEndian

// UUID identifies a formatted volume.
type UUID [16]byte

// Timespec is a timestamp with nanosecond precision as stored in an inode.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// TimespecOf converts a time.Time into a Timespec.
func TimespecOf(t time.Time) Timespec {
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Time converts the timestamp into a time.Time.
func (ts Timespec) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}

// DivRoundUp returns ceil(n / d).
func DivRoundUp(n, d uint64) uint64 {
	return (n + d - 1) / d
}
