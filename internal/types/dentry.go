package types

// Directory entries
// Directory blocks are arrays of DentriesPerBlock fixed-size entries. A
// free slot has its inode set to InoMax.

// DentryT is the in-memory form of a directory entry.
type DentryT struct {
	// Inode referenced by the entry, or InoMax for a free slot.
	Ino Ino

	// Entry name without the terminating NUL.
	Name string
}

// Byte offsets of directory entry fields.
const (
	DentryInoOffset  = 0
	DentryNameOffset = 4
)

// IsFree reports whether the entry is an unused slot.
func (d *DentryT) IsFree() bool {
	return d.Ino == InoMax
}
