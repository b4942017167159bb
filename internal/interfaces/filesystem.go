// File: internal/interfaces/filesystem.go
package interfaces

import "github.com/deploymenttheory/go-vsfs/internal/types"

// FileSystemReader provides the read-only operations of a mounted volume
type FileSystemReader interface {
	// Statfs reports volume-wide statistics
	Statfs() types.Statfs

	// Getattr reports the attributes of the root directory or a file in it
	Getattr(path string) (types.Stat, error)

	// Readdir passes every name in the directory at path to fill until fill returns false
	Readdir(path string, fill func(name string) bool) error

	// Read copies file data starting at off into buf
	Read(path string, buf []byte, off int64) (int, error)
}

// FileSystemWriter provides the mutating operations of a mounted volume
type FileSystemWriter interface {
	// Create makes a new empty regular file
	Create(path string, mode uint32) error

	// Unlink removes a file and releases its storage
	Unlink(path string) error

	// Utimens sets the modification time of a file
	Utimens(path string, times [2]types.Timespec) error

	// Truncate changes the size of a file
	Truncate(path string, size int64) error

	// Write copies buf into the file starting at off, growing it as needed
	Write(path string, buf []byte, off int64) (int, error)
}

// FileSystem combines the read and write operations of a mounted volume
type FileSystem interface {
	FileSystemReader
	FileSystemWriter
}
