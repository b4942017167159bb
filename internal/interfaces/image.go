// File: internal/interfaces/image.go
package interfaces

// Image provides direct access to the bytes of a vsfs image
type Image interface {
	// Bytes returns the whole image. Writes to the slice modify the image.
	Bytes() []byte

	// Size returns the size of the image in bytes
	Size() int64

	// Path returns the location the image was opened from
	Path() string

	// Sync flushes modified bytes to backing storage
	Sync() error

	// Close flushes and releases the image
	Close() error
}
