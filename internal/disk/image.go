package disk

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/go-vsfs/internal/interfaces"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

var _ interfaces.Image = (*MappedImage)(nil)

// ErrImageLocked is returned when another process holds the image lock.
var ErrImageLocked = errors.New("image is in use by another process")

// MappedImage is a vsfs image file mapped into memory. Stores through
// Bytes reach the file when the mapping is synced or closed.
type MappedImage struct {
	path     string
	file     *os.File
	data     []byte
	lock     *flock.Flock
	readOnly bool
	stats    *ImageStatistics
	mu       sync.Mutex
}

// ImageStatistics tracks how the image was opened and flushed
type ImageStatistics struct {
	OpenedAt  time.Time     `json:"opened_at" yaml:"opened_at"`
	MapTime   time.Duration `json:"map_time" yaml:"map_time"`
	Syncs     int64         `json:"syncs" yaml:"syncs"`
	LastSync  time.Time     `json:"last_sync" yaml:"last_sync"`
	Locked    bool          `json:"locked" yaml:"locked"`
	ReadOnly  bool          `json:"read_only" yaml:"read_only"`
	SizeBytes int64         `json:"size_bytes" yaml:"size_bytes"`
}

// OpenOptions controls how an image is opened
type OpenOptions struct {
	// ReadOnly maps the image privately. Stores are never written back.
	ReadOnly bool

	// Lock takes an advisory lock on the image file for the lifetime of the mapping.
	Lock bool
}

// OpenImage maps the image at path.
func OpenImage(path string, opts OpenOptions) (*MappedImage, error) {
	start := time.Now()

	img := &MappedImage{
		path:     path,
		readOnly: opts.ReadOnly,
		stats: &ImageStatistics{
			OpenedAt: start,
			ReadOnly: opts.ReadOnly,
		},
	}

	var undo []func()
	fail := func(err error) (*MappedImage, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, err
	}

	if opts.Lock {
		img.lock = flock.New(path)
		var locked bool
		var err error
		if opts.ReadOnly {
			locked, err = img.lock.TryRLock()
		} else {
			locked, err = img.lock.TryLock()
		}
		if err != nil {
			return fail(fmt.Errorf("failed to lock image: %w", err))
		}
		if !locked {
			return fail(fmt.Errorf("%s: %w", path, ErrImageLocked))
		}
		undo = append(undo, func() { img.lock.Unlock() })
		img.stats.Locked = true
	}

	flag := os.O_RDWR
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return fail(fmt.Errorf("failed to open image: %w", err))
	}
	undo = append(undo, func() { file.Close() })
	img.file = file

	info, err := file.Stat()
	if err != nil {
		return fail(fmt.Errorf("failed to stat image: %w", err))
	}
	size := info.Size()
	if size < types.BlockSize {
		return fail(fmt.Errorf("image is too small: %d bytes", size))
	}
	if int64(int(size)) != size {
		return fail(fmt.Errorf("image is too large to map: %d bytes", size))
	}

	prot := unix.PROT_READ | unix.PROT_WRITE
	mapFlags := unix.MAP_SHARED
	if opts.ReadOnly {
		mapFlags = unix.MAP_PRIVATE
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(size), prot, mapFlags)
	if err != nil {
		return fail(fmt.Errorf("failed to map image: %w", err))
	}

	img.data = data
	img.stats.SizeBytes = size
	img.stats.MapTime = time.Since(start)

	return img, nil
}

// Bytes returns the mapped image.
func (m *MappedImage) Bytes() []byte {
	return m.data
}

// Size returns the size of the image in bytes.
func (m *MappedImage) Size() int64 {
	return int64(len(m.data))
}

// Path returns the path of the image file.
func (m *MappedImage) Path() string {
	return m.path
}

// ReadOnly reports whether stores are discarded on close.
func (m *MappedImage) ReadOnly() bool {
	return m.readOnly
}

// Sync writes modified pages back to the image file.
func (m *MappedImage) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncLocked()
}

func (m *MappedImage) syncLocked() error {
	if m.data == nil || m.readOnly {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("failed to sync image: %w", err)
	}
	m.stats.Syncs++
	m.stats.LastSync = time.Now()
	return nil
}

// Close syncs and unmaps the image, then releases the file and its lock.
func (m *MappedImage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.data != nil {
		if err := m.syncLocked(); err != nil {
			errs = append(errs, err)
		}
		if err := unix.Munmap(m.data); err != nil {
			errs = append(errs, fmt.Errorf("failed to unmap image: %w", err))
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close image: %w", err))
		}
		m.file = nil
	}
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unlock image: %w", err))
		}
		m.lock = nil
	}
	return errors.Join(errs...)
}

// GetStats returns a snapshot of the image statistics.
func (m *MappedImage) GetStats() ImageStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.stats
}

// CreateImage creates a zero-filled image file of the given size. An
// existing file is only replaced when overwrite is set.
func CreateImage(path string, size int64, overwrite bool) error {
	if size <= 0 || size%types.BlockSize != 0 {
		return fmt.Errorf("image size %d is not a positive multiple of %d", size, types.BlockSize)
	}

	flag := os.O_RDWR | os.O_CREATE | os.O_EXCL
	if overwrite {
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return fmt.Errorf("failed to size image: %w", err)
	}
	return file.Close()
}
