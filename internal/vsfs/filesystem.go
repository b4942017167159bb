// Package vsfs implements the vsfs file system over an image held in
// memory: the on-image allocation policy, the root directory engine, the
// file block engine and the operations exposed to a file system host.
//
// All state lives in the image. A FileSystem caches only the geometry read
// at mount time, and structures are decoded from the image on every access.
// Operations are not safe for concurrent use; hosts serialise them.
package vsfs

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/bitmap"
	"github.com/deploymenttheory/go-vsfs/internal/interfaces"
	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

var _ interfaces.FileSystem = (*FileSystem)(nil)

// FileSystem is a mounted vsfs image.
type FileSystem struct {
	image     []byte
	numBlocks uint32
	numInodes uint32
	clock     func() time.Time
	log       logrus.FieldLogger
}

// Option configures a FileSystem at mount time.
type Option func(*FileSystem)

// WithClock sets the time source used for modification times.
func WithClock(clock func() time.Time) Option {
	return func(fs *FileSystem) {
		fs.clock = clock
	}
}

// WithLogger sets the logger that receives allocation and rollback events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(fs *FileSystem) {
		fs.log = log
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Mount validates the formatted image and returns a FileSystem operating on it.
// The image slice is used in place and must outlive the FileSystem.
func Mount(image []byte, opts ...Option) (*FileSystem, error) {
	if len(image)%types.BlockSize != 0 || len(image) < types.BlkMin*types.BlockSize {
		return nil, fmt.Errorf("%w: image size %d", ErrInvalidFormat, len(image))
	}

	sb, err := layout.ParseSuperblock(image, types.Endian)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := validateSuperblock(sb, len(image)); err != nil {
		return nil, err
	}

	fs := &FileSystem{
		image:     image,
		numBlocks: sb.NumBlocks,
		numInodes: sb.NumInodes,
		clock:     time.Now,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(fs)
	}

	if root := fs.loadInode(types.RootIno); !root.IsDir() || root.Nlink == 0 {
		return nil, fmt.Errorf("%w: root inode is not a directory", ErrInvalidFormat)
	}

	fs.log.WithFields(logrus.Fields{
		"blocks": sb.NumBlocks,
		"inodes": sb.NumInodes,
	}).Debug("mounted image")

	return fs, nil
}

func validateSuperblock(sb *types.SuperblockT, imageLen int) error {
	switch {
	case sb.Magic != types.Magic:
		return fmt.Errorf("%w: bad magic %#x", ErrInvalidFormat, sb.Magic)
	case sb.Size != uint64(imageLen):
		return fmt.Errorf("%w: superblock size %d does not match image size %d", ErrInvalidFormat, sb.Size, imageLen)
	case uint64(sb.NumBlocks)*types.BlockSize != uint64(imageLen):
		return fmt.Errorf("%w: block count %d does not match image size %d", ErrInvalidFormat, sb.NumBlocks, imageLen)
	case sb.NumBlocks < types.BlkMin || sb.NumBlocks > types.BlkMax:
		return fmt.Errorf("%w: block count %d out of range", ErrInvalidFormat, sb.NumBlocks)
	case sb.NumInodes == 0 || sb.NumInodes%types.InodesPerBlock != 0 || sb.NumInodes > types.BitsPerBitmap:
		return fmt.Errorf("%w: bad inode count %d", ErrInvalidFormat, sb.NumInodes)
	}

	tableBlocks := sb.NumInodes / types.InodesPerBlock
	if sb.DataRegion != types.InodeTableBlock+types.Blk(tableBlocks) || uint32(sb.DataRegion) >= sb.NumBlocks {
		return fmt.Errorf("%w: bad data region %d", ErrInvalidFormat, sb.DataRegion)
	}
	if sb.FreeBlocks > sb.NumBlocks || sb.FreeInodes > sb.NumInodes {
		return fmt.Errorf("%w: free counters exceed totals", ErrInvalidFormat)
	}
	return nil
}

// Superblock returns a decoded copy of the superblock.
func (fs *FileSystem) Superblock() types.SuperblockT {
	return *fs.superblock()
}

func (fs *FileSystem) now() types.Timespec {
	return types.TimespecOf(fs.clock())
}

// block returns the bytes of block b.
func (fs *FileSystem) block(b types.Blk) []byte {
	off := int(b) * types.BlockSize
	return fs.image[off : off+types.BlockSize]
}

func (fs *FileSystem) superblock() *types.SuperblockT {
	sb, err := layout.ParseSuperblock(fs.block(types.SuperblockBlock), types.Endian)
	if err != nil {
		panic(err)
	}
	return sb
}

func (fs *FileSystem) storeSuperblock(sb *types.SuperblockT) {
	if err := layout.WriteSuperblock(fs.block(types.SuperblockBlock), sb, types.Endian); err != nil {
		panic(err)
	}
}

func (fs *FileSystem) inodeBitmap() bitmap.Bitmap {
	return bitmap.Bitmap(fs.block(types.InodeBitmapBlock))
}

func (fs *FileSystem) dataBitmap() bitmap.Bitmap {
	return bitmap.Bitmap(fs.block(types.DataBitmapBlock))
}

// inodeRecord returns the bytes of inode ino within the inode table.
func (fs *FileSystem) inodeRecord(ino types.Ino) []byte {
	blk := types.InodeTableBlock + types.Blk(uint32(ino)/types.InodesPerBlock)
	off := int(uint32(ino)%types.InodesPerBlock) * types.InodeSize
	return fs.block(blk)[off : off+types.InodeSize]
}

func (fs *FileSystem) loadInode(ino types.Ino) *types.InodeT {
	inode, err := layout.ParseInode(fs.inodeRecord(ino), types.Endian)
	if err != nil {
		panic(err)
	}
	return inode
}

func (fs *FileSystem) storeInode(ino types.Ino, inode *types.InodeT) {
	if err := layout.WriteInode(fs.inodeRecord(ino), inode, types.Endian); err != nil {
		panic(err)
	}
}

// allocBlock takes the lowest free block and zero-fills it.
func (fs *FileSystem) allocBlock() (types.Blk, error) {
	idx, err := fs.dataBitmap().Alloc(fs.numBlocks)
	if err != nil {
		return types.BlkUnassigned, ErrNoSpace
	}
	blk := types.Blk(idx)
	clear(fs.block(blk))

	sb := fs.superblock()
	sb.FreeBlocks--
	fs.storeSuperblock(sb)
	return blk, nil
}

// freeBlock zero-fills blk and returns it to the data bitmap.
func (fs *FileSystem) freeBlock(blk types.Blk) {
	clear(fs.block(blk))
	fs.dataBitmap().Free(fs.numBlocks, uint32(blk))

	sb := fs.superblock()
	sb.FreeBlocks++
	fs.storeSuperblock(sb)
}

func (fs *FileSystem) allocInode() (types.Ino, error) {
	idx, err := fs.inodeBitmap().Alloc(fs.numInodes)
	if err != nil {
		return types.InoMax, ErrNoSpace
	}

	sb := fs.superblock()
	sb.FreeInodes--
	fs.storeSuperblock(sb)
	return types.Ino(idx), nil
}

func (fs *FileSystem) freeInode(ino types.Ino) {
	fs.inodeBitmap().Free(fs.numInodes, uint32(ino))

	sb := fs.superblock()
	sb.FreeInodes++
	fs.storeSuperblock(sb)
}
