package vsfs

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// Only the root directory exists, so a path is either "/" or "/name".

// splitPath returns the entry name addressed by path, or "" for the root.
func splitPath(path string) (string, error) {
	if len(path) >= types.PathMax {
		return "", ErrNameTooLong
	}
	if path == "/" {
		return "", nil
	}
	name, ok := strings.CutPrefix(path, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", ErrNotFound
	}
	return name, nil
}

func (fs *FileSystem) resolve(path string) (types.Ino, error) {
	name, err := splitPath(path)
	if err != nil {
		return types.InoMax, err
	}
	if name == "" {
		return types.RootIno, nil
	}
	_, ino, ok := fs.lookup(fs.loadInode(types.RootIno), name)
	if !ok {
		return types.InoMax, ErrNotFound
	}
	return ino, nil
}

// regularFile resolves path to a regular file.
func (fs *FileSystem) regularFile(path string) (types.Ino, *types.InodeT, error) {
	ino, err := fs.resolve(path)
	if err != nil {
		return ino, nil, err
	}
	inode := fs.loadInode(ino)
	if inode.IsDir() {
		return ino, nil, ErrIsDir
	}
	return ino, inode, nil
}

func opError(op, path string, err error) error {
	return fmt.Errorf("%s %q: %w", op, path, err)
}

func (fs *FileSystem) touchRoot(now types.Timespec) {
	root := fs.loadInode(types.RootIno)
	root.Mtime = now
	fs.storeInode(types.RootIno, root)
}

// Statfs reports volume-wide statistics.
func (fs *FileSystem) Statfs() types.Statfs {
	sb := fs.superblock()
	return types.Statfs{
		Bsize:   types.BlockSize,
		Frsize:  types.BlockSize,
		Blocks:  uint64(sb.NumBlocks),
		Bfree:   uint64(sb.FreeBlocks),
		Bavail:  uint64(sb.FreeBlocks),
		Files:   uint64(sb.NumInodes),
		Ffree:   uint64(sb.FreeInodes),
		Favail:  uint64(sb.FreeInodes),
		Namemax: types.NameMax,
	}
}

// Getattr reports the attributes of the root directory or a file in it.
// Blocks counts 512-byte units and includes the indirect block.
func (fs *FileSystem) Getattr(path string) (types.Stat, error) {
	ino, err := fs.resolve(path)
	if err != nil {
		return types.Stat{}, opError("getattr", path, err)
	}
	inode := fs.loadInode(ino)

	blocks := uint64(inode.Blocks) * types.BlockSize / 512
	if inode.Indirect != types.BlkUnassigned {
		blocks += types.BlockSize / 512
	}

	return types.Stat{
		Ino:    ino,
		Mode:   inode.Mode,
		Nlink:  inode.Nlink,
		Size:   inode.Size,
		Blocks: blocks,
		Mtime:  inode.Mtime,
	}, nil
}

// Readdir passes every entry name of the root directory to fill, "." and
// ".." included. ErrNoBuffer is returned when fill refuses an entry.
func (fs *FileSystem) Readdir(path string, fill func(name string) bool) error {
	ino, err := fs.resolve(path)
	if err != nil {
		return opError("readdir", path, err)
	}
	if ino != types.RootIno {
		return opError("readdir", path, ErrNotDir)
	}

	root := fs.loadInode(types.RootIno)
	if !fs.readDir(root, func(d *types.DentryT) bool { return fill(d.Name) }) {
		return opError("readdir", path, ErrNoBuffer)
	}
	return nil
}

// Create makes an empty regular file. A mode without type bits is taken
// as a regular file mode.
func (fs *FileSystem) Create(path string, mode uint32) error {
	name, err := splitPath(path)
	if err != nil {
		return opError("create", path, err)
	}
	if name == "" {
		return opError("create", path, ErrExist)
	}
	if len(name) >= types.NameMax {
		return opError("create", path, ErrNameTooLong)
	}
	switch mode & types.ModeTypeMask {
	case 0:
		mode |= types.ModeRegular
	case types.ModeRegular:
	default:
		return opError("create", path, ErrInvalid)
	}

	root := fs.loadInode(types.RootIno)
	if _, _, ok := fs.lookup(root, name); ok {
		return opError("create", path, ErrExist)
	}
	if sb := fs.superblock(); sb.FreeInodes == 0 || sb.FreeBlocks == 0 {
		return opError("create", path, ErrNoSpace)
	}

	ino, err := fs.allocInode()
	if err != nil {
		return opError("create", path, err)
	}

	var cu cleanup
	defer cu.Clean()
	cu.Add(func() {
		fs.log.WithFields(logrus.Fields{"op": "create", "path": path, "ino": ino}).Debug("releasing inode")
		fs.freeInode(ino)
	})

	if err := fs.insertDentry(root, name, ino); err != nil {
		return opError("create", path, err)
	}

	now := fs.now()
	inode := &types.InodeT{Mode: mode, Nlink: 1, Mtime: now}
	inode.ClearPointers()
	fs.storeInode(ino, inode)

	root.Mtime = now
	fs.storeInode(types.RootIno, root)
	cu.Release()

	fs.log.WithFields(logrus.Fields{"op": "create", "path": path, "ino": ino}).Debug("created file")
	return nil
}

// Unlink removes a file from the root directory and releases its inode and
// blocks. A directory block left without entries is released as well.
func (fs *FileSystem) Unlink(path string) error {
	name, err := splitPath(path)
	if err != nil {
		return opError("unlink", path, err)
	}
	if name == "" {
		return opError("unlink", path, ErrIsDir)
	}

	root := fs.loadInode(types.RootIno)
	loc, ino, ok := fs.lookup(root, name)
	if !ok {
		return opError("unlink", path, ErrNotFound)
	}
	if ino == types.RootIno {
		return opError("unlink", path, ErrIsDir)
	}

	inode := fs.loadInode(ino)
	fs.shrinkBlocks(inode, 0)
	fs.clearDentry(loc)

	inode.Nlink = 0
	inode.Size = 0
	fs.storeInode(ino, inode)
	fs.freeInode(ino)

	fs.removeDirBlockIfEmpty(root, loc)
	root.Mtime = fs.now()
	fs.storeInode(types.RootIno, root)

	fs.log.WithFields(logrus.Fields{"op": "unlink", "path": path, "ino": ino}).Debug("removed file")
	return nil
}

// Utimens sets the modification time from times[1]. The access time in
// times[0] is not stored.
func (fs *FileSystem) Utimens(path string, times [2]types.Timespec) error {
	mtime := times[1]
	if mtime.Nsec == types.UtimeOmit {
		return nil
	}

	ino, err := fs.resolve(path)
	if err != nil {
		return opError("utimens", path, err)
	}

	switch {
	case mtime.Nsec == types.UtimeNow:
		mtime = fs.now()
	case mtime.Nsec < 0 || mtime.Nsec >= 1e9:
		return opError("utimens", path, ErrInvalid)
	}

	inode := fs.loadInode(ino)
	inode.Mtime = mtime
	fs.storeInode(ino, inode)
	return nil
}

// Truncate sets the size of a file. New bytes read as zeros.
func (fs *FileSystem) Truncate(path string, size int64) error {
	ino, inode, err := fs.regularFile(path)
	if err != nil {
		return opError("truncate", path, err)
	}
	if size < 0 {
		return opError("truncate", path, ErrInvalid)
	}

	if err := fs.truncateInode(inode, uint64(size)); err != nil {
		return opError("truncate", path, err)
	}
	fs.storeInode(ino, inode)
	return nil
}

// Read copies file data at off into buf. It returns 0 at or past the end
// of the file.
func (fs *FileSystem) Read(path string, buf []byte, off int64) (int, error) {
	_, inode, err := fs.regularFile(path)
	if err != nil {
		return 0, opError("read", path, err)
	}
	if off < 0 {
		return 0, opError("read", path, ErrInvalid)
	}
	return fs.readInode(inode, buf, uint64(off)), nil
}

// Write copies buf into a file at off, extending the file first when the
// write ends past its current size.
func (fs *FileSystem) Write(path string, buf []byte, off int64) (int, error) {
	ino, inode, err := fs.regularFile(path)
	if err != nil {
		return 0, opError("write", path, err)
	}
	if off < 0 {
		return 0, opError("write", path, ErrInvalid)
	}
	if len(buf) == 0 {
		return 0, nil
	}

	end := uint64(off) + uint64(len(buf))
	if end > types.MaxFileSize {
		return 0, opError("write", path, ErrFileTooBig)
	}
	if end > inode.Size {
		if err := fs.truncateInode(inode, end); err != nil {
			return 0, opError("write", path, err)
		}
	}

	n := fs.writeInode(inode, buf, uint64(off))

	now := fs.now()
	inode.Mtime = now
	fs.storeInode(ino, inode)
	fs.touchRoot(now)
	return n, nil
}
