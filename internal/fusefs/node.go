// Package fusefs exposes a vsfs volume through go-fuse. The root node
// serves directory operations and one File node serves each regular file;
// both forward to the operation layer by path.
package fusefs

import (
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/interfaces"
	"github.com/deploymenttheory/go-vsfs/internal/types"
	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
)

// Root is the root directory of a mounted volume.
type Root struct {
	fs.Inode

	vfs interfaces.FileSystem
	log logrus.FieldLogger

	// mu serialises every call into vfs.
	mu  sync.Mutex
	gen uint64
}

// File is a regular file in the root directory.
type File struct {
	fs.Inode

	root *Root
	name string
}

var (
	_ = (fs.NodeGetattrer)((*Root)(nil))
	_ = (fs.NodeSetattrer)((*Root)(nil))
	_ = (fs.NodeLookuper)((*Root)(nil))
	_ = (fs.NodeReaddirer)((*Root)(nil))
	_ = (fs.NodeCreater)((*Root)(nil))
	_ = (fs.NodeUnlinker)((*Root)(nil))
	_ = (fs.NodeStatfser)((*Root)(nil))

	_ = (fs.NodeGetattrer)((*File)(nil))
	_ = (fs.NodeSetattrer)((*File)(nil))
	_ = (fs.NodeOpener)((*File)(nil))
	_ = (fs.NodeReader)((*File)(nil))
	_ = (fs.NodeWriter)((*File)(nil))
)

// NewRoot returns the root node for vfs.
func NewRoot(vfs interfaces.FileSystem, log logrus.FieldLogger) *Root {
	return &Root{vfs: vfs, log: log}
}

// fuseIno maps a vsfs inode number to a FUSE inode number. FUSE reserves
// 1 for the root, which is vsfs inode 0.
func fuseIno(ino types.Ino) uint64 {
	return uint64(ino) + 1
}

func fillAttr(st types.Stat, out *fuse.Attr) {
	out.Ino = fuseIno(st.Ino)
	out.Mode = st.Mode
	out.Nlink = st.Nlink
	out.Size = st.Size
	out.Blocks = st.Blocks
	out.Blksize = types.BlockSize

	sec, nsec := uint64(st.Mtime.Sec), uint32(st.Mtime.Nsec)
	out.Mtime, out.Mtimensec = sec, nsec
	out.Atime, out.Atimensec = sec, nsec
	out.Ctime, out.Ctimensec = sec, nsec
}

// errno converts err and logs it. Missing files are routine for lookups
// and are only logged at debug level.
func (r *Root) errno(op, path string, err error) syscall.Errno {
	if err == nil {
		return 0
	}
	entry := r.log.WithFields(logrus.Fields{"op": op, "path": path})
	if errors.Is(err, vsfs.ErrNotFound) {
		entry.Debug(err)
	} else {
		entry.Warn(err)
	}
	return vsfs.Errno(err)
}

func (r *Root) trace(op, path string) {
	r.log.WithFields(logrus.Fields{"op": op, "path": path}).Debug("fuse request")
}

func (r *Root) getattr(op, path string, out *fuse.Attr) syscall.Errno {
	st, err := r.vfs.Getattr(path)
	if err != nil {
		return r.errno(op, path, err)
	}
	fillAttr(st, out)
	return 0
}

// setattr applies size and modification time changes. Ownership and
// permission changes are accepted and ignored.
func (r *Root) setattr(path string, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace("setattr", path)

	if size, ok := in.GetSize(); ok {
		if err := r.vfs.Truncate(path, int64(size)); err != nil {
			return r.errno("setattr", path, err)
		}
	}

	if in.Valid&fuse.FATTR_MTIME != 0 {
		mtime := types.Timespec{Sec: int64(in.Mtime), Nsec: int64(in.Mtimensec)}
		if in.Valid&fuse.FATTR_MTIME_NOW != 0 {
			mtime = types.Timespec{Nsec: types.UtimeNow}
		}
		omit := types.Timespec{Nsec: types.UtimeOmit}
		if err := r.vfs.Utimens(path, [2]types.Timespec{omit, mtime}); err != nil {
			return r.errno("setattr", path, err)
		}
	}

	return r.getattr("setattr", path, &out.Attr)
}

// Getattr reports the attributes of the root directory.
func (r *Root) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace("getattr", "/")
	return r.getattr("getattr", "/", &out.Attr)
}

// Setattr updates the modification time of the root directory.
func (r *Root) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return r.setattr("/", in, out)
}

// Lookup finds a file in the root directory.
func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := "/" + name
	r.trace("lookup", path)

	st, err := r.vfs.Getattr(path)
	if err != nil {
		return nil, r.errno("lookup", path, err)
	}
	if st.Ino == types.RootIno {
		return nil, syscall.ENOENT
	}
	fillAttr(st, &out.Attr)
	return r.newFile(ctx, name, st), 0
}

func (r *Root) newFile(ctx context.Context, name string, st types.Stat) *fs.Inode {
	r.gen++
	child := &File{root: r, name: name}
	return r.NewInode(ctx, child, fs.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  fuseIno(st.Ino),
		Gen:  r.gen,
	})
}

// Readdir lists the root directory, "." and ".." included.
func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace("readdir", "/")

	var names []string
	err := r.vfs.Readdir("/", func(name string) bool {
		names = append(names, name)
		return true
	})
	if err != nil {
		return nil, r.errno("readdir", "/", err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		st, err := r.vfs.Getattr("/" + name)
		if err != nil {
			return nil, r.errno("readdir", "/"+name, err)
		}
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: st.Mode,
			Ino:  fuseIno(st.Ino),
		})
	}
	return fs.NewListDirStream(entries), 0
}

// Create makes a new regular file. No file handle is returned; reads and
// writes go through the File node.
func (r *Root) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := "/" + name
	r.trace("create", path)

	if err := r.vfs.Create(path, mode); err != nil {
		return nil, nil, 0, r.errno("create", path, err)
	}
	st, err := r.vfs.Getattr(path)
	if err != nil {
		return nil, nil, 0, r.errno("create", path, err)
	}
	fillAttr(st, &out.Attr)
	return r.newFile(ctx, name, st), nil, 0, 0
}

// Unlink removes a file.
func (r *Root) Unlink(ctx context.Context, name string) syscall.Errno {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := "/" + name
	r.trace("unlink", path)
	return r.errno("unlink", path, r.vfs.Unlink(path))
}

// Statfs reports volume statistics.
func (r *Root) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace("statfs", "/")

	st := r.vfs.Statfs()
	out.Bsize = st.Bsize
	out.Frsize = st.Frsize
	out.Blocks = st.Blocks
	out.Bfree = st.Bfree
	out.Bavail = st.Bavail
	out.Files = st.Files
	out.Ffree = st.Ffree
	out.NameLen = st.Namemax
	return 0
}

func (f *File) path() string {
	return "/" + f.name
}

// Getattr reports the attributes of the file.
func (f *File) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	f.root.mu.Lock()
	defer f.root.mu.Unlock()
	f.root.trace("getattr", f.path())
	return f.root.getattr("getattr", f.path(), &out.Attr)
}

// Setattr truncates the file or changes its modification time.
func (f *File) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return f.root.setattr(f.path(), in, out)
}

// Open accepts every open. O_TRUNC arrives separately as a size change.
func (f *File) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	f.root.trace("open", f.path())
	return nil, 0, 0
}

// Read copies file data at off into dest.
func (f *File) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	f.root.mu.Lock()
	defer f.root.mu.Unlock()
	f.root.trace("read", f.path())

	n, err := f.root.vfs.Read(f.path(), dest, off)
	if err != nil {
		return nil, f.root.errno("read", f.path(), err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// Write copies data into the file at off.
func (f *File) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	f.root.mu.Lock()
	defer f.root.mu.Unlock()
	f.root.trace("write", f.path())

	n, err := f.root.vfs.Write(f.path(), data, off)
	if err != nil {
		return 0, f.root.errno("write", f.path(), err)
	}
	return uint32(n), 0
}
