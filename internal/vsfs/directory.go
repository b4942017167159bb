package vsfs

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// dentryLoc identifies one directory entry slot of the root directory.
// arr[slot] holds blk, and entry indexes the slot within blk.
type dentryLoc struct {
	arr   blockArray
	slot  int
	blk   types.Blk
	entry int
}

func (fs *FileSystem) dentry(blk types.Blk, entry int) []byte {
	off := entry * types.DentrySize
	return fs.block(blk)[off : off+types.DentrySize]
}

// walkDir visits the directory blocks of dir in logical order: the direct
// pointers, then the indirect block, skipping unassigned slots and stopping
// once dir.Blocks blocks have been seen. Returning true from visit stops
// the walk.
func (fs *FileSystem) walkDir(dir *types.InodeT, visit func(arr blockArray, slot int, blk types.Blk) bool) bool {
	budget := dir.Blocks

	arrays := []blockArray{directArray{inode: dir}}
	if dir.Indirect != types.BlkUnassigned {
		arrays = append(arrays, fs.indirectArray(dir.Indirect))
	}

	for _, arr := range arrays {
		for slot := 0; slot < arr.Len() && budget > 0; slot++ {
			blk := arr.At(slot)
			if blk == types.BlkUnassigned {
				continue
			}
			budget--
			if visit(arr, slot, blk) {
				return true
			}
		}
	}
	return false
}

// lookup finds the entry called name.
func (fs *FileSystem) lookup(dir *types.InodeT, name string) (dentryLoc, types.Ino, bool) {
	var loc dentryLoc
	found := types.InoMax
	ok := fs.walkDir(dir, func(arr blockArray, slot int, blk types.Blk) bool {
		for i := 0; i < types.DentriesPerBlock; i++ {
			e := fs.dentry(blk, i)
			ino := layout.DentryIno(e, types.Endian)
			if ino == types.InoMax || !layout.DentryNameEquals(e, name) {
				continue
			}
			loc = dentryLoc{arr: arr, slot: slot, blk: blk, entry: i}
			found = ino
			return true
		}
		return false
	})
	return loc, found, ok
}

// freeSlot returns the first free entry in an already assigned block of arr.
func (fs *FileSystem) freeSlot(arr blockArray) (dentryLoc, bool) {
	for slot := 0; slot < arr.Len(); slot++ {
		blk := arr.At(slot)
		if blk == types.BlkUnassigned {
			continue
		}
		for i := 0; i < types.DentriesPerBlock; i++ {
			if layout.DentryIno(fs.dentry(blk, i), types.Endian) == types.InoMax {
				return dentryLoc{arr: arr, slot: slot, blk: blk, entry: i}, true
			}
		}
	}
	return dentryLoc{}, false
}

// countValidEntries returns the number of used entries in a directory block.
func (fs *FileSystem) countValidEntries(blk types.Blk) int {
	n := 0
	for i := 0; i < types.DentriesPerBlock; i++ {
		if layout.DentryIno(fs.dentry(blk, i), types.Endian) != types.InoMax {
			n++
		}
	}
	return n
}

// readDir passes every used entry of dir to fill until fill returns false.
func (fs *FileSystem) readDir(dir *types.InodeT, fill func(d *types.DentryT) bool) bool {
	stopped := fs.walkDir(dir, func(_ blockArray, _ int, blk types.Blk) bool {
		for i := 0; i < types.DentriesPerBlock; i++ {
			d, err := layout.ParseDentry(fs.dentry(blk, i), types.Endian)
			if err != nil {
				panic(err)
			}
			if d.IsFree() {
				continue
			}
			if !fill(d) {
				return true
			}
		}
		return false
	})
	return !stopped
}

func (fs *FileSystem) writeDentry(loc dentryLoc, d *types.DentryT) error {
	return layout.WriteDentry(fs.dentry(loc.blk, loc.entry), d, types.Endian)
}

// clearDentry marks the entry at loc free.
func (fs *FileSystem) clearDentry(loc dentryLoc) {
	e := fs.dentry(loc.blk, loc.entry)
	clear(e)
	layout.SetDentryIno(e, types.InoMax, types.Endian)
}

// appendDirBlock allocates a directory block into the first unassigned slot
// of arr and accounts for it in dir.
func (fs *FileSystem) appendDirBlock(dir *types.InodeT, arr blockArray) (dentryLoc, error) {
	slot := firstUnassigned(arr)
	if slot < 0 {
		return dentryLoc{}, ErrNoSpace
	}
	blk, err := fs.allocBlock()
	if err != nil {
		return dentryLoc{}, err
	}
	layout.InitDirectoryBlock(fs.block(blk), types.Endian)

	arr.SetAt(slot, blk)
	dir.Blocks++
	dir.Size += types.BlockSize
	return dentryLoc{arr: arr, slot: slot, blk: blk, entry: 0}, nil
}

// insertDentry adds {name, ino} to dir. Existing directory blocks are reused
// before new ones are allocated, and direct blocks are preferred over the
// indirect block. dir is updated in memory only; on error every block
// allocated here has been released.
func (fs *FileSystem) insertDentry(dir *types.InodeT, name string, ino types.Ino) error {
	d := &types.DentryT{Ino: ino, Name: name}

	direct := directArray{inode: dir}
	if loc, ok := fs.freeSlot(direct); ok {
		return fs.writeDentry(loc, d)
	}
	if firstUnassigned(direct) >= 0 {
		loc, err := fs.appendDirBlock(dir, direct)
		if err != nil {
			return err
		}
		return fs.writeDentry(loc, d)
	}

	if dir.Indirect == types.BlkUnassigned {
		var cu cleanup
		defer cu.Clean()

		ind, err := fs.allocBlock()
		if err != nil {
			return err
		}
		layout.InitIndirect(fs.block(ind), types.Endian)
		dir.Indirect = ind
		cu.Add(func() {
			fs.log.WithField("blk", ind).Debug("releasing directory indirect block")
			fs.freeBlock(ind)
			dir.Indirect = types.BlkUnassigned
		})

		loc, err := fs.appendDirBlock(dir, fs.indirectArray(ind))
		if err != nil {
			return err
		}
		cu.Release()
		return fs.writeDentry(loc, d)
	}

	indirect := fs.indirectArray(dir.Indirect)
	if loc, ok := fs.freeSlot(indirect); ok {
		return fs.writeDentry(loc, d)
	}
	loc, err := fs.appendDirBlock(dir, indirect)
	if err != nil {
		fs.log.WithFields(logrus.Fields{"name": name}).Debug("directory is full")
		return err
	}
	return fs.writeDentry(loc, d)
}

// removeDirBlockIfEmpty frees the directory block holding loc once its last
// entry is gone, and the indirect block once its last slot is unassigned.
func (fs *FileSystem) removeDirBlockIfEmpty(dir *types.InodeT, loc dentryLoc) {
	if fs.countValidEntries(loc.blk) != 0 {
		return
	}

	fs.freeBlock(loc.blk)
	loc.arr.SetAt(loc.slot, types.BlkUnassigned)
	dir.Blocks--
	dir.Size -= types.BlockSize

	if _, isIndirect := loc.arr.(indirectArray); isIndirect && countAssigned(loc.arr) == 0 {
		fs.freeBlock(dir.Indirect)
		dir.Indirect = types.BlkUnassigned
	}
}
