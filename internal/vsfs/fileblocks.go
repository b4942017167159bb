package vsfs

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// File blocks are kept dense: logical block n lives in direct[n] for
// n < NumDirect and in slot n-NumDirect of the indirect block otherwise,
// and every logical block below inode.Blocks is assigned.

// fileBlock returns the block holding logical block n, or BlkUnassigned.
func (fs *FileSystem) fileBlock(inode *types.InodeT, n uint32) types.Blk {
	if n < types.NumDirect {
		return inode.Direct[n]
	}
	if inode.Indirect == types.BlkUnassigned || n >= types.MaxFileBlocks {
		return types.BlkUnassigned
	}
	return fs.indirectArray(inode.Indirect).At(int(n - types.NumDirect))
}

// growBlocks assigns zero-filled blocks until inode holds want blocks. The
// indirect block is allocated on first use. Either every block is
// allocated or the inode and the bitmaps are left as they were.
func (fs *FileSystem) growBlocks(inode *types.InodeT, want uint32) error {
	have := inode.Blocks
	if want > types.MaxFileBlocks {
		return ErrFileTooBig
	}

	need := want - have
	if want > types.NumDirect && inode.Indirect == types.BlkUnassigned {
		need++
	}
	if free := fs.superblock().FreeBlocks; free < need {
		fs.log.WithFields(logrus.Fields{"need": need, "free": free}).Debug("not enough free blocks")
		return ErrNoSpace
	}

	var cu cleanup
	defer cu.Clean()
	cu.Add(func() {
		fs.log.WithField("blocks", have).Debug("rolling back partial growth")
		fs.shrinkBlocks(inode, have)
	})

	for n := have; n < want; n++ {
		if n >= types.NumDirect && inode.Indirect == types.BlkUnassigned {
			ind, err := fs.allocBlock()
			if err != nil {
				return err
			}
			layout.InitIndirect(fs.block(ind), types.Endian)
			inode.Indirect = ind
		}

		blk, err := fs.allocBlock()
		if err != nil {
			return err
		}
		if n < types.NumDirect {
			inode.Direct[n] = blk
		} else {
			fs.indirectArray(inode.Indirect).SetAt(int(n-types.NumDirect), blk)
		}
		inode.Blocks++
	}

	cu.Release()
	return nil
}

// shrinkBlocks frees blocks from the end of the file until inode holds want
// blocks, then frees the indirect block if no slot in it is assigned.
func (fs *FileSystem) shrinkBlocks(inode *types.InodeT, want uint32) {
	for inode.Blocks > want {
		n := inode.Blocks - 1
		if n >= types.NumDirect {
			arr := fs.indirectArray(inode.Indirect)
			fs.freeBlock(arr.At(int(n - types.NumDirect)))
			arr.SetAt(int(n-types.NumDirect), types.BlkUnassigned)
		} else {
			fs.freeBlock(inode.Direct[n])
			inode.Direct[n] = types.BlkUnassigned
		}
		inode.Blocks--
	}

	if inode.Indirect != types.BlkUnassigned && countAssigned(fs.indirectArray(inode.Indirect)) == 0 {
		fs.freeBlock(inode.Indirect)
		inode.Indirect = types.BlkUnassigned
	}
}

// truncateInode sets the size of a regular file, assigning or freeing
// blocks as needed. Bytes past the new end of the last retained block are
// zeroed so that a later extension reads zeros.
func (fs *FileSystem) truncateInode(inode *types.InodeT, size uint64) error {
	if size > types.MaxFileSize {
		return ErrFileTooBig
	}
	want := uint32(types.DivRoundUp(size, types.BlockSize))

	if size < inode.Size && size%types.BlockSize != 0 {
		if blk := fs.fileBlock(inode, want-1); blk != types.BlkUnassigned {
			clear(fs.block(blk)[size%types.BlockSize:])
		}
	}

	if want == inode.Blocks {
		inode.Size = size
		return nil
	}

	if want > inode.Blocks {
		if err := fs.growBlocks(inode, want); err != nil {
			return err
		}
	} else {
		fs.shrinkBlocks(inode, want)
	}

	inode.Size = size
	inode.Mtime = fs.now()
	return nil
}

// readInode copies file data at off into buf and returns the byte count.
// Unassigned blocks read as zeros.
func (fs *FileSystem) readInode(inode *types.InodeT, buf []byte, off uint64) int {
	if off >= inode.Size {
		return 0
	}
	n := uint64(len(buf))
	if rest := inode.Size - off; n > rest {
		n = rest
	}

	done := uint64(0)
	for done < n {
		pos := off + done
		within := pos % types.BlockSize
		chunk := min(types.BlockSize-within, n-done)

		dst := buf[done : done+chunk]
		if blk := fs.fileBlock(inode, uint32(pos/types.BlockSize)); blk == types.BlkUnassigned {
			clear(dst)
		} else {
			copy(dst, fs.block(blk)[within:within+chunk])
		}
		done += chunk
	}
	return int(n)
}

// writeInode copies buf into the file at off. The file must already extend
// past off+len(buf).
func (fs *FileSystem) writeInode(inode *types.InodeT, buf []byte, off uint64) int {
	n := uint64(len(buf))
	done := uint64(0)
	for done < n {
		pos := off + done
		within := pos % types.BlockSize
		chunk := min(types.BlockSize-within, n-done)

		blk := fs.fileBlock(inode, uint32(pos/types.BlockSize))
		copy(fs.block(blk)[within:within+chunk], buf[done:done+chunk])
		done += chunk
	}
	return int(n)
}
