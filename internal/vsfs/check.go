package vsfs

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-vsfs/internal/parsers/layout"
	"github.com/deploymenttheory/go-vsfs/internal/types"
)

// Problem is a single consistency violation found by Check.
type Problem struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// CheckReport lists every violation found in an image.
type CheckReport struct {
	InodesInUse int       `json:"inodes_in_use" yaml:"inodes_in_use"`
	BlocksInUse int       `json:"blocks_in_use" yaml:"blocks_in_use"`
	Entries     int       `json:"entries" yaml:"entries"`
	Problems    []Problem `json:"problems" yaml:"problems"`
}

// OK reports whether the image is consistent.
func (r *CheckReport) OK() bool {
	return len(r.Problems) == 0
}

// Err joins all problems into one error, or returns nil.
func (r *CheckReport) Err() error {
	errs := make([]error, 0, len(r.Problems))
	for _, p := range r.Problems {
		errs = append(errs, fmt.Errorf("%s: %s", p.Rule, p.Message))
	}
	return errors.Join(errs...)
}

func (r *CheckReport) addf(rule, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Check verifies the allocation and directory invariants of the image
// without modifying it.
func (fs *FileSystem) Check() *CheckReport {
	r := &CheckReport{}
	sb := fs.superblock()
	ibmap := fs.inodeBitmap()
	dbmap := fs.dataBitmap()

	owner := make(map[types.Blk]string)
	claim := func(blk types.Blk, who string) {
		if uint32(blk) >= fs.numBlocks {
			r.addf("pointers", "%s references block %d past the end of the image", who, blk)
			return
		}
		if !dbmap.IsSet(uint32(blk)) {
			r.addf("pointers", "%s references free block %d", who, blk)
		}
		if prev, taken := owner[blk]; taken {
			r.addf("ownership", "block %d is owned by both %s and %s", blk, prev, who)
			return
		}
		owner[blk] = who
	}

	for b := types.Blk(0); b < sb.DataRegion; b++ {
		claim(b, "metadata")
	}

	for i := uint32(0); i < fs.numInodes; i++ {
		ino := types.Ino(i)
		inode := fs.loadInode(ino)
		inUse := ibmap.IsSet(i)

		if !inUse {
			if inode.Nlink != 0 {
				r.addf("inodes", "inode %d has %d links but is free in the bitmap", ino, inode.Nlink)
			}
			continue
		}
		r.InodesInUse++
		if inode.Nlink == 0 {
			r.addf("inodes", "inode %d is allocated but has no links", ino)
			continue
		}

		who := fmt.Sprintf("inode %d", ino)
		valid := uint32(0)
		for _, blk := range inode.Direct {
			if blk != types.BlkUnassigned {
				claim(blk, who)
				valid++
			}
		}
		if inode.Indirect != types.BlkUnassigned {
			claim(inode.Indirect, who+" indirect")
			if uint32(inode.Indirect) < fs.numBlocks {
				arr := fs.indirectArray(inode.Indirect)
				for slot := 0; slot < arr.Len(); slot++ {
					if blk := arr.At(slot); blk != types.BlkUnassigned {
						claim(blk, who)
						valid++
					}
				}
			}
		}

		if inode.Blocks != valid {
			r.addf("block-count", "inode %d records %d blocks but references %d", ino, inode.Blocks, valid)
		}
		if inode.Size > uint64(inode.Blocks)*types.BlockSize {
			r.addf("size", "inode %d size %d exceeds %d blocks", ino, inode.Size, inode.Blocks)
		}
		if inode.IsDir() && inode.Size != uint64(inode.Blocks)*types.BlockSize {
			r.addf("size", "directory inode %d size %d is not %d blocks", ino, inode.Size, inode.Blocks)
		}

		switch {
		case ino == types.RootIno && !inode.IsDir():
			r.addf("root", "root inode mode %#o is not a directory", inode.Mode)
		case ino != types.RootIno && inode.IsDir():
			r.addf("root", "inode %d is a second directory", ino)
		}
	}
	if !ibmap.IsSet(uint32(types.RootIno)) {
		r.addf("root", "root inode is not allocated")
	}

	for b := uint32(0); b < fs.numBlocks; b++ {
		if dbmap.IsSet(b) {
			r.BlocksInUse++
			if _, owned := owner[types.Blk(b)]; !owned {
				r.addf("ownership", "block %d is allocated but unreferenced", b)
			}
		}
	}

	if free := dbmap.CountClear(fs.numBlocks); free != sb.FreeBlocks {
		r.addf("counters", "superblock records %d free blocks, bitmap has %d", sb.FreeBlocks, free)
	}
	if free := ibmap.CountClear(fs.numInodes); free != sb.FreeInodes {
		r.addf("counters", "superblock records %d free inodes, bitmap has %d", sb.FreeInodes, free)
	}

	fs.checkEntries(r)
	return r
}

func (fs *FileSystem) checkEntries(r *CheckReport) {
	root := fs.loadInode(types.RootIno)
	seen := make(map[string]bool)

	fs.walkDir(root, func(_ blockArray, _ int, blk types.Blk) bool {
		if uint32(blk) >= fs.numBlocks {
			return false
		}
		for i := 0; i < types.DentriesPerBlock; i++ {
			d, err := layout.ParseDentry(fs.dentry(blk, i), types.Endian)
			if err != nil || d.IsFree() {
				continue
			}
			r.Entries++

			switch {
			case d.Name == "":
				r.addf("entries", "block %d entry %d has an empty name", blk, i)
			case seen[d.Name]:
				r.addf("entries", "name %q appears more than once", d.Name)
			}
			seen[d.Name] = true

			if uint32(d.Ino) >= fs.numInodes || !fs.inodeBitmap().IsSet(uint32(d.Ino)) {
				r.addf("entries", "entry %q references unused inode %d", d.Name, d.Ino)
			}
		}
		return false
	})

	for _, name := range []string{".", ".."} {
		if _, ino, ok := fs.lookup(root, name); !ok || ino != types.RootIno {
			r.addf("entries", "root directory has no %q entry for itself", name)
		}
	}
}
