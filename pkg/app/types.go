package app

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// VolumeInfo summarises a formatted image
type VolumeInfo struct {
	Image      string `json:"image" yaml:"image"`
	UUID       string `json:"uuid" yaml:"uuid"`
	SizeBytes  uint64 `json:"size_bytes" yaml:"size_bytes"`
	BlockSize  uint32 `json:"block_size" yaml:"block_size"`
	Blocks     uint64 `json:"blocks" yaml:"blocks"`
	FreeBlocks uint64 `json:"free_blocks" yaml:"free_blocks"`
	Inodes     uint64 `json:"inodes" yaml:"inodes"`
	FreeInodes uint64 `json:"free_inodes" yaml:"free_inodes"`
	DataRegion uint32 `json:"data_region" yaml:"data_region"`
	NameMax    uint32 `json:"name_max" yaml:"name_max"`
}

// WriteTable writes the volume summary as aligned key/value rows
func (v *VolumeInfo) WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Image:\t%s\n", v.Image)
	fmt.Fprintf(w, "UUID:\t%s\n", v.UUID)
	fmt.Fprintf(w, "Size:\t%s (%d bytes)\n", FormatBytes(int64(v.SizeBytes)), v.SizeBytes)
	fmt.Fprintf(w, "Block size:\t%d\n", v.BlockSize)
	fmt.Fprintf(w, "Blocks:\t%d total, %d free\n", v.Blocks, v.FreeBlocks)
	fmt.Fprintf(w, "Inodes:\t%d total, %d free\n", v.Inodes, v.FreeInodes)
	fmt.Fprintf(w, "Data region:\tblock %d\n", v.DataRegion)
	fmt.Fprintf(w, "Longest name:\t%d bytes\n", v.NameMax-1)
	return w.Flush()
}

// FileEntry describes one directory entry
type FileEntry struct {
	Name     string    `json:"name" yaml:"name"`
	Ino      uint32    `json:"ino" yaml:"ino"`
	Mode     string    `json:"mode" yaml:"mode"`
	Size     uint64    `json:"size" yaml:"size"`
	Blocks   uint64    `json:"blocks" yaml:"blocks"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

// Listing is the content of the root directory
type Listing struct {
	Image   string      `json:"image" yaml:"image"`
	Entries []FileEntry `json:"entries" yaml:"entries"`
}

// WriteTable writes one row per entry followed by a total
func (l *Listing) WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INO\tMODE\tSIZE\tBLOCKS\tMODIFIED\tNAME\n")
	fmt.Fprintf(w, "---\t----\t----\t------\t--------\t----\n")
	for _, e := range l.Entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
			e.Ino, e.Mode, e.Size, e.Blocks, e.Modified.Format("2006-01-02 15:04"), e.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d entries\n", len(l.Entries))
	return err
}

// CheckResult is the outcome of a consistency check
type CheckResult struct {
	Image       string         `json:"image" yaml:"image"`
	Consistent  bool           `json:"consistent" yaml:"consistent"`
	InodesInUse int            `json:"inodes_in_use" yaml:"inodes_in_use"`
	BlocksInUse int            `json:"blocks_in_use" yaml:"blocks_in_use"`
	Entries     int            `json:"entries" yaml:"entries"`
	Problems    []CheckProblem `json:"problems" yaml:"problems"`
}

// CheckProblem is a single violation found by a check
type CheckProblem struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// WriteTable writes the check summary and any problems
func (c *CheckResult) WriteTable(out io.Writer) error {
	status := "clean"
	if !c.Consistent {
		status = fmt.Sprintf("%d problems", len(c.Problems))
	}
	fmt.Fprintf(out, "%s: %s (%d inodes, %d blocks, %d entries in use)\n",
		c.Image, status, c.InodesInUse, c.BlocksInUse, c.Entries)
	if len(c.Problems) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RULE\tPROBLEM\n")
	for _, p := range c.Problems {
		fmt.Fprintf(w, "%s\t%s\n", p.Rule, p.Message)
	}
	return w.Flush()
}

// FormatMode renders file mode bits the way ls does for the two file types
// vsfs knows about
func FormatMode(mode uint32) string {
	const rwx = "rwxrwxrwx"
	buf := []byte("----------")
	if mode&0o170000 == 0o040000 {
		buf[0] = 'd'
	}
	for i := 0; i < 9; i++ {
		if mode&(1<<uint(8-i)) != 0 {
			buf[i+1] = rwx[i]
		}
	}
	return string(buf)
}

// WriteTable writes a single entry as key/value rows
func (e *FileEntry) WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", e.Name)
	fmt.Fprintf(w, "Inode:\t%d\n", e.Ino)
	fmt.Fprintf(w, "Mode:\t%s\n", e.Mode)
	fmt.Fprintf(w, "Size:\t%d\n", e.Size)
	fmt.Fprintf(w, "Blocks:\t%d\n", e.Blocks)
	fmt.Fprintf(w, "Modified:\t%s\n", e.Modified.Format(time.RFC3339Nano))
	return w.Flush()
}
