package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/types"
	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
)

// copyChunk is the transfer size of cat and put
const copyChunk = 16 * types.BlockSize

var truncateSize string

var catCmd = &cobra.Command{
	Use:   "cat IMAGE PATH",
	Short: "Print the contents of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], true, func(vfs *vsfs.FileSystem) error {
			return copyOut(vfs, args[1], cmd.OutOrStdout())
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put IMAGE PATH [SOURCE]",
	Short: "Store a file in the image",
	Long: `Copy SOURCE, or standard input when it is omitted, into PATH. The file is
created when missing and replaced otherwise.

Examples:
  vsfs put disk.img /notes notes.txt
  echo hello | vsfs put disk.img /greeting`,

	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := cmd.InOrStdin()
		if len(args) == 3 {
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}
		return withVolume(args[0], false, func(vfs *vsfs.FileSystem) error {
			n, err := copyIn(vfs, args[1], src)
			if err != nil {
				return err
			}
			appCtx.Printf("wrote %d bytes to %s\n", n, args[1])
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm IMAGE PATH...",
	Short: "Remove files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], false, func(vfs *vsfs.FileSystem) error {
			for _, p := range args[1:] {
				if err := vfs.Unlink(p); err != nil {
					return err
				}
				debugf(logrus.Fields{"path": p}, "removed")
			}
			return nil
		})
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch IMAGE PATH...",
	Short: "Create files or update their modification time",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], false, func(vfs *vsfs.FileSystem) error {
			for _, p := range args[1:] {
				if err := touch(vfs, p); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var truncateCmd = &cobra.Command{
	Use:   "truncate IMAGE PATH --size SIZE",
	Short: "Resize a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := units.RAMInBytes(truncateSize)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", truncateSize, err)
		}
		return withVolume(args[0], false, func(vfs *vsfs.FileSystem) error {
			return vfs.Truncate(args[1], size)
		})
	},
}

func init() {
	rootCmd.AddCommand(catCmd, putCmd, rmCmd, touchCmd, truncateCmd)

	truncateCmd.Flags().StringVarP(&truncateSize, "size", "s", "", "new file size (e.g. 0, 12k, 1MiB)")
	_ = truncateCmd.MarkFlagRequired("size")
}

func copyOut(vfs *vsfs.FileSystem, path string, w io.Writer) error {
	buf := make([]byte, copyChunk)
	var off int64
	for {
		n, err := vfs.Read(path, buf, off)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		off += int64(n)
	}
}

// copyIn replaces the contents of path with everything read from r.
func copyIn(vfs *vsfs.FileSystem, path string, r io.Reader) (int64, error) {
	if err := vfs.Create(path, 0o644); err != nil {
		if !errors.Is(err, vsfs.ErrExist) {
			return 0, err
		}
		if err := vfs.Truncate(path, 0); err != nil {
			return 0, err
		}
	}

	buf := make([]byte, copyChunk)
	var off int64
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			if _, err := vfs.Write(path, buf[:n], off); err != nil {
				return off, err
			}
			off += int64(n)
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			return off, nil
		}
		if rerr != nil {
			return off, rerr
		}
	}
}

func touch(vfs *vsfs.FileSystem, path string) error {
	err := vfs.Create(path, 0o644)
	if !errors.Is(err, vsfs.ErrExist) {
		return err
	}
	omit := types.Timespec{Nsec: types.UtimeOmit}
	now := types.Timespec{Nsec: types.UtimeNow}
	return vfs.Utimens(path, [2]types.Timespec{omit, now})
}
