package cmd

import (
	"errors"
	"fmt"

	units "github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/disk"
	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
)

var (
	mkfsInodes uint32
	mkfsForce  bool
	mkfsZero   bool
	mkfsSize   string
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs [flags] IMAGE",
	Short: "Format an image",
	Long: `Format an image with an empty root directory.

The image must already exist with a size that is a multiple of 4096 bytes,
unless --size is given, in which case it is created.

Examples:
  # Create and format a 1 MiB image with 32 inodes
  vsfs mkfs -i 32 --size 1MiB disk.img

  # Reformat an existing image, zeroing it first
  vsfs mkfs -i 64 -f -z disk.img`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMkfs(args[0])
	},
}

func init() {
	rootCmd.AddCommand(mkfsCmd)

	mkfsCmd.Flags().Uint32VarP(&mkfsInodes, "inodes", "i", 0, "number of inodes (required unless default_inodes is configured)")
	mkfsCmd.Flags().BoolVarP(&mkfsForce, "force", "f", false, "overwrite an already formatted image")
	mkfsCmd.Flags().BoolVarP(&mkfsZero, "zero", "z", false, "zero-fill the image before formatting")
	mkfsCmd.Flags().StringVar(&mkfsSize, "size", "", "create the image with this size first (e.g. 1MiB, 8m)")
}

func runMkfs(path string) (err error) {
	inodes := mkfsInodes
	if inodes == 0 {
		inodes = cfg.DefaultInodes
	}
	if inodes == 0 {
		return errors.New("number of inodes not specified (-i)")
	}

	if mkfsSize != "" {
		size, err := units.RAMInBytes(mkfsSize)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", mkfsSize, err)
		}
		if err := disk.CreateImage(path, size, mkfsForce); err != nil {
			return err
		}
		debugf(logrus.Fields{"image": path, "size": size}, "image created")
	}

	img, err := disk.OpenImage(path, disk.OpenOptions{Lock: cfg.LockImage})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, img.Close())
	}()

	sb, err := vsfs.Format(img.Bytes(), vsfs.FormatOptions{
		Inodes: inodes,
		Force:  mkfsForce,
		Zero:   mkfsZero,
	})
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", path, err)
	}
	debugf(logrus.Fields{"image": path, "inodes": sb.NumInodes, "blocks": sb.NumBlocks}, "image formatted")

	if appCtx.Quiet {
		return nil
	}
	return appCtx.Render(volumeInfo(path, *sb))
}
