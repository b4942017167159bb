package cmd

import (
	"path"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
	"github.com/deploymenttheory/go-vsfs/pkg/app"
)

var statCmd = &cobra.Command{
	Use:   "stat IMAGE [PATH]",
	Short: "Show volume or file attributes",
	Long: `Show the superblock summary of an image, or the attributes of one file
when PATH is given.

Examples:
  vsfs stat disk.img
  vsfs stat disk.img /notes -o json`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], true, func(vfs *vsfs.FileSystem) error {
			if len(args) == 1 {
				return appCtx.Render(volumeInfo(args[0], vfs.Superblock()))
			}
			st, err := vfs.Getattr(args[1])
			if err != nil {
				return err
			}
			entry := fileEntry(path.Base(args[1]), st)
			return appCtx.Render(&entry)
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls IMAGE",
	Short: "List the root directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], true, func(vfs *vsfs.FileSystem) error {
			listing, err := listRoot(args[0], vfs)
			if err != nil {
				return err
			}
			return appCtx.Render(listing)
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check IMAGE",
	Short: "Verify image consistency",
	Long: `Check that the bitmaps, the superblock counters, the inode table and
the root directory agree with each other. The image is never modified.
Exits non-zero when a problem is found.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(args[0], true, func(vfs *vsfs.FileSystem) error {
			report := vfs.Check()
			if err := appCtx.Render(checkResult(args[0], report)); err != nil {
				return err
			}
			return report.Err()
		})
	},
}

func init() {
	rootCmd.AddCommand(statCmd, lsCmd, checkCmd)
}

// listRoot collects the attributes of every root directory entry.
func listRoot(image string, vfs *vsfs.FileSystem) (*app.Listing, error) {
	var names []string
	if err := vfs.Readdir("/", func(name string) bool {
		names = append(names, name)
		return true
	}); err != nil {
		return nil, err
	}

	listing := &app.Listing{Image: image, Entries: make([]app.FileEntry, 0, len(names))}
	for _, name := range names {
		target := "/" + name
		if name == "." || name == ".." {
			target = "/"
		}
		st, err := vfs.Getattr(target)
		if err != nil {
			return nil, err
		}
		listing.Entries = append(listing.Entries, fileEntry(name, st))
	}
	return listing, nil
}

func checkResult(image string, report *vsfs.CheckReport) *app.CheckResult {
	result := &app.CheckResult{
		Image:       image,
		Consistent:  report.OK(),
		InodesInUse: report.InodesInUse,
		BlocksInUse: report.BlocksInUse,
		Entries:     report.Entries,
		Problems:    make([]app.CheckProblem, 0, len(report.Problems)),
	}
	for _, p := range report.Problems {
		result.Problems = append(result.Problems, app.CheckProblem{Rule: p.Rule, Message: p.Message})
	}
	return result
}
