package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/fusefs"
	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
)

var (
	mountDebug      bool
	mountAllowOther bool
)

var mountCmd = &cobra.Command{
	Use:   "mount IMAGE MOUNTPOINT",
	Short: "Mount an image with FUSE",
	Long: `Serve an image at MOUNTPOINT until interrupted. SIGINT or SIGTERM
unmounts the file system and flushes the image.

Examples:
  vsfs mount disk.img /mnt/vsfs
  vsfs mount disk.img /mnt/vsfs --debug`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMount(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)

	mountCmd.Flags().BoolVar(&mountDebug, "debug", false, "log every FUSE request")
	mountCmd.Flags().BoolVar(&mountAllowOther, "allow-other", false, "allow access by other users")
}

func runMount(ctx context.Context, image, mountpoint string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withVolume(image, false, func(vfs *vsfs.FileSystem) error {
		server, err := fusefs.Mount(mountpoint, vfs, fusefs.MountOptions{
			Debug:      mountDebug || cfg.MountDebug,
			AllowOther: mountAllowOther || cfg.AllowOther,
			FsName:     image,
			Logger:     appCtx.Log,
		})
		if err != nil {
			return err
		}

		go func() {
			<-ctx.Done()
			appCtx.Log.WithField("mountpoint", mountpoint).Info("unmounting")
			if err := server.Unmount(); err != nil {
				appCtx.Log.WithError(err).Warn("unmount failed")
			}
		}()

		server.Wait()
		appCtx.Log.WithFields(logrus.Fields{"image": image, "mountpoint": mountpoint}).Info("unmounted")
		return nil
	})
}
