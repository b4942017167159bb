package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/disk"
	"github.com/deploymenttheory/go-vsfs/internal/interfaces"
	"github.com/deploymenttheory/go-vsfs/internal/types"
	"github.com/deploymenttheory/go-vsfs/internal/vsfs"
	"github.com/deploymenttheory/go-vsfs/pkg/app"
)

// openImage maps an image file. The image is locked unless lock_image is
// disabled in the configuration.
func openImage(path string, readOnly bool) (interfaces.Image, error) {
	img, err := disk.OpenImage(path, disk.OpenOptions{ReadOnly: readOnly, Lock: cfg.LockImage})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// withVolume maps the image, mounts the file system on it and runs fn.
// The image is synced and unmapped afterwards whatever fn returns.
func withVolume(path string, readOnly bool, fn func(*vsfs.FileSystem) error) (err error) {
	img, err := openImage(path, readOnly)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, img.Close())
	}()

	log := appCtx.Log.WithField("image", path)
	vfs, err := vsfs.Mount(img.Bytes(), vsfs.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{"read_only": readOnly, "size": img.Size()}).Debug("image mounted")

	return fn(vfs)
}

func volumeInfo(path string, sb types.SuperblockT) *app.VolumeInfo {
	return &app.VolumeInfo{
		Image:      path,
		UUID:       uuid.UUID(sb.UUID).String(),
		SizeBytes:  sb.Size,
		BlockSize:  types.BlockSize,
		Blocks:     uint64(sb.NumBlocks),
		FreeBlocks: uint64(sb.FreeBlocks),
		Inodes:     uint64(sb.NumInodes),
		FreeInodes: uint64(sb.FreeInodes),
		DataRegion: uint32(sb.DataRegion),
		NameMax:    types.NameMax,
	}
}

func fileEntry(name string, st types.Stat) app.FileEntry {
	return app.FileEntry{
		Name:     name,
		Ino:      uint32(st.Ino),
		Mode:     app.FormatMode(st.Mode),
		Size:     st.Size,
		Blocks:   st.Blocks,
		Modified: st.Mtime.Time(),
	}
}

func debugf(fields logrus.Fields, format string, args ...any) {
	appCtx.Log.WithFields(fields).Debugf(format, args...)
}
