package fusefs

import (
	"fmt"
	"os"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-vsfs/internal/interfaces"
)

// MountOptions controls how a volume is mounted.
type MountOptions struct {
	// Debug logs every FUSE request and reply.
	Debug bool

	// AllowOther lets users other than the mounting user access the mount.
	AllowOther bool

	// FsName is shown as the source in the mount table.
	FsName string

	Logger logrus.FieldLogger
}

// Mount serves vfs at mountpoint. Requests are handled one at a time. The
// caller waits on the returned server and unmounts it when done.
func Mount(mountpoint string, vfs interfaces.FileSystem, opts MountOptions) (*fuse.Server, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	root := NewRoot(vfs, log)
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug:          opts.Debug,
			AllowOther:     opts.AllowOther,
			SingleThreaded: true,
			FsName:         opts.FsName,
			Name:           "vsfs",
		},
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mount %s: %w", mountpoint, err)
	}

	log.WithFields(logrus.Fields{"mountpoint": mountpoint, "source": opts.FsName}).Info("mounted")
	return server, nil
}
