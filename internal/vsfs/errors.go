package vsfs

import (
	"errors"
	"syscall"
)

// Error kinds returned by the operations. Callers match them with errors.Is.
var (
	ErrNameTooLong   = errors.New("name too long")
	ErrNotFound      = errors.New("no such file")
	ErrNoSpace       = errors.New("no space left on image")
	ErrFileTooBig    = errors.New("file too big")
	ErrInvalidFormat = errors.New("invalid vsfs image")
	ErrNoBuffer      = errors.New("no buffer space for directory entries")
	ErrExist         = errors.New("file exists")
	ErrIsDir         = errors.New("is a directory")
	ErrNotDir        = errors.New("not a directory")
	ErrInvalid       = errors.New("invalid argument")
)

var errnoTable = []struct {
	err   error
	errno syscall.Errno
}{
	{ErrNameTooLong, syscall.ENAMETOOLONG},
	{ErrNotFound, syscall.ENOENT},
	{ErrNoSpace, syscall.ENOSPC},
	{ErrFileTooBig, syscall.EFBIG},
	{ErrInvalidFormat, syscall.EINVAL},
	{ErrNoBuffer, syscall.ENOBUFS},
	{ErrExist, syscall.EEXIST},
	{ErrIsDir, syscall.EISDIR},
	{ErrNotDir, syscall.ENOTDIR},
	{ErrInvalid, syscall.EINVAL},
}

// Errno converts an error returned by an operation into the errno a
// file system host reports. A nil error maps to 0 and unknown errors to EIO.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	for _, e := range errnoTable {
		if errors.Is(err, e.err) {
			return e.errno
		}
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
