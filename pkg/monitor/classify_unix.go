//go:build unix

package monitor

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// classifyErrno maps OS error codes to an error class. Errors that mean
// the filesystem or device behind the destination is broken are
// store-level; errors scoped to one path are file-specific.
func classifyErrno(errno syscall.Errno) ErrorClass {
	switch errno {
	case unix.EIO, unix.EROFS, unix.ENOTDIR, unix.ENXIO, unix.ENODEV, unix.ESTALE:
		return ClassStoreUnavailable
	case unix.EACCES, unix.EPERM, unix.ENOENT:
		return ClassFileSpecific
	}
	return ClassFileSpecific
}
