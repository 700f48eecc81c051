package monitor

import (
	"errors"
	"syscall"
)

// ClassifyError maps an operation error to its class. Classification is
// deliberately conservative: anything unrecognized is treated as
// file-specific so one odd error cannot condemn a healthy destination.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return ClassStoreUnavailable
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return classifyErrno(errno)
	}
	return ClassFileSpecific
}
