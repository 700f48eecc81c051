//go:build !unix

package monitor

import "syscall"

// classifyErrno is the conservative fallback for platforms without unix
// errno semantics: every OS error is treated as file-specific, so a
// destination is only condemned via the missing-root upgrade in classify.
func classifyErrno(errno syscall.Errno) ErrorClass {
	return ClassFileSpecific
}
