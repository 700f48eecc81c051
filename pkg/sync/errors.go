package sync

import (
	"fmt"
)

// VerifyError reports a post-copy digest mismatch. The copy syscalls
// succeeded, but the destination content does not match the source, so the
// destination is treated as failed.
type VerifyError struct {
	Path         string
	SourceDigest string
	DestDigest   string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verification failed for %s: source digest %s, destination digest %s",
		e.Path, e.SourceDigest, e.DestDigest)
}
