package compare

import (
	"context"
	"fmt"
	"os"

	"multisync/pkg/hasher"
	"multisync/pkg/models"
)

// DigestComparator skips only when the source and destination content
// digests match. Correct in the face of rewritten-in-place files, but costs
// a full read of the destination (the source digest is computed once per
// item by the engine and reused here).
type DigestComparator struct {
	hasher *hasher.Hasher
}

// NewDigestComparator creates a content-digest comparator
func NewDigestComparator(h *hasher.Hasher) *DigestComparator {
	return &DigestComparator{hasher: h}
}

// ShouldSkip reports whether destPath holds content identical to the source
func (c *DigestComparator) ShouldSkip(ctx context.Context, item *models.ItemInfo, destPath string) (bool, error) {
	if item.IsDir {
		return false, nil
	}
	if item.Digest == "" {
		return false, fmt.Errorf("source digest not computed for %s", item.SourcePath)
	}

	destInfo, err := os.Stat(destPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if destInfo.IsDir() {
		return false, nil
	}

	// Size mismatch is a cheap rejection before hashing the destination.
	if destInfo.Size() != item.Size {
		return false, nil
	}

	destDigest, err := c.hasher.Digest(ctx, destPath)
	if err != nil {
		return false, err
	}
	return destDigest == item.Digest, nil
}

// Name returns the comparator name
func (c *DigestComparator) Name() string {
	return "hash"
}
