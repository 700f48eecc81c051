// Package compare decides whether an existing destination file is
// equivalent enough to its source that copying can be skipped.
package compare

import (
	"context"
	"fmt"

	"multisync/pkg/hasher"
	"multisync/pkg/models"
)

// Comparator defines the interface for skip-equivalence strategies.
// ShouldSkip never returns true when the destination path does not exist.
type Comparator interface {
	// ShouldSkip reports whether the file at destPath is already
	// equivalent to the source item
	ShouldSkip(ctx context.Context, item *models.ItemInfo, destPath string) (bool, error)

	// Name returns the name of the comparison method
	Name() string
}

// ForMethod returns the comparator for the given method. The hasher is
// only used by the hash method.
func ForMethod(method models.CompareMethod, h *hasher.Hasher) (Comparator, error) {
	switch method {
	case models.CompareSizeTime:
		return NewSizeTimeComparator(), nil
	case models.CompareHash:
		return NewDigestComparator(h), nil
	}
	return nil, fmt.Errorf("unknown compare method: %q", method)
}
