package compare

import (
	"context"
	"os"
	"time"

	"multisync/pkg/models"
)

// DefaultModTimeTolerance absorbs filesystem timestamp truncation: FAT
// stores modification times with 2-second granularity, and some network
// filesystems round to whole seconds.
const DefaultModTimeTolerance = time.Second

// SizeTimeComparator skips files whose size matches and whose modification
// times agree within a tolerance. Fast (two stats) but fooled by files
// rewritten with identical size and timestamp.
type SizeTimeComparator struct {
	Tolerance time.Duration
}

// NewSizeTimeComparator creates a size+mtime comparator with the default
// one-second tolerance
func NewSizeTimeComparator() *SizeTimeComparator {
	return &SizeTimeComparator{Tolerance: DefaultModTimeTolerance}
}

// ShouldSkip reports whether destPath matches the source size and mtime
func (c *SizeTimeComparator) ShouldSkip(ctx context.Context, item *models.ItemInfo, destPath string) (bool, error) {
	if item.IsDir {
		// Directory items are always walked; per-file decisions happen
		// inside the recursive copy.
		return false, nil
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

	if destInfo.Size() != item.Size {
		return false, nil
	}

	diff := item.ModTime.Sub(destInfo.ModTime())
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.Tolerance, nil
}

// Name returns the comparator name
func (c *SizeTimeComparator) Name() string {
	return "sizetime"
}
