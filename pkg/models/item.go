package models

import (
	"time"
)

// FileStat holds the metadata the engine needs about one path
type FileStat struct {
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	Permissions uint32
}

// ItemInfo describes one source item being synchronized. It lives for the
// duration of a single item's fan-out and is discarded afterwards.
type ItemInfo struct {
	// SourcePath is the absolute path of the source item
	SourcePath string

	// Size is the byte size of the item (for directories, the sum of all
	// contained regular files)
	Size int64

	// ModTime is the source modification time
	ModTime time.Time

	// IsDir indicates the item is a directory synced recursively
	IsDir bool

	// Digest is the hex content digest of the source, computed at most once
	// per item and shared by all destinations. Empty when neither hash
	// comparison nor verification was requested.
	Digest string
}

// DestinationResult is the outcome of syncing one item to one destination
type DestinationResult struct {
	// DestRoot is the destination directory the item was fanned out to
	DestRoot string

	// DestPath is the item's resolved path inside the destination
	DestPath string

	// Skipped indicates the destination already held an equivalent file
	Skipped bool

	// Verified indicates the post-copy digest check passed
	Verified bool

	// BytesCopied is the number of bytes actually written to this
	// destination (zero for skips)
	BytesCopied int64

	// Err is nil on success
	Err error
}

// Failed reports whether this destination ended in an error
func (r *DestinationResult) Failed() bool {
	return r.Err != nil
}

// ItemResult aggregates one item's outcome across all destinations
type ItemResult struct {
	Item *ItemInfo

	// Destinations holds one result per destination, in destination order
	Destinations []DestinationResult

	// Err is set when the item failed before any destination work started
	// (e.g. the source could not be stat'ed or hashed)
	Err error

	Duration time.Duration
}

// AllSucceeded reports whether every destination either copied the item or
// held an equivalent file already. Only items for which this holds may have
// their source deleted under move semantics.
func (r *ItemResult) AllSucceeded() bool {
	if r.Err != nil || len(r.Destinations) == 0 {
		return false
	}
	for i := range r.Destinations {
		if r.Destinations[i].Err != nil {
			return false
		}
	}
	return true
}

// AnyFailed reports whether at least one destination ended in an error
func (r *ItemResult) AnyFailed() bool {
	if r.Err != nil {
		return true
	}
	for i := range r.Destinations {
		if r.Destinations[i].Err != nil {
			return true
		}
	}
	return false
}

// AllSkipped reports whether every destination was already equivalent
func (r *ItemResult) AllSkipped() bool {
	if r.Err != nil || len(r.Destinations) == 0 {
		return false
	}
	for i := range r.Destinations {
		if !r.Destinations[i].Skipped {
			return false
		}
	}
	return true
}

// BytesCopied sums the bytes written across all destinations
func (r *ItemResult) BytesCopied() int64 {
	var total int64
	for i := range r.Destinations {
		total += r.Destinations[i].BytesCopied
	}
	return total
}
