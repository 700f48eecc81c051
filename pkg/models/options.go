package models

import (
	"multisync/pkg/hasher"
)

// CompareMethod defines how an existing destination file is judged
// equivalent to its source
type CompareMethod string

const (
	// CompareSizeTime skips files whose size matches and whose modification
	// times agree within a small tolerance
	CompareSizeTime CompareMethod = "sizetime"
	// CompareHash skips only when source and destination content digests
	// match; correct but reads both files in full
	CompareHash CompareMethod = "hash"
)

// Valid reports whether the compare method is known
func (m CompareMethod) Valid() bool {
	switch m {
	case CompareSizeTime, CompareHash:
		return true
	}
	return false
}

// Default engine settings
const (
	DefaultStoreThreshold = 3
	DefaultBufferSize     = 256 * 1024
)

// SyncOptions configures a single Sync invocation
type SyncOptions struct {
	// Move deletes sources after every destination confirmed success
	Move bool

	// CompareMethod selects the skip-equivalence strategy
	CompareMethod CompareMethod

	// VerifyDestination re-hashes each destination file after copy and
	// compares it to the source digest
	VerifyDestination bool

	// HashAlgorithm is used for hash comparison and verification
	HashAlgorithm hasher.Algorithm

	// StoreThreshold is the number of consecutive store-level errors after
	// which a destination is abandoned for the rest of the run (0 = default)
	StoreThreshold int

	// BandwidthLimit caps read throughput in bytes per second (0 = unlimited)
	BandwidthLimit int64

	// BufferSize is the chunk size for copies and digests (0 = default)
	BufferSize int

	// DryRun plans, compares and reports without writing or deleting
	DryRun bool
}

// DefaultOptions returns options for a plain copy with sensible defaults
func DefaultOptions() SyncOptions {
	return SyncOptions{
		CompareMethod:  CompareSizeTime,
		HashAlgorithm:  hasher.XXH64,
		StoreThreshold: DefaultStoreThreshold,
		BufferSize:     DefaultBufferSize,
	}
}

// Normalize fills zero values with defaults
func (o *SyncOptions) Normalize() {
	if o.CompareMethod == "" {
		o.CompareMethod = CompareSizeTime
	}
	if o.HashAlgorithm == "" {
		o.HashAlgorithm = hasher.XXH64
	}
	if o.StoreThreshold <= 0 {
		o.StoreThreshold = DefaultStoreThreshold
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
}

// Validate checks if the options are coherent
func (o *SyncOptions) Validate() error {
	if !o.CompareMethod.Valid() {
		return &ValidationError{Field: "CompareMethod", Message: "unknown compare method: " + string(o.CompareMethod)}
	}
	if !o.HashAlgorithm.Valid() {
		return &ValidationError{Field: "HashAlgorithm", Message: "unknown hash algorithm: " + string(o.HashAlgorithm)}
	}
	if o.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit cannot be negative"}
	}
	return nil
}
