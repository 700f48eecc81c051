// Package monitor tracks consecutive I/O failures per destination root and
// decides when a destination as a whole should be considered gone, e.g. a
// detached external volume or a stale network mount.
package monitor

import (
	"errors"
	"os"
	"sync"
)

// ErrStoreUnavailable marks operations short-circuited because their
// destination crossed the failure threshold earlier in the run.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrorClass distinguishes errors that condemn a whole destination from
// errors scoped to a single file.
type ErrorClass int

const (
	// ClassNone is the class of a nil error
	ClassNone ErrorClass = iota
	// ClassFileSpecific covers errors scoped to one file (permission
	// denied, a single missing file); the rest of the destination is
	// presumed healthy
	ClassFileSpecific
	// ClassStoreUnavailable covers errors that indicate the destination
	// root itself is broken (I/O error, read-only filesystem, missing or
	// invalid root)
	ClassStoreUnavailable
)

// String returns the class name for logs
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassFileSpecific:
		return "file"
	case ClassStoreUnavailable:
		return "store"
	}
	return "unknown"
}

// DefaultThreshold is the number of consecutive store-level errors after
// which a destination is marked unavailable.
const DefaultThreshold = 3

// StoreMonitor keeps a consecutive store-level error streak per destination
// root. It is scoped to a single sync run: create a fresh monitor per
// invocation so unrelated runs cannot cross-contaminate failure streaks.
// Safe for concurrent use by the destination fan-out.
type StoreMonitor struct {
	threshold int

	mu          sync.Mutex
	streaks     map[string]int
	unavailable map[string]bool
}

// New creates a monitor with the given threshold (<=0 uses the default)
func New(threshold int) *StoreMonitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &StoreMonitor{
		threshold:   threshold,
		streaks:     make(map[string]int),
		unavailable: make(map[string]bool),
	}
}

// Record notes the outcome of one operation against destRoot and returns
// the classification applied. A nil error resets the root's streak; only
// store-level errors extend it.
func (m *StoreMonitor) Record(destRoot string, err error) ErrorClass {
	class := m.classify(destRoot, err)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch class {
	case ClassNone:
		m.streaks[destRoot] = 0
	case ClassStoreUnavailable:
		m.streaks[destRoot]++
		if m.streaks[destRoot] >= m.threshold {
			m.unavailable[destRoot] = true
		}
	case ClassFileSpecific:
		// Leaves the streak untouched either way.
	}
	return class
}

// IsUnavailable reports whether destRoot crossed the failure threshold
// earlier in this run
func (m *StoreMonitor) IsUnavailable(destRoot string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unavailable[destRoot]
}

// Unavailable returns every root currently marked unavailable
func (m *StoreMonitor) Unavailable() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roots := make([]string, 0, len(m.unavailable))
	for root := range m.unavailable {
		roots = append(roots, root)
	}
	return roots
}

// classify applies ClassifyError, then upgrades not-found errors to
// store-level when the destination root itself is gone: a single missing
// file is a file problem, a missing root means the volume detached.
func (m *StoreMonitor) classify(destRoot string, err error) ErrorClass {
	class := ClassifyError(err)
	if class == ClassFileSpecific && isNotExist(err) {
		if _, statErr := os.Stat(destRoot); statErr != nil {
			class = ClassStoreUnavailable
		}
	}
	return class
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
