package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncPlan is computed before any work starts and is immutable afterwards.
// It only exists so observers can report percentage progress.
type SyncPlan struct {
	// Items is the number of source items to process
	Items int

	// TotalBytes is the sum of all source sizes
	TotalBytes int64

	// Destinations is the number of destination roots
	Destinations int
}

// Progress is the cumulative state passed to observers after each item
type Progress struct {
	ItemsDone  int
	ItemsTotal int
	BytesDone  int64
	BytesTotal int64
}

// Action identifies the operation an error occurred in
type Action string

const (
	ActionStat   Action = "stat"
	ActionCopy   Action = "copy"
	ActionVerify Action = "verify"
	ActionDelete Action = "delete"
	ActionHash   Action = "hash"
)

// SyncError records one failure for the final result
type SyncError struct {
	// Path is the source item the error belongs to
	Path string

	// Dest is the destination root involved, empty for source-side errors
	Dest string

	Operation Action
	Error     string
	Timestamp time.Time
}

// SyncStatus represents the overall outcome of a run
type SyncStatus string

const (
	// StatusSuccess indicates every item succeeded on every destination
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates some items failed but others went through
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates every item failed
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the run was stopped by the caller
	StatusCancelled SyncStatus = "cancelled"
)

// ExitCode maps the status to a process exit code
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// SyncResult is the final, cumulative outcome of one Sync invocation
type SyncResult struct {
	// RunID uniquely identifies this invocation in logs and reports
	RunID string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// ItemsCompleted counts items that succeeded on every destination with
	// at least one real copy
	ItemsCompleted int

	// ItemsFailed counts items with at least one destination error
	ItemsFailed int

	// ItemsSkipped counts items already equivalent on every destination
	ItemsSkipped int

	// SourcesDeleted counts sources removed under move semantics
	SourcesDeleted int

	// BytesCopied counts bytes actually written, summed over destinations
	BytesCopied int64

	// Errors lists every failure in processing order
	Errors []SyncError

	// Cancelled is set when the run stopped before processing all items
	Cancelled bool

	Status SyncStatus
}

// NewSyncResult creates an empty result for a run starting now
func NewSyncResult() *SyncResult {
	return &SyncResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		Status:    StatusSuccess,
	}
}

// AddError appends a failure record
func (r *SyncResult) AddError(path, dest string, op Action, err error) {
	r.Errors = append(r.Errors, SyncError{
		Path:      path,
		Dest:      dest,
		Operation: op,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// ItemsProcessed is the total number of items the run handled
func (r *SyncResult) ItemsProcessed() int {
	return r.ItemsCompleted + r.ItemsFailed + r.ItemsSkipped
}

// Finalize computes the end time, duration and overall status
func (r *SyncResult) Finalize() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	switch {
	case r.Cancelled:
		r.Status = StatusCancelled
	case r.ItemsFailed == 0:
		r.Status = StatusSuccess
	case r.ItemsCompleted == 0 && r.ItemsSkipped == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}
