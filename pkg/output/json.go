package output

import (
	"encoding/json"
	"io"
	gosync "sync"
	"time"

	"multisync/pkg/models"
	"multisync/pkg/sync"
)

var _ sync.Observer = (*JSONObserver)(nil)

// JSONObserver emits one JSON object per line for automation and scripting
type JSONObserver struct {
	mu      gosync.Mutex
	encoder *json.Encoder
}

// NewJSONObserver creates an observer writing JSON lines to w
func NewJSONObserver(w io.Writer) *JSONObserver {
	return &JSONObserver{encoder: json.NewEncoder(w)}
}

// Event is a single entry in the JSON output stream
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// PlanData describes the start event payload
type PlanData struct {
	Items        int   `json:"items"`
	TotalBytes   int64 `json:"total_bytes"`
	Destinations int   `json:"destinations"`
}

// ItemData describes item-scoped event payloads
type ItemData struct {
	Path       string `json:"path"`
	Size       int64  `json:"size,omitempty"`
	IsDir      bool   `json:"is_dir,omitempty"`
	BytesSoFar int64  `json:"bytes_so_far,omitempty"`
}

// DestinationData describes one destination outcome
type DestinationData struct {
	Dest        string `json:"dest"`
	Skipped     bool   `json:"skipped,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	BytesCopied int64  `json:"bytes_copied,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ItemCompleteData describes the item_complete event payload
type ItemCompleteData struct {
	Path         string            `json:"path"`
	Succeeded    bool              `json:"succeeded"`
	Destinations []DestinationData `json:"destinations,omitempty"`
	Error        string            `json:"error,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
}

// FinishData describes the finish event payload
type FinishData struct {
	RunID          string   `json:"run_id"`
	Status         string   `json:"status"`
	ItemsCompleted int      `json:"items_completed"`
	ItemsFailed    int      `json:"items_failed"`
	ItemsSkipped   int      `json:"items_skipped"`
	SourcesDeleted int      `json:"sources_deleted,omitempty"`
	BytesCopied    int64    `json:"bytes_copied"`
	Cancelled      bool     `json:"cancelled,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
	Errors         []string `json:"errors,omitempty"`
}

func (o *JSONObserver) emit(eventType string, data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.encoder.Encode(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Data:      data,
	})
}

// OnStart emits the plan
func (o *JSONObserver) OnStart(plan *models.SyncPlan) {
	o.emit("start", PlanData{
		Items:        plan.Items,
		TotalBytes:   plan.TotalBytes,
		Destinations: plan.Destinations,
	})
}

// OnItemStart emits an item_start event
func (o *JSONObserver) OnItemStart(item *models.ItemInfo) {
	o.emit("item_start", ItemData{
		Path:  item.SourcePath,
		Size:  item.Size,
		IsDir: item.IsDir,
	})
}

// OnItemProgress emits an item_progress event
func (o *JSONObserver) OnItemProgress(item *models.ItemInfo, bytesSoFar int64) {
	o.emit("item_progress", ItemData{
		Path:       item.SourcePath,
		Size:       item.Size,
		BytesSoFar: bytesSoFar,
	})
}

// OnItemComplete emits the fully resolved item outcome
func (o *JSONObserver) OnItemComplete(result *models.ItemResult) {
	data := ItemCompleteData{
		Path:       result.Item.SourcePath,
		Succeeded:  result.AllSucceeded(),
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		data.Error = result.Err.Error()
	}
	for i := range result.Destinations {
		dest := &result.Destinations[i]
		dd := DestinationData{
			Dest:        dest.DestRoot,
			Skipped:     dest.Skipped,
			Verified:    dest.Verified,
			BytesCopied: dest.BytesCopied,
		}
		if dest.Err != nil {
			dd.Error = dest.Err.Error()
		}
		data.Destinations = append(data.Destinations, dd)
	}
	o.emit("item_complete", data)
}

// OnProgress emits cumulative counters
func (o *JSONObserver) OnProgress(progress models.Progress) {
	o.emit("progress", progress)
}

// OnFinish emits the final result
func (o *JSONObserver) OnFinish(result *models.SyncResult) {
	data := FinishData{
		RunID:          result.RunID,
		Status:         string(result.Status),
		ItemsCompleted: result.ItemsCompleted,
		ItemsFailed:    result.ItemsFailed,
		ItemsSkipped:   result.ItemsSkipped,
		SourcesDeleted: result.SourcesDeleted,
		BytesCopied:    result.BytesCopied,
		Cancelled:      result.Cancelled,
		DurationMs:     result.Duration.Milliseconds(),
	}
	for _, e := range result.Errors {
		msg := e.Path + ": " + e.Error
		if e.Dest != "" {
			msg = e.Path + " -> " + e.Dest + ": " + e.Error
		}
		data.Errors = append(data.Errors, msg)
	}
	o.emit("finish", data)
}
