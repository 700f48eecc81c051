package output

import (
	"fmt"
	"io"
	gosync "sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"multisync/pkg/models"
	"multisync/pkg/sync"
)

var _ sync.Observer = (*HumanObserver)(nil)

// HumanObserver renders a progress bar and a final summary for interactive
// terminal use.
type HumanObserver struct {
	writer io.Writer

	mu           gosync.Mutex
	bar          *pb.ProgressBar
	destinations int
	baseBytes    int64
}

// NewHumanObserver creates an observer writing to w
func NewHumanObserver(w io.Writer) *HumanObserver {
	return &HumanObserver{writer: w}
}

// OnStart initializes the progress bar from the plan
func (o *HumanObserver) OnStart(plan *models.SyncPlan) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.destinations = plan.Destinations
	fmt.Fprintf(o.writer, "Syncing %d items (%s) to %d destinations\n",
		plan.Items, formatBytes(plan.TotalBytes), plan.Destinations)

	o.bar = pb.New64(plan.TotalBytes)
	o.bar.Set(pb.Bytes, true)
	o.bar.SetWriter(o.writer)
	o.bar.Start()
}

// OnItemStart does nothing; the bar advances on progress and completion
func (o *HumanObserver) OnItemStart(item *models.ItemInfo) {}

// OnItemProgress advances the bar within the current item. The reported
// bytes are aggregated across destinations, so they are scaled down by the
// destination count to stay in plan units.
func (o *HumanObserver) OnItemProgress(item *models.ItemInfo, bytesSoFar int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar == nil || o.destinations == 0 {
		return
	}
	current := o.baseBytes + bytesSoFar/int64(o.destinations)
	if current > o.bar.Total() {
		current = o.bar.Total()
	}
	o.bar.SetCurrent(current)
}

// OnItemComplete moves the bar past the completed item
func (o *HumanObserver) OnItemComplete(result *models.ItemResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.baseBytes += result.Item.Size
	if o.bar != nil {
		o.bar.SetCurrent(o.baseBytes)
	}
}

// OnProgress does nothing; the bar already tracks cumulative bytes
func (o *HumanObserver) OnProgress(progress models.Progress) {}

// OnFinish stops the bar and prints the summary
func (o *HumanObserver) OnFinish(result *models.SyncResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.bar != nil {
		o.bar.Finish()
		o.bar = nil
	}

	fmt.Fprintf(o.writer, "\nSync %s in %s\n", result.Status, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(o.writer, "  Completed:   %d\n", result.ItemsCompleted)
	fmt.Fprintf(o.writer, "  Up to date:  %d\n", result.ItemsSkipped)
	fmt.Fprintf(o.writer, "  Failed:      %d\n", result.ItemsFailed)
	if result.SourcesDeleted > 0 {
		fmt.Fprintf(o.writer, "  Moved:       %d\n", result.SourcesDeleted)
	}
	fmt.Fprintf(o.writer, "  Data copied: %s\n", formatBytes(result.BytesCopied))

	if len(result.Errors) > 0 {
		fmt.Fprintf(o.writer, "\nErrors:\n")
		for _, e := range result.Errors {
			if e.Dest != "" {
				fmt.Fprintf(o.writer, "  %s -> %s: %s\n", e.Path, e.Dest, e.Error)
			} else {
				fmt.Fprintf(o.writer, "  %s: %s\n", e.Path, e.Error)
			}
		}
	}
}

// formatBytes renders a byte count in IEC units
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
