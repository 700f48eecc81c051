package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"multisync/pkg/models"
)

func decodeEvents(t *testing.T, buf *bytes.Buffer) []Event {
	t.Helper()
	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJSONObserverEventStream(t *testing.T) {
	var buf bytes.Buffer
	obs := NewJSONObserver(&buf)

	item := &models.ItemInfo{SourcePath: "/src/a.txt", Size: 100}
	obs.OnStart(&models.SyncPlan{Items: 1, TotalBytes: 100, Destinations: 2})
	obs.OnItemStart(item)
	obs.OnItemProgress(item, 50)
	obs.OnItemComplete(&models.ItemResult{
		Item: item,
		Destinations: []models.DestinationResult{
			{DestRoot: "/dst1", BytesCopied: 100, Verified: true},
			{DestRoot: "/dst2", Err: errors.New("disk full")},
		},
		Duration: 20 * time.Millisecond,
	})
	obs.OnProgress(models.Progress{ItemsDone: 1, ItemsTotal: 1, BytesDone: 100, BytesTotal: 100})

	result := models.NewSyncResult()
	result.ItemsFailed = 1
	result.BytesCopied = 100
	result.AddError("/src/a.txt", "/dst2", models.ActionCopy, errors.New("disk full"))
	result.Finalize()
	obs.OnFinish(result)

	events := decodeEvents(t, &buf)
	wantTypes := []string{"start", "item_start", "item_progress", "item_complete", "progress", "finish"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}
}

func TestJSONObserverItemComplete(t *testing.T) {
	var buf bytes.Buffer
	obs := NewJSONObserver(&buf)

	obs.OnItemComplete(&models.ItemResult{
		Item: &models.ItemInfo{SourcePath: "/src/a.txt"},
		Destinations: []models.DestinationResult{
			{DestRoot: "/dst1", Skipped: true},
			{DestRoot: "/dst2", Err: errors.New("permission denied")},
		},
	})

	var ev struct {
		Type string           `json:"type"`
		Data ItemCompleteData `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if ev.Data.Succeeded {
		t.Error("succeeded = true with a failed destination")
	}
	if len(ev.Data.Destinations) != 2 {
		t.Fatalf("got %d destinations, want 2", len(ev.Data.Destinations))
	}
	if !ev.Data.Destinations[0].Skipped {
		t.Error("first destination not marked skipped")
	}
	if ev.Data.Destinations[1].Error != "permission denied" {
		t.Errorf("second destination error = %q, want permission denied", ev.Data.Destinations[1].Error)
	}
}

func TestJSONObserverFinish(t *testing.T) {
	var buf bytes.Buffer
	obs := NewJSONObserver(&buf)

	result := models.NewSyncResult()
	result.ItemsCompleted = 2
	result.ItemsSkipped = 1
	result.BytesCopied = 1234
	result.SourcesDeleted = 2
	result.AddError("/src/x", "/dst", models.ActionVerify, errors.New("digest mismatch"))
	result.Finalize()
	obs.OnFinish(result)

	var ev struct {
		Type string     `json:"type"`
		Data FinishData `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if ev.Data.RunID == "" {
		t.Error("finish event missing run_id")
	}
	if ev.Data.ItemsCompleted != 2 || ev.Data.ItemsSkipped != 1 {
		t.Errorf("counters = %d completed, %d skipped, want 2 and 1", ev.Data.ItemsCompleted, ev.Data.ItemsSkipped)
	}
	if ev.Data.BytesCopied != 1234 {
		t.Errorf("bytes_copied = %d, want 1234", ev.Data.BytesCopied)
	}
	if len(ev.Data.Errors) != 1 || !strings.Contains(ev.Data.Errors[0], "digest mismatch") {
		t.Errorf("errors = %v, want one digest mismatch entry", ev.Data.Errors)
	}
}
