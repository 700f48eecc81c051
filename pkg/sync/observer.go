package sync

import (
	"multisync/pkg/models"
)

// Observer is the callback sink the engine drives during a run. It is
// implemented by the caller (a UI, an API layer, a CLI reporter); the
// engine only ever talks to it through this interface.
//
// Ordering: OnStart fires once before any item. Per item, OnItemStart
// precedes any OnItemProgress calls, and OnItemComplete fires only after
// every destination result for that item is fully resolved, including
// verification. OnProgress fires after each OnItemComplete with cumulative
// counters, strictly in source-list order. OnFinish fires exactly once.
//
// OnItemProgress may be invoked concurrently from the destination fan-out;
// every other hook is invoked from the single item loop.
type Observer interface {
	// OnStart is called once with the computed plan before work begins
	OnStart(plan *models.SyncPlan)

	// OnItemStart is called when an item begins processing
	OnItemStart(item *models.ItemInfo)

	// OnItemProgress reports bytes written so far for the current item,
	// aggregated across destinations
	OnItemProgress(item *models.ItemInfo, bytesSoFar int64)

	// OnItemComplete is called with the fully resolved item result
	OnItemComplete(result *models.ItemResult)

	// OnProgress is called after each item with cumulative counters
	OnProgress(progress models.Progress)

	// OnFinish is called once with the final result
	OnFinish(result *models.SyncResult)
}

// NopObserver is the default Observer; every hook is a no-op. Embed it to
// implement only the hooks you need.
type NopObserver struct{}

// OnStart does nothing
func (NopObserver) OnStart(plan *models.SyncPlan) {}

// OnItemStart does nothing
func (NopObserver) OnItemStart(item *models.ItemInfo) {}

// OnItemProgress does nothing
func (NopObserver) OnItemProgress(item *models.ItemInfo, bytesSoFar int64) {}

// OnItemComplete does nothing
func (NopObserver) OnItemComplete(result *models.ItemResult) {}

// OnProgress does nothing
func (NopObserver) OnProgress(progress models.Progress) {}

// OnFinish does nothing
func (NopObserver) OnFinish(result *models.SyncResult) {}
