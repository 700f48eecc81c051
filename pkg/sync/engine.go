// Package sync implements the multi-destination synchronization engine: it
// copies or moves a set of source paths to one or more destination
// directories in parallel, optionally verifies the results, and deletes
// sources only when every destination confirmed success.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"multisync/pkg/compare"
	"multisync/pkg/fileops"
	"multisync/pkg/hasher"
	"multisync/pkg/logging"
	"multisync/pkg/models"
	"multisync/pkg/monitor"
	"multisync/pkg/ratelimit"
)

// Engine orchestrates sync runs. It is stateless between invocations: all
// per-run state (plan, counters, store monitor) is created inside Sync and
// discarded when it returns, so one engine can serve unrelated runs.
type Engine struct {
	observer Observer
	logger   logging.Logger

	// afterCopy runs between a destination copy and its verification.
	// Test hook only.
	afterCopy func(destPath string)
}

// New creates an engine driving the given observer. A nil observer or
// logger is replaced with a no-op implementation.
func New(observer Observer, logger logging.Logger) *Engine {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		observer: observer,
		logger:   logger,
	}
}

// run bundles the state of one Sync invocation
type run struct {
	opts         models.SyncOptions
	destinations []string
	hasher       *hasher.Hasher
	comparator   compare.Comparator
	monitor      *monitor.StoreMonitor
	limiter      *ratelimit.Limiter
}

// Sync copies every source to every destination. Items are processed
// sequentially in source order; within an item, all destinations are
// written concurrently. The returned result is best-effort complete even
// under partial failure; only invalid arguments produce a synchronous
// error before any work starts.
//
// Cancellation via ctx is cooperative: it is checked between items, and
// in-flight destination writes for the current item are allowed to finish
// so no partial files are left behind. Under move semantics, sources whose
// items fully succeeded before cancellation are still deleted.
func (e *Engine) Sync(ctx context.Context, sources, destinations []string, opts models.SyncOptions) (*models.SyncResult, error) {
	if err := validateInputs(sources, destinations); err != nil {
		return nil, err
	}
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLimiter(opts.BandwidthLimit)
	h := hasher.New(opts.HashAlgorithm, opts.BufferSize)
	if limiter != nil {
		h.SetReaderWrapper(func(reader io.Reader) io.Reader {
			return ratelimit.NewReader(ctx, reader, limiter)
		})
	}

	comparator, err := compare.ForMethod(opts.CompareMethod, h)
	if err != nil {
		return nil, err
	}

	r := &run{
		opts:         opts,
		destinations: destinations,
		hasher:       h,
		comparator:   comparator,
		monitor:      monitor.New(opts.StoreThreshold),
		limiter:      limiter,
	}

	plan := buildPlan(sources, destinations)
	result := models.NewSyncResult()

	e.logger.Info(ctx, "starting sync run", logging.Fields{
		"run_id":       result.RunID,
		"items":        plan.Items,
		"total_bytes":  plan.TotalBytes,
		"destinations": len(destinations),
		"move":         opts.Move,
		"compare":      string(opts.CompareMethod),
		"verify":       opts.VerifyDestination,
		"dry_run":      opts.DryRun,
	})
	e.observer.OnStart(plan)

	var pendingDelete []string
	var bytesDone int64

	for _, src := range sources {
		if ctx.Err() != nil {
			result.Cancelled = true
			e.logger.Warn(ctx, "sync run cancelled", logging.Fields{"run_id": result.RunID})
			break
		}

		itemResult := e.syncItem(ctx, r, src)
		e.recordItem(result, itemResult)
		e.observer.OnItemComplete(itemResult)

		bytesDone += itemResult.Item.Size
		e.observer.OnProgress(models.Progress{
			ItemsDone:  result.ItemsProcessed(),
			ItemsTotal: plan.Items,
			BytesDone:  bytesDone,
			BytesTotal: plan.TotalBytes,
		})

		// Deletion is deferred to the end of the batch so an interrupted
		// run cannot leave some sources of the batch deleted and others
		// not while copies are still outstanding.
		if opts.Move && !opts.DryRun && itemResult.AllSucceeded() {
			pendingDelete = append(pendingDelete, src)
		}
	}

	e.flushDeletes(ctx, result, pendingDelete)

	result.Finalize()
	e.logger.Info(ctx, "sync run finished", logging.Fields{
		"run_id":          result.RunID,
		"status":          string(result.Status),
		"items_completed": result.ItemsCompleted,
		"items_failed":    result.ItemsFailed,
		"items_skipped":   result.ItemsSkipped,
		"bytes_copied":    result.BytesCopied,
		"duration":        result.Duration.String(),
	})
	e.observer.OnFinish(result)
	return result, nil
}

// syncItem processes one source item: stat, optional digest, then a
// concurrent fan-out to every destination. The returned result is fully
// resolved, including verification, before this function returns.
func (e *Engine) syncItem(ctx context.Context, r *run, src string) *models.ItemResult {
	start := time.Now()

	stat, err := fileops.Stat(src)
	if err != nil {
		return &models.ItemResult{
			Item:     &models.ItemInfo{SourcePath: src},
			Err:      fmt.Errorf("failed to stat source %s: %w", src, err),
			Duration: time.Since(start),
		}
	}

	item := &models.ItemInfo{
		SourcePath: src,
		Size:       stat.Size,
		ModTime:    stat.ModTime,
		IsDir:      stat.IsDir,
	}
	if item.IsDir {
		if size, err := fileops.TreeSize(src); err == nil {
			item.Size = size
		}
	}
	e.observer.OnItemStart(item)

	// The digest is computed once per item and shared by every destination
	// that needs it, never recomputed per destination.
	needDigest := r.opts.CompareMethod == models.CompareHash || r.opts.VerifyDestination
	if needDigest && !item.IsDir {
		digest, err := r.hasher.Digest(ctx, src)
		if err != nil {
			return &models.ItemResult{
				Item:     item,
				Err:      fmt.Errorf("failed to hash source %s: %w", src, err),
				Duration: time.Since(start),
			}
		}
		item.Digest = digest
	}

	results := make([]models.DestinationResult, len(r.destinations))
	var progress atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(len(r.destinations))
	for i, destRoot := range r.destinations {
		i, destRoot := i, destRoot
		g.Go(func() error {
			// Failures are captured per destination, never returned:
			// one broken destination must not cancel its siblings.
			results[i] = e.syncToDestination(ctx, r, item, destRoot, &progress)
			return nil
		})
	}
	g.Wait()

	return &models.ItemResult{
		Item:         item,
		Destinations: results,
		Duration:     time.Since(start),
	}
}

// syncToDestination syncs one item to one destination root
func (e *Engine) syncToDestination(ctx context.Context, r *run, item *models.ItemInfo, destRoot string, progress *atomic.Int64) models.DestinationResult {
	res := models.DestinationResult{
		DestRoot: destRoot,
		DestPath: filepath.Join(destRoot, filepath.Base(item.SourcePath)),
	}

	// A destination that crossed the failure threshold earlier in this run
	// is not retried: remaining work against it fails immediately instead
	// of hammering a dead path. Short-circuits are not recorded in the
	// monitor since no I/O was attempted.
	if r.monitor.IsUnavailable(destRoot) {
		res.Err = fmt.Errorf("%w: %s", monitor.ErrStoreUnavailable, destRoot)
		return res
	}

	skip, err := r.comparator.ShouldSkip(ctx, item, res.DestPath)
	if err != nil {
		res.Err = fmt.Errorf("failed to compare with %s: %w", res.DestPath, err)
		e.record(ctx, r, destRoot, res.Err)
		return res
	}
	if skip {
		res.Skipped = true
		e.record(ctx, r, destRoot, nil)
		e.logger.Debug(ctx, "destination already up to date", logging.Fields{
			"source": item.SourcePath,
			"dest":   res.DestPath,
		})
		return res
	}

	if r.opts.DryRun {
		e.record(ctx, r, destRoot, nil)
		return res
	}

	copyOpts := fileops.CopyOptions{
		BufferSize: r.opts.BufferSize,
		Limiter:    r.limiter,
	}
	var lastReported int64
	copyOpts.OnProgress = func(written int64) {
		delta := written - lastReported
		lastReported = written
		e.observer.OnItemProgress(item, progress.Add(delta))
	}

	var copyErr error
	if item.IsDir {
		res.BytesCopied, copyErr = fileops.CopyTree(ctx, item.SourcePath, res.DestPath, copyOpts)
	} else {
		res.BytesCopied, copyErr = fileops.Copy(ctx, item.SourcePath, res.DestPath, copyOpts)
	}
	if copyErr != nil {
		res.Err = copyErr
		e.record(ctx, r, destRoot, copyErr)
		return res
	}

	if e.afterCopy != nil {
		e.afterCopy(res.DestPath)
	}

	if r.opts.VerifyDestination && !item.IsDir {
		destDigest, err := r.hasher.Digest(ctx, res.DestPath)
		if err != nil {
			res.Err = fmt.Errorf("failed to verify %s: %w", res.DestPath, err)
			e.record(ctx, r, destRoot, res.Err)
			return res
		}
		if destDigest != item.Digest {
			res.Err = &VerifyError{
				Path:         res.DestPath,
				SourceDigest: item.Digest,
				DestDigest:   destDigest,
			}
			e.record(ctx, r, destRoot, res.Err)
			return res
		}
		res.Verified = true
	}

	e.record(ctx, r, destRoot, nil)
	return res
}

// record feeds one destination outcome to the store monitor and logs the
// transition when a destination crosses the failure threshold.
func (e *Engine) record(ctx context.Context, r *run, destRoot string, err error) {
	class := r.monitor.Record(destRoot, err)
	if class == monitor.ClassStoreUnavailable && r.monitor.IsUnavailable(destRoot) {
		e.logger.Warn(ctx, "destination marked unavailable", logging.Fields{
			"dest": destRoot,
		})
	}
}

// recordItem folds one item result into the cumulative counters and error
// list. An item counts as skipped only when every destination was already
// equivalent; any destination error marks the whole item failed.
func (e *Engine) recordItem(result *models.SyncResult, itemResult *models.ItemResult) {
	src := itemResult.Item.SourcePath

	if itemResult.Err != nil {
		result.AddError(src, "", models.ActionStat, itemResult.Err)
	}
	for i := range itemResult.Destinations {
		dest := &itemResult.Destinations[i]
		if dest.Err == nil {
			continue
		}
		op := models.ActionCopy
		var verifyErr *VerifyError
		if errors.As(dest.Err, &verifyErr) {
			op = models.ActionVerify
		}
		result.AddError(src, dest.DestRoot, op, dest.Err)
	}

	switch {
	case itemResult.AnyFailed():
		result.ItemsFailed++
	case itemResult.AllSkipped():
		result.ItemsSkipped++
	default:
		result.ItemsCompleted++
	}
	result.BytesCopied += itemResult.BytesCopied()
}

// flushDeletes removes the sources of fully succeeded items under move
// semantics. Delete failures are recorded but do not disturb the already
// reported copy outcomes.
func (e *Engine) flushDeletes(ctx context.Context, result *models.SyncResult, pendingDelete []string) {
	for _, src := range pendingDelete {
		if err := fileops.Delete(src); err != nil {
			result.AddError(src, "", models.ActionDelete, err)
			e.logger.Error(ctx, "failed to delete source after move", err, logging.Fields{
				"source": src,
			})
			continue
		}
		result.SourcesDeleted++
		e.logger.Debug(ctx, "deleted source after move", logging.Fields{"source": src})
	}
}

// buildPlan stats every source up front to compute the byte total used for
// percentage progress. Sources that cannot be stat'ed contribute zero here
// and surface their error during item processing.
func buildPlan(sources, destinations []string) *models.SyncPlan {
	plan := &models.SyncPlan{
		Items:        len(sources),
		Destinations: len(destinations),
	}
	for _, src := range sources {
		stat, err := fileops.Stat(src)
		if err != nil {
			continue
		}
		if stat.IsDir {
			if size, err := fileops.TreeSize(src); err == nil {
				plan.TotalBytes += size
			}
			continue
		}
		plan.TotalBytes += stat.Size
	}
	return plan
}

func validateInputs(sources, destinations []string) error {
	if len(sources) == 0 {
		return &models.ValidationError{Field: "sources", Message: "at least one source is required"}
	}
	if len(destinations) == 0 {
		return &models.ValidationError{Field: "destinations", Message: "at least one destination is required"}
	}
	for _, src := range sources {
		if !filepath.IsAbs(src) {
			return &models.ValidationError{Field: "sources", Message: "source path must be absolute: " + src}
		}
	}
	for _, dest := range destinations {
		if !filepath.IsAbs(dest) {
			return &models.ValidationError{Field: "destinations", Message: "destination path must be absolute: " + dest}
		}
	}
	return nil
}
