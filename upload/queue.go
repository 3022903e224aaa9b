// Package upload implements the batch upload engine: per-file validation, the
// sequential queue with its per-item state machine, retry and cancellation,
// result registration and the best-effort deletion of uploaded assets.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/editorstack/go-uploader/upload/network"
	"github.com/editorstack/go-uploader/upload/progress"
)

// Events are the host-facing callbacks of the queue. Any of them may be nil.
// They fire from the goroutine that runs the batch.
type Events struct {
	OnProgress func(itemID string, percent int)
	OnStatus   func(itemID string, message string, phase progress.Phase)
	OnComplete func(itemID string, asset network.Asset)
	OnError    func(itemID string, err error)
	OnCancel   func(itemID string)
}

// StrategySelector picks the transfer strategy for a source.
type StrategySelector interface {
	Select(src network.Source) network.Strategy
}

// FailedItem describes a file that ended the batch in the error state.
type FailedItem struct {
	ID         string
	FileName   string
	Reason     string
	RetryCount int
}

// BatchResult summarizes one HandleUpload or RetryFailed run.
type BatchResult struct {
	Succeeded []network.Asset
	Failed    []FailedItem
}

// ItemView is a read-only snapshot of a queued item.
type ItemView struct {
	ID         string
	FileName   string
	Status     Status
	Progress   int
	Error      string
	RetryCount int
}

// Queue uploads batches of files sequentially. One batch runs at a time;
// failed items stay queued for RetryFailed, succeeded items are committed to
// the registrar and leave the queue.
type Queue struct {
	config    Config
	validator Validator
	registrar *Registrar
	cleaner   *network.Cleaner
	selector  StrategySelector
	tracker   uploadTracker
	notifier  Notifier
	events    Events
	logger    log.Logger

	mu        sync.Mutex
	uploading bool
	items     []*Item
}

// NewQueue creates a Queue. A nil selector falls back to the size-based
// default, a nil notifier to a no-op one.
func NewQueue(cfg Config, envRepo env.Repository, logger log.Logger, events Events, notifier Notifier, selector StrategySelector) *Queue {
	if selector == nil {
		selector = network.NewSelector(cfg.networkConfig(), logger)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	var cleaner *network.Cleaner
	if cfg.DeleteURL != "" {
		cleaner = network.NewCleaner(cfg.networkConfig(), logger)
	}

	return &Queue{
		config: cfg,
		validator: Validator{
			MaxFileSize:     cfg.MaxFileSize,
			AllowedPatterns: cfg.AllowedPatterns,
		},
		registrar: NewRegistrar(logger),
		cleaner:   cleaner,
		selector:  selector,
		tracker:   newUploadTracker(envRepo, logger),
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
}

// Registrar exposes the committed assets of this queue.
func (q *Queue) Registrar() *Registrar {
	return q.registrar
}

// HandleUpload validates the sources, enqueues them and uploads them one after
// another. It returns ErrUploadInFlight when a batch is already running and a
// ValidationError when any source is rejected; a rejected batch enqueues
// nothing. Per-item transfer failures do not fail the batch, they are
// collected in the result.
func (q *Queue) HandleUpload(ctx context.Context, sources []network.Source) (BatchResult, error) {
	for _, src := range sources {
		if err := q.validator.Validate(src); err != nil {
			return BatchResult{}, err
		}
	}

	if err := q.begin(); err != nil {
		return BatchResult{}, err
	}
	defer q.end()

	q.mu.Lock()
	for _, src := range sources {
		q.items = append(q.items, newItem(src))
	}
	q.mu.Unlock()

	return q.run(ctx)
}

// RetryFailed moves every failed item back to pending and runs the batch
// again. Items that already succeeded are not re-sent.
func (q *Queue) RetryFailed(ctx context.Context) (BatchResult, error) {
	if err := q.begin(); err != nil {
		return BatchResult{}, err
	}
	defer q.end()

	q.mu.Lock()
	for _, item := range q.items {
		if item.Status == StatusError {
			if err := item.resetForRetry(); err != nil {
				q.mu.Unlock()
				return BatchResult{}, err
			}
		}
	}
	q.mu.Unlock()

	return q.run(ctx)
}

func (q *Queue) begin() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.uploading {
		return ErrUploadInFlight
	}
	q.uploading = true
	return nil
}

func (q *Queue) end() {
	q.mu.Lock()
	q.uploading = false
	q.mu.Unlock()
}

func (q *Queue) run(ctx context.Context) (BatchResult, error) {
	q.notifier.Busy()
	defer q.notifier.Free()

	for {
		item := q.nextPending()
		if item == nil {
			break
		}
		q.processItem(ctx, item)
	}

	result := q.collect()
	q.tracker.logBatchFinished(len(result.Succeeded), len(result.Failed))
	q.tracker.wait()
	return result, nil
}

func (q *Queue) nextPending() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.Status == StatusPending {
			return item
		}
	}
	return nil
}

// processItem drives one item through a transfer strategy and settles it with
// exactly one outcome: success, error or cancellation.
func (q *Queue) processItem(ctx context.Context, item *Item) {
	q.mu.Lock()
	if err := item.markUploading(); err != nil {
		q.mu.Unlock()
		q.logger.Warnf("Skipping %s: %s", item.Source.Name(), err)
		return
	}
	itemCtx, cancel := context.WithCancel(ctx)
	item.cancel = cancel
	q.mu.Unlock()
	defer cancel()

	strategy := q.selector.Select(item.Source)
	q.logger.Printf("Uploading %s with the %s strategy", item.Source.Name(), strategy.Name())

	bridge := progress.NewBridge(item.Source.Size(), func(percent int) {
		q.mu.Lock()
		item.Progress = percent
		q.mu.Unlock()
		if q.events.OnProgress != nil {
			q.events.OnProgress(item.ID, percent)
		}
	}, func(message string, phase progress.Phase) {
		if q.events.OnStatus != nil {
			q.events.OnStatus(item.ID, message, phase)
		}
	})
	strategy.SetProgressCallback(bridge.Progress)
	strategy.SetStatusCallback(bridge.Status)

	start := time.Now()
	asset, err := strategy.Execute(itemCtx, item.Source)
	strategy.Cleanup()

	if err != nil {
		q.mu.Lock()
		cancelled := item.cancelled
		q.mu.Unlock()
		if cancelled || errors.Is(err, context.Canceled) {
			q.logger.Printf("Upload of %s cancelled", item.Source.Name())
			q.removeItem(item.ID)
			if q.events.OnCancel != nil {
				q.events.OnCancel(item.ID)
			}
			return
		}
		q.failItem(item, strategy.Name(), err)
		return
	}

	committed, err := q.registrar.Commit(asset)
	if err != nil {
		q.failItem(item, strategy.Name(), err)
		return
	}

	q.mu.Lock()
	if err := item.markSuccess(committed); err != nil {
		q.mu.Unlock()
		q.failItem(item, strategy.Name(), err)
		return
	}
	q.mu.Unlock()

	bridge.Status("Upload complete", progress.PhaseComplete)
	if q.events.OnComplete != nil {
		q.events.OnComplete(item.ID, committed)
	}
	q.tracker.logFileUploaded(strategy.Name(), time.Since(start), item.Source.Size())
	q.logger.Donef("Uploaded %s", item.Source.Name())
}

func (q *Queue) failItem(item *Item, strategyName string, err error) {
	q.mu.Lock()
	if markErr := item.markError(err.Error()); markErr != nil {
		q.logger.Warnf("Recording failure of %s: %s", item.Source.Name(), markErr)
	}
	q.mu.Unlock()

	q.logger.Errorf("Upload of %s failed: %s", item.Source.Name(), err)
	if q.events.OnStatus != nil {
		q.events.OnStatus(item.ID, err.Error(), progress.PhaseError)
	}
	if q.events.OnError != nil {
		q.events.OnError(item.ID, err)
	}
	q.tracker.logFileFailed(strategyName, item.Source.Size(), item.RetryCount)
}

// collect partitions the queue after a batch: succeeded items leave the queue
// and contribute their assets, failed items stay for a later retry.
func (q *Queue) collect() BatchResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	var result BatchResult
	var remaining []*Item
	for _, item := range q.items {
		switch item.Status {
		case StatusSuccess:
			result.Succeeded = append(result.Succeeded, item.asset)
		case StatusError:
			result.Failed = append(result.Failed, FailedItem{
				ID:         item.ID,
				FileName:   item.Source.Name(),
				Reason:     item.Error,
				RetryCount: item.RetryCount,
			})
			remaining = append(remaining, item)
		default:
			remaining = append(remaining, item)
		}
	}
	q.items = remaining
	return result
}

// Cancel aborts the item with the given ID. An uploading item is interrupted
// and removed by the batch loop; a pending or failed item is removed
// immediately. Cancellation is not a failure: the item ends without an error
// state. Cancel reports whether the ID matched a cancellable item.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()

	for _, item := range q.items {
		if item.ID != id {
			continue
		}
		switch item.Status {
		case StatusUploading:
			item.cancelled = true
			cancel := item.cancel
			q.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			return true
		case StatusPending, StatusError:
			q.mu.Unlock()
			q.removeItem(id)
			if q.events.OnCancel != nil {
				q.events.OnCancel(id)
			}
			return true
		default:
			q.mu.Unlock()
			return false
		}
	}

	q.mu.Unlock()
	return false
}

func (q *Queue) removeItem(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Items returns a snapshot of the queue.
func (q *Queue) Items() []ItemView {
	q.mu.Lock()
	defer q.mu.Unlock()

	views := make([]ItemView, 0, len(q.items))
	for _, item := range q.items {
		views = append(views, ItemView{
			ID:         item.ID,
			FileName:   item.Source.Name(),
			Status:     item.Status,
			Progress:   item.Progress,
			Error:      item.Error,
			RetryCount: item.RetryCount,
		})
	}
	return views
}

// DeleteAsset removes a committed asset. The local removal always takes
// effect; the remote delete is best effort and a failure there is only
// logged, never surfaced.
func (q *Queue) DeleteAsset(ctx context.Context, assetURL string) error {
	q.notifier.Busy()
	defer q.notifier.Free()

	if !q.registrar.Remove(assetURL) {
		return fmt.Errorf("no committed asset with URL %s", assetURL)
	}

	remote := false
	if q.cleaner != nil {
		if err := q.cleaner.Delete(ctx, assetURL); err != nil {
			q.logger.Warnf("Remote delete of %s failed: %s", assetURL, err)
		} else {
			remote = true
		}
	}

	q.tracker.logAssetDeleted(remote)
	return nil
}
