package upload

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/editorstack/go-uploader/upload/network"
)

// Status is the lifecycle state of a queued file.
type Status string

const (
	// StatusPending means the item is enqueued but not yet started.
	StatusPending Status = "pending"
	// StatusUploading means a transfer strategy is driving the item.
	StatusUploading Status = "uploading"
	// StatusSuccess is terminal: the asset is committed.
	StatusSuccess Status = "success"
	// StatusError is terminal but retryable: the failure is recorded.
	StatusError Status = "error"
)

// Item tracks one file through the upload pipeline. It is mutated only by the
// queue and the transfer strategy the queue drives; the ID stays stable for
// the item's lifetime.
type Item struct {
	ID         string
	Source     network.Source
	Status     Status
	Progress   int
	Error      string
	RetryCount int

	asset     network.Asset
	cancel    context.CancelFunc
	cancelled bool
}

func newItem(src network.Source) *Item {
	return &Item{
		ID:     uuid.NewString(),
		Source: src,
		Status: StatusPending,
	}
}

func (i *Item) markUploading() error {
	if i.Status != StatusPending {
		return fmt.Errorf("cannot start uploading from status %q", i.Status)
	}
	i.Status = StatusUploading
	return nil
}

func (i *Item) markSuccess(asset network.Asset) error {
	if i.Status != StatusUploading {
		return fmt.Errorf("cannot succeed from status %q", i.Status)
	}
	i.Status = StatusSuccess
	i.Progress = 100
	i.Error = ""
	i.asset = asset
	return nil
}

func (i *Item) markError(message string) error {
	if i.Status != StatusUploading {
		return fmt.Errorf("cannot fail from status %q", i.Status)
	}
	i.Status = StatusError
	i.Error = message
	return nil
}

// resetForRetry moves a failed item back to pending and counts the attempt.
// There is no transition out of success except removal from the queue.
func (i *Item) resetForRetry() error {
	if i.Status != StatusError {
		return fmt.Errorf("only failed items can be retried, status is %q", i.Status)
	}
	i.Status = StatusPending
	i.Progress = 0
	i.Error = ""
	i.RetryCount++
	return nil
}
