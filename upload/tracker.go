package upload

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
)

type uploadTracker struct {
	tracker analytics.Tracker
	logger  log.Logger
}

func newUploadTracker(envRepo env.Repository, logger log.Logger) uploadTracker {
	p := analytics.Properties{
		"client_id":  envRepo.Get("UPLOADER_CLIENT_ID"),
		"session_id": envRepo.Get("UPLOADER_SESSION_ID"),
	}
	return uploadTracker{
		tracker: analytics.NewDefaultTracker(logger, p),
		logger:  logger,
	}
}

func (t *uploadTracker) logFileUploaded(strategy string, uploadTime time.Duration, sizeBytes int64) {
	properties := analytics.Properties{
		"strategy":          strategy,
		"upload_time_s":     uploadTime.Truncate(time.Second).Seconds(),
		"upload_size_bytes": sizeBytes,
	}
	t.tracker.Enqueue("uploader_file_uploaded", properties)
}

func (t *uploadTracker) logFileFailed(strategy string, sizeBytes int64, retryCount int) {
	properties := analytics.Properties{
		"strategy":          strategy,
		"upload_size_bytes": sizeBytes,
		"retry_count":       retryCount,
	}
	t.tracker.Enqueue("uploader_file_failed", properties)
}

func (t *uploadTracker) logBatchFinished(succeeded, failed int) {
	properties := analytics.Properties{
		"succeeded_count": succeeded,
		"failed_count":    failed,
	}
	t.tracker.Enqueue("uploader_batch_finished", properties)
}

func (t *uploadTracker) logAssetDeleted(remote bool) {
	properties := analytics.Properties{
		"remote": remote,
	}
	t.tracker.Enqueue("uploader_asset_deleted", properties)
}

func (t *uploadTracker) wait() {
	t.tracker.Wait()
}
