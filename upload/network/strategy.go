// Package network implements the transport boundary of the upload engine: the
// transfer strategies, the strategy selector, the HTTP client against the
// upload/delete endpoints and the asset descriptor normalization.
package network

import (
	"context"
	"io"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/editorstack/go-uploader/upload/progress"
)

// Strategy transmits one file and reports progress and lifecycle status
// through callbacks. Implementations guarantee that callbacks fire from the
// goroutine that called Execute, that progress values never decrease within
// one Execute call, and that each call settles with exactly one terminal
// outcome: the returned asset or the returned error.
type Strategy interface {
	// Execute transmits the source and returns the server's asset descriptor.
	Execute(ctx context.Context, src Source) (Asset, error)
	// SetProgressCallback registers the percent callback. Must be called
	// before Execute.
	SetProgressCallback(fn func(percent int))
	// SetStatusCallback registers the status/phase callback. Must be called
	// before Execute.
	SetStatusCallback(fn func(message string, phase progress.Phase))
	// Cleanup releases held buffers and abandons any open transfer session so
	// a later retry starts fresh instead of resuming a half-sent one.
	Cleanup()
	// Name identifies the strategy in logs and analytics.
	Name() string
}

// Selector picks the transfer strategy for a source. Selection is a pure
// function of the source size and the configuration; it always succeeds.
type Selector struct {
	config Config
	client apiClient
	logger log.Logger
}

// NewSelector creates a Selector for the given transfer configuration.
func NewSelector(config Config, logger log.Logger) *Selector {
	cfg := config.withDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newRetryingClient(cfg, logger)
	}

	return &Selector{
		config: cfg,
		client: newAPIClient(httpClient, cfg, logger),
		logger: logger,
	}
}

// Select returns a fresh strategy for the source. Files at or above the
// single-shot threshold go through the chunked strategy; the boundary case
// resolves to chunked. In direct-to-storage mode every file goes to S3.
func (s *Selector) Select(src Source) Strategy {
	if s.config.S3 != nil {
		return &s3Strategy{params: *s.config.S3, logger: s.logger}
	}

	if src.Size() >= s.config.SingleShotSizeThreshold {
		return &chunkedStrategy{
			client:    s.client,
			chunkSize: s.config.ChunkSize,
			fieldName: s.config.FieldName,
			logger:    s.logger,
		}
	}

	return &singleShotStrategy{
		client:    s.client,
		fieldName: s.config.FieldName,
		logger:    s.logger,
	}
}

func newRetryingClient(cfg Config, logger log.Logger) *retryablehttp.Client {
	client := retryhttp.NewClient(logger)
	client.HTTPClient.Timeout = cfg.RequestTimeout
	return client
}

// progressReader reports the share of its payload handed to the transport.
// Seeking back to the start (a transport-level retry rewinding the body)
// resets the counter; the monotonic clamp above this layer keeps the reported
// stream non-decreasing.
type progressReader struct {
	r      io.ReadSeeker
	total  int64
	sent   int64
	report func(percent int)
}

func newProgressReader(r io.ReadSeeker, total int64, report func(percent int)) *progressReader {
	return &progressReader{r: r, total: total, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)
	if p.total > 0 && p.report != nil {
		percent := int(p.sent * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		p.report(percent)
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekStart {
		p.sent = 0
	}
	return p.r.Seek(offset, whence)
}
