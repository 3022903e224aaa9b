package network

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Defaults for the transfer configuration.
const (
	// DefaultChunkSize is the byte-range size of the chunked strategy.
	DefaultChunkSize = 5 * 1024 * 1024

	// DefaultSingleShotSizeThreshold is the file size at and above which the
	// chunked strategy is selected.
	DefaultSingleShotSizeThreshold = 5 * 1024 * 1024

	// DefaultStorageMarker is the path segment that separates the public URL
	// prefix from the server-relative storage path of an asset.
	DefaultStorageMarker = "/storage/"

	// DefaultRequestTimeout bounds a single upload/delete request. A request
	// exceeding it surfaces as a transport error, same as a network failure.
	DefaultRequestTimeout = 60 * time.Second
)

// Config holds the transfer-side configuration of the upload engine.
type Config struct {
	// UploadURL is the endpoint accepting multipart file and chunk requests.
	UploadURL string
	// DeleteURL is the endpoint accepting asset delete requests.
	DeleteURL string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// FieldName overrides the multipart field name. When empty, the name is
	// derived from the content type ("video" for video/*, "image" otherwise).
	FieldName string
	// ChunkSize is the byte-range size used by the chunked strategy.
	ChunkSize int64
	// SingleShotSizeThreshold selects the chunked strategy for files whose
	// size is greater than or equal to it.
	SingleShotSizeThreshold int64
	// StorageMarker locates the server-relative path inside a public URL.
	StorageMarker string
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// S3, when set, switches the engine to direct-to-storage mode: every file
	// is uploaded straight to the bucket instead of the upload endpoint.
	S3 *S3Params
	// HTTPClient overrides the retrying HTTP client. Used in tests.
	HTTPClient *retryablehttp.Client
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.SingleShotSizeThreshold <= 0 {
		c.SingleShotSizeThreshold = DefaultSingleShotSizeThreshold
	}
	if c.StorageMarker == "" {
		c.StorageMarker = DefaultStorageMarker
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}
