package upload

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"

	"github.com/editorstack/go-uploader/upload/network"
)

// Config is the engine configuration shared by the queue, the strategies and
// the deletion protocol.
type Config struct {
	// UploadURL is the endpoint accepting file and chunk uploads. Required.
	UploadURL string
	// DeleteURL is the endpoint accepting delete requests. When empty,
	// deletion is local-only.
	DeleteURL string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// FieldName overrides the multipart field name.
	FieldName string
	// SingleShotSizeThreshold selects the chunked strategy for files at or
	// above it.
	SingleShotSizeThreshold int64
	// ChunkSize is the byte-range size of the chunked strategy.
	ChunkSize int64
	// MaxFileSize rejects larger files before enqueue. Zero means unlimited.
	MaxFileSize int64
	// AllowedPatterns restrict accepted file names. Empty allows everything.
	AllowedPatterns []string
	// StorageMarker locates the server-relative path inside a public URL.
	StorageMarker string
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// S3, when set, switches to direct-to-storage uploads.
	S3 *network.S3Params
}

// CreateConfig reads the engine configuration from the environment. Sizes
// accept human-readable values like "5MB".
func CreateConfig(envRepo env.Repository) (Config, error) {
	uploadURL := envRepo.Get("UPLOADER_UPLOAD_URL")
	if uploadURL == "" {
		return Config{}, fmt.Errorf("the variable 'UPLOADER_UPLOAD_URL' is not defined")
	}

	threshold, err := parseSize(envRepo.Get("UPLOADER_SINGLE_SHOT_THRESHOLD"), network.DefaultSingleShotSizeThreshold)
	if err != nil {
		return Config{}, err
	}
	chunkSize, err := parseSize(envRepo.Get("UPLOADER_CHUNK_SIZE"), network.DefaultChunkSize)
	if err != nil {
		return Config{}, err
	}
	maxFileSize, err := parseSize(envRepo.Get("UPLOADER_MAX_FILE_SIZE"), 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		UploadURL:               uploadURL,
		DeleteURL:               envRepo.Get("UPLOADER_DELETE_URL"),
		Token:                   envRepo.Get("UPLOADER_ACCESS_TOKEN"),
		SingleShotSizeThreshold: threshold,
		ChunkSize:               chunkSize,
		MaxFileSize:             maxFileSize,
		AllowedPatterns:         splitPatterns(envRepo.Get("UPLOADER_ALLOWED_PATTERNS")),
		StorageMarker:           envRepo.Get("UPLOADER_STORAGE_MARKER"),
	}, nil
}

func (c Config) networkConfig() network.Config {
	return network.Config{
		UploadURL:               c.UploadURL,
		DeleteURL:               c.DeleteURL,
		Token:                   c.Token,
		FieldName:               c.FieldName,
		ChunkSize:               c.ChunkSize,
		SingleShotSizeThreshold: c.SingleShotSizeThreshold,
		StorageMarker:           c.StorageMarker,
		RequestTimeout:          c.RequestTimeout,
		S3:                      c.S3,
	}
}

func parseSize(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	size, err := units.RAMInBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	return size, nil
}

func splitPatterns(value string) []string {
	if value == "" {
		return nil
	}
	var patterns []string
	for _, pattern := range strings.Split(value, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}
