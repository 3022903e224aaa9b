package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Cleaner reverses successful uploads: it translates a stored public URL back
// into a server-relative path and issues a delete request for it.
type Cleaner struct {
	client apiClient
	marker string
	logger log.Logger
}

// NewCleaner creates a Cleaner for the given transfer configuration.
func NewCleaner(config Config, logger log.Logger) *Cleaner {
	cfg := config.withDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newRetryingClient(cfg, logger)
	}

	return &Cleaner{
		client: newAPIClient(httpClient, cfg, logger),
		marker: cfg.StorageMarker,
		logger: logger,
	}
}

// Delete removes the backing resource of an asset. The response status alone
// determines success.
func (c *Cleaner) Delete(ctx context.Context, assetURL string) error {
	path, err := relativePath(assetURL, c.marker)
	if err != nil {
		return err
	}

	c.logger.Debugf("Deleting %s", path)
	return c.client.deleteAsset(ctx, path)
}

// relativePath locates the storage marker in a public URL and strips
// everything up to and including it.
func relativePath(assetURL, marker string) (string, error) {
	idx := strings.Index(assetURL, marker)
	if idx < 0 {
		return "", &ProtocolError{Message: fmt.Sprintf("no storage marker %q in URL %s", marker, assetURL)}
	}
	path := assetURL[idx+len(marker):]
	if path == "" {
		return "", &ProtocolError{Message: fmt.Sprintf("empty storage path in URL %s", assetURL)}
	}
	return path, nil
}
