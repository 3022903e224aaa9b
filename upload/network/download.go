package network

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/melbahja/got"
)

// DownloadAsset fetches a previously uploaded asset into a local file. The
// host editor uses it to re-materialize committed media for export or local
// preview.
func DownloadAsset(ctx context.Context, assetURL, destPath string, logger log.Logger) error {
	client := retryhttp.NewClient(logger)

	downloader := got.New()
	downloader.Client = client.StandardClient()

	logger.Debugf("Downloading %s to %s", assetURL, destPath)
	if err := downloader.Do(got.NewDownload(ctx, assetURL, destPath)); err != nil {
		return fmt.Errorf("download asset: %w", err)
	}

	return nil
}
