package network

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// testHTTPClient returns a client without transport-level retries so failure
// tests settle immediately.
func testHTTPClient() *retryablehttp.Client {
	client := retryhttp.NewClient(log.NewLogger())
	client.RetryMax = 0
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = time.Millisecond
	return client
}

func testConfig(uploadURL, deleteURL string) Config {
	return Config{
		UploadURL:  uploadURL,
		DeleteURL:  deleteURL,
		HTTPClient: testHTTPClient(),
	}
}
