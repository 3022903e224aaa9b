package network

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/editorstack/go-uploader/upload/progress"
)

// singleShotStrategy transmits the whole file in one multipart request.
// Progress is derived from the transport's byte-sent counter over the request
// body.
type singleShotStrategy struct {
	client    apiClient
	fieldName string
	logger    log.Logger

	onProgress  func(percent int)
	onStatus    func(message string, phase progress.Phase)
	lastPercent int
	body        []byte
}

func (s *singleShotStrategy) Execute(ctx context.Context, src Source) (Asset, error) {
	name := src.Name()
	s.status(fmt.Sprintf("Uploading %s", name), progress.PhaseSingleUpload)

	reader, err := src.Open()
	if err != nil {
		return Asset{}, fmt.Errorf("open %s: %w", name, err)
	}
	payload, err := io.ReadAll(reader)
	closeErr := reader.Close()
	if err != nil {
		return Asset{}, fmt.Errorf("read %s: %w", name, err)
	}
	if closeErr != nil {
		s.logger.Warnf("failed to close %s: %s", name, closeErr)
	}

	fieldName := s.fieldName
	if fieldName == "" {
		fieldName = fieldNameFor(src.ContentType())
	}
	body, contentType, err := buildMultipart(fieldName, name, src.ContentType(), payload, map[string]string{
		"filename": name,
	})
	if err != nil {
		return Asset{}, err
	}
	s.body = body

	response, err := s.client.postUpload(ctx, newProgressReader(bytes.NewReader(body), int64(len(body)), s.report), contentType, int64(len(body)))
	if err != nil {
		return Asset{}, err
	}

	asset, err := response.asset()
	if err != nil {
		return Asset{}, err
	}

	s.report(100)
	return asset, nil
}

func (s *singleShotStrategy) SetProgressCallback(fn func(percent int)) {
	s.onProgress = fn
}

func (s *singleShotStrategy) SetStatusCallback(fn func(message string, phase progress.Phase)) {
	s.onStatus = fn
}

// Cleanup releases the buffered request body.
func (s *singleShotStrategy) Cleanup() {
	s.body = nil
}

func (s *singleShotStrategy) Name() string {
	return "single-shot"
}

// report drops values below the high-water mark so a rewound transport retry
// never reports decreasing progress.
func (s *singleShotStrategy) report(percent int) {
	if percent < s.lastPercent {
		return
	}
	s.lastPercent = percent
	if s.onProgress != nil {
		s.onProgress(percent)
	}
}

func (s *singleShotStrategy) status(message string, phase progress.Phase) {
	if s.onStatus != nil {
		s.onStatus(message, phase)
	}
}
