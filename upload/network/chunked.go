package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/editorstack/go-uploader/upload/progress"
)

// TransferSession correlates the chunk requests of one logical file. It is
// created on the first chunk request, destroyed on the final acknowledgment or
// on cleanup, and never outlives the process.
type TransferSession struct {
	// ID is the server-assigned token carried by every chunk after the first.
	ID          string
	ChunkSize   int64
	TotalChunks int
	ChunksSent  int
}

// chunkedStrategy splits the file into fixed-size byte ranges and sends them
// in order, one in-flight request at a time. Progress advances only on chunk
// acknowledgment, so 100 is reached when the final chunk's response arrives.
type chunkedStrategy struct {
	client    apiClient
	chunkSize int64
	fieldName string
	logger    log.Logger

	session     *TransferSession
	onProgress  func(percent int)
	onStatus    func(message string, phase progress.Phase)
	lastPercent int
	buf         []byte
}

func (s *chunkedStrategy) Execute(ctx context.Context, src Source) (Asset, error) {
	if s.session != nil {
		return Asset{}, fmt.Errorf("a transfer session is already active")
	}

	total := src.Size()
	if total <= 0 {
		return Asset{}, fmt.Errorf("%s has no payload", src.Name())
	}
	chunkCount := int((total + s.chunkSize - 1) / s.chunkSize)
	s.session = &TransferSession{
		ChunkSize:   s.chunkSize,
		TotalChunks: chunkCount,
	}

	reader, err := src.Open()
	if err != nil {
		return Asset{}, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Warnf("failed to close %s: %s", src.Name(), err)
		}
	}()

	fieldName := s.fieldName
	if fieldName == "" {
		fieldName = fieldNameFor(src.ContentType())
	}
	isVideo := strings.HasPrefix(src.ContentType(), "video/")
	s.buf = make([]byte, s.chunkSize)

	var final uploadResponse
	for i := 0; i < chunkCount; i++ {
		select {
		case <-ctx.Done():
			return Asset{}, fmt.Errorf("chunk %d upload cancelled: %w", i+1, ctx.Err())
		default:
		}

		n, err := io.ReadFull(reader, s.buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return Asset{}, fmt.Errorf("read chunk %d: %w", i+1, err)
		}
		if n == 0 {
			return Asset{}, fmt.Errorf("unexpected end of payload at chunk %d", i+1)
		}

		s.status(fmt.Sprintf("Uploading chunk %d/%d", i+1, chunkCount), progress.PhaseChunkUpload)
		s.logger.Debugf("Uploading chunk %d/%d (%dB)", i+1, chunkCount, n)

		fields := map[string]string{
			"filename":    src.Name(),
			"chunk_index": strconv.Itoa(i),
			"chunk_count": strconv.Itoa(chunkCount),
			"total_size":  strconv.FormatInt(total, 10),
		}
		if s.session.ID != "" {
			fields["session_id"] = s.session.ID
		}
		body, contentType, err := buildMultipart(fieldName, src.Name(), src.ContentType(), s.buf[:n], fields)
		if err != nil {
			return Asset{}, err
		}

		if i == chunkCount-1 && isVideo {
			// The final chunk's response is held back until the server has
			// assembled and processed the video.
			s.status("Processing video...", progress.PhaseVideoProcessing)
		}

		response, err := s.client.postUpload(ctx, bytes.NewReader(body), contentType, int64(len(body)))
		if err != nil {
			return Asset{}, fmt.Errorf("upload chunk %d/%d: %w", i+1, chunkCount, err)
		}

		if s.session.ID == "" && response.SessionID != "" {
			s.session.ID = response.SessionID
			s.logger.Debugf("Transfer session: %s", s.session.ID)
		}
		s.session.ChunksSent++
		s.report(s.session.ChunksSent * 100 / chunkCount)
		final = response
	}

	asset, err := final.asset()
	if err != nil {
		return Asset{}, err
	}

	return asset, nil
}

func (s *chunkedStrategy) SetProgressCallback(fn func(percent int)) {
	s.onProgress = fn
}

func (s *chunkedStrategy) SetStatusCallback(fn func(message string, phase progress.Phase)) {
	s.onStatus = fn
}

// Cleanup releases the chunk buffer and abandons the session, so a later retry
// opens a fresh session instead of resuming a half-sent one.
func (s *chunkedStrategy) Cleanup() {
	s.buf = nil
	s.session = nil
}

func (s *chunkedStrategy) Name() string {
	return "chunked"
}

func (s *chunkedStrategy) report(percent int) {
	if percent < s.lastPercent {
		return
	}
	s.lastPercent = percent
	if s.onProgress != nil {
		s.onProgress(percent)
	}
}

func (s *chunkedStrategy) status(message string, phase progress.Phase) {
	if s.onStatus != nil {
		s.onStatus(message, phase)
	}
}
