package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

type deleteRequest struct {
	Path string `json:"path"`
}

type apiClient struct {
	httpClient *retryablehttp.Client
	uploadURL  string
	deleteURL  string
	token      string
	logger     log.Logger
}

func newAPIClient(client *retryablehttp.Client, cfg Config, logger log.Logger) apiClient {
	return apiClient{
		httpClient: client,
		uploadURL:  cfg.UploadURL,
		deleteURL:  cfg.DeleteURL,
		token:      cfg.Token,
		logger:     logger,
	}
}

// postUpload sends a prepared multipart body to the upload endpoint and
// decodes the response. The body must be seekable so the retrying transport
// can rewind it.
func (c apiClient) postUpload(ctx context.Context, body io.ReadSeeker, contentType string, size int64) (uploadResponse, error) {
	req, err := retryablehttp.NewRequest(http.MethodPost, c.uploadURL, body)
	if err != nil {
		return uploadResponse{}, fmt.Errorf("create upload request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.ContentLength = size

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return uploadResponse{}, fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		return uploadResponse{}, &TransportError{Message: err.Error()}
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return uploadResponse{}, &TransportError{Message: fmt.Sprintf("read upload response: %s", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return uploadResponse{}, unwrapError(resp.StatusCode, respBody)
	}

	var response uploadResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return uploadResponse{}, &ProtocolError{Message: fmt.Sprintf("decode upload response: %s", err)}
	}

	if response.Success != nil && !bool(*response.Success) {
		message := response.Message
		if message == "" {
			message = "upload rejected by server"
		}
		return uploadResponse{}, &TransportError{Message: message}
	}

	return response, nil
}

// deleteAsset issues a delete request for a server-relative path. The response
// status alone determines success.
func (c apiClient) deleteAsset(ctx context.Context, path string) error {
	payload, err := json.Marshal(deleteRequest{Path: path})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodDelete, c.deleteURL, payload)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("delete cancelled: %w", ctx.Err())
		}
		return &TransportError{Message: err.Error()}
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return unwrapError(resp.StatusCode, respBody)
	}

	return nil
}

func unwrapError(statusCode int, body []byte) error {
	return &TransportError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart assembles a multipart/form-data body carrying the plain form
// fields followed by one file part. Fields are written in sorted order so the
// body is deterministic.
func buildMultipart(fieldName, fileName, contentType string, payload []byte, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, fields[name]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldName), quoteEscaper.Replace(fileName)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// fieldNameFor returns the multipart field name the server expects for the
// given content type.
func fieldNameFor(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "image"
}
