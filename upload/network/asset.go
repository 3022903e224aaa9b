package network

import (
	"bytes"
	"fmt"
)

// Asset is the normalized descriptor of a successfully uploaded file. Optional
// metadata fields are pointers and stay null when the server does not report
// them, so downstream consumers always see a stable shape.
type Asset struct {
	URL         string   `json:"url"`
	Caption     string   `json:"caption"`
	Width       *int     `json:"width"`
	Height      *int     `json:"height"`
	Duration    *float64 `json:"duration"`
	Size        *int64   `json:"size"`
	Format      *string  `json:"format"`
	AspectRatio *float64 `json:"aspect_ratio"`
}

// looseBool accepts the 0/1, "0"/"1" and true/false encodings the upload API
// uses interchangeably for its success flag.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`, `"true"`:
		*b = true
	case "false", "0", `"0"`, `"false"`, "null":
		*b = false
	default:
		return fmt.Errorf("unexpected boolean value: %s", data)
	}
	return nil
}

// uploadResponse is the JSON shape of both single-shot and chunk responses.
// Intermediate chunk responses carry only success and session_id; the final
// chunk's response and the single-shot response carry the completion schema.
type uploadResponse struct {
	Success *looseBool `json:"success"`
	Message string     `json:"message"`
	URL     string     `json:"url"`
	File    *struct {
		URL string `json:"url"`
	} `json:"file"`
	SessionID   string   `json:"session_id"`
	Width       *int     `json:"width"`
	Height      *int     `json:"height"`
	Duration    *float64 `json:"duration"`
	Size        *int64   `json:"size"`
	Format      *string  `json:"format"`
	AspectRatio *float64 `json:"aspect_ratio"`
}

// asset extracts the asset descriptor from a completion response. A body
// without a usable URL is a protocol error even though the HTTP layer reported
// success: a "200 OK but malformed body" must fail the item.
func (r uploadResponse) asset() (Asset, error) {
	url := r.URL
	if url == "" && r.File != nil {
		url = r.File.URL
	}
	if url == "" {
		return Asset{}, &ProtocolError{Message: "upload response contains no asset URL"}
	}

	return Asset{
		URL:         url,
		Width:       r.Width,
		Height:      r.Height,
		Duration:    r.Duration,
		Size:        r.Size,
		Format:      r.Format,
		AspectRatio: r.AspectRatio,
	}, nil
}
