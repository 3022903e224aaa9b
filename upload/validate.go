package upload

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"

	"github.com/editorstack/go-uploader/upload/network"
)

// Validator runs the client-side checks on sources before they are enqueued.
type Validator struct {
	// MaxFileSize rejects larger files. Zero means unlimited.
	MaxFileSize int64
	// AllowedPatterns are doublestar patterns matched against the file name.
	// An empty list allows everything.
	AllowedPatterns []string
}

// Validate returns a ValidationError when the source must not be uploaded.
func (v Validator) Validate(src network.Source) error {
	if src.Size() <= 0 {
		return &ValidationError{FileName: src.Name(), Reason: "file is empty"}
	}

	if v.MaxFileSize > 0 && src.Size() > v.MaxFileSize {
		return &ValidationError{
			FileName: src.Name(),
			Reason:   fmt.Sprintf("file is larger than %s", units.BytesSize(float64(v.MaxFileSize))),
		}
	}

	if len(v.AllowedPatterns) == 0 {
		return nil
	}
	for _, pattern := range v.AllowedPatterns {
		ok, err := doublestar.Match(pattern, src.Name())
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			return nil
		}
	}

	return &ValidationError{FileName: src.Name(), Reason: "file type is not allowed"}
}
