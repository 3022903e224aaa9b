package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editorstack/go-uploader/upload/network"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		validator  Validator
		source     network.Source
		wantReason string
	}{
		{
			name:      "no limits accepts anything",
			validator: Validator{},
			source:    network.NewBytesSource("anything.bin", "", []byte("payload")),
		},
		{
			name:       "empty file is rejected",
			validator:  Validator{},
			source:     network.NewBytesSource("empty.png", "image/png", nil),
			wantReason: "file is empty",
		},
		{
			name:       "file over the size limit is rejected",
			validator:  Validator{MaxFileSize: 4},
			source:     network.NewBytesSource("big.png", "image/png", []byte("payload")),
			wantReason: "file is larger than 4B",
		},
		{
			name:      "file at the size limit is accepted",
			validator: Validator{MaxFileSize: 7},
			source:    network.NewBytesSource("exact.png", "image/png", []byte("payload")),
		},
		{
			name:      "matching pattern is accepted",
			validator: Validator{AllowedPatterns: []string{"*.png", "*.mp4"}},
			source:    network.NewBytesSource("video.mp4", "video/mp4", []byte("payload")),
		},
		{
			name:       "non-matching pattern is rejected",
			validator:  Validator{AllowedPatterns: []string{"*.png"}},
			source:     network.NewBytesSource("archive.zip", "application/zip", []byte("payload")),
			wantReason: "file type is not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.Validate(tt.source)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.source.Name(), validationErr.FileName)
			assert.Equal(t, tt.wantReason, validationErr.Reason)
		})
	}
}
