package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadResponse_Asset(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantURL string
		wantErr bool
	}{
		{
			name:    "top-level url",
			body:    `{"success": 1, "url": "https://cdn.example.com/storage/a.png"}`,
			wantURL: "https://cdn.example.com/storage/a.png",
		},
		{
			name:    "url nested under file",
			body:    `{"success": true, "file": {"url": "https://cdn.example.com/storage/b.mp4"}}`,
			wantURL: "https://cdn.example.com/storage/b.mp4",
		},
		{
			name:    "missing url is a protocol error",
			body:    `{"success": 1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var response uploadResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &response))

			asset, err := response.asset()
			if tt.wantErr {
				require.Error(t, err)
				var protocolErr *ProtocolError
				assert.ErrorAs(t, err, &protocolErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, asset.URL)
		})
	}
}

func TestUploadResponse_Asset_MetadataNormalizedToNull(t *testing.T) {
	var response uploadResponse
	require.NoError(t, json.Unmarshal([]byte(`{"url": "https://cdn.example.com/storage/a.png", "width": 640, "height": 480}`), &response))

	asset, err := response.asset()
	require.NoError(t, err)

	require.NotNil(t, asset.Width)
	assert.Equal(t, 640, *asset.Width)
	require.NotNil(t, asset.Height)
	assert.Equal(t, 480, *asset.Height)
	assert.Nil(t, asset.Duration)
	assert.Nil(t, asset.Size)
	assert.Nil(t, asset.Format)
	assert.Nil(t, asset.AspectRatio)

	// Serialized consumers must see explicit nulls, not omitted keys.
	encoded, err := json.Marshal(asset)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"duration":null`)
	assert.Contains(t, string(encoded), `"format":null`)
}

func TestLooseBool(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: "true", want: true},
		{raw: "1", want: true},
		{raw: `"1"`, want: true},
		{raw: "false", want: false},
		{raw: "0", want: false},
		{raw: `"0"`, want: false},
		{raw: `"maybe"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var b looseBool
			err := json.Unmarshal([]byte(tt.raw), &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, bool(b))
		})
	}
}
