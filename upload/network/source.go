package network

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Source provides the payload of a single upload. Open may be called multiple
// times for the same source: retries re-read the payload from the start.
type Source interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// FileSource reads the payload from a file on disk. Name and size are captured
// at creation time and stay stable for the source's lifetime.
type FileSource struct {
	path string
	name string
	size int64
}

// NewFileSource creates a Source backed by the file at path.
func NewFileSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &FileSource{
		path: path,
		name: filepath.Base(path),
		size: info.Size(),
	}, nil
}

// Name ...
func (s *FileSource) Name() string {
	return s.name
}

// Size ...
func (s *FileSource) Size() int64 {
	return s.size
}

// ContentType guesses the MIME type from the file extension, falling back to
// application/octet-stream.
func (s *FileSource) ContentType() string {
	if t := mime.TypeByExtension(filepath.Ext(s.name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Open ...
func (s *FileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

// BytesSource serves the payload from memory. Used for pasted content and in
// tests.
type BytesSource struct {
	name     string
	mimeType string
	data     []byte
}

// NewBytesSource creates a Source from an in-memory payload.
func NewBytesSource(name, mimeType string, data []byte) *BytesSource {
	return &BytesSource{name: name, mimeType: mimeType, data: data}
}

// Name ...
func (s *BytesSource) Name() string {
	return s.name
}

// Size ...
func (s *BytesSource) Size() int64 {
	return int64(len(s.data))
}

// ContentType ...
func (s *BytesSource) ContentType() string {
	if s.mimeType == "" {
		return "application/octet-stream"
	}
	return s.mimeType
}

// Open ...
func (s *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
