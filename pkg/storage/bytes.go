package storage

import (
	"bytes"
	"context"
)

// BytesSource serves an archive from an in-memory byte slice. It backs
// tests and any caller that already holds the whole archive.
type BytesSource struct {
	name string
	data []byte
}

// NewBytesSource creates a source over data, reported under name.
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

// Open returns a reader positioned at the start of the data.
func (s *BytesSource) Open(ctx context.Context) (Reader, error) {
	return &bytesReader{Reader: bytes.NewReader(s.data)}, nil
}

// Name returns the name given at construction.
func (s *BytesSource) Name() string {
	return s.name
}

type bytesReader struct {
	*bytes.Reader
}

func (r *bytesReader) Close() error {
	return nil
}
