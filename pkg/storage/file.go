package storage

import (
	"context"
	"fmt"
	"os"
)

// FileSource serves an archive from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a source over the file at path. The path is not
// checked until Open.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open opens the file and captures its current size.
func (s *FileSource) Open(ctx context.Context) (Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &fileReader{File: f, size: info.Size()}, nil
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

type fileReader struct {
	*os.File
	size int64
}

func (r *fileReader) Size() int64 {
	return r.size
}
