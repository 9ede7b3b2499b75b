package storage

import (
	"context"
	"io"
)

// Reader is one read session over an archive. It combines sequential
// reading for scans with random access for header and payload lookups.
type Reader interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer

	// Size reports the total length of the archive in bytes.
	Size() int64
}

// Source locates an archive and opens read sessions over it. Open may be
// called multiple times; each returned Reader is independent.
type Source interface {
	Open(ctx context.Context) (Reader, error)

	// Name identifies the archive in messages, e.g. a path or object URL.
	Name() string
}
