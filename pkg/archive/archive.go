package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ngrpv/untar/pkg/progress"
	"github.com/ngrpv/untar/pkg/storage"
)

// Archive reads one tar archive through a storage source. Every operation
// opens a fresh read session and closes it before returning; the only
// state kept between calls is the name-to-offset index built by a scan.
// An Archive must not be used from multiple goroutines at once.
type Archive struct {
	src   storage.Source
	index map[string]int64
}

// New returns an archive over src. Nothing is read until a listing or
// extraction operation drives the first scan; until then every lookup
// fails with ErrUnknownEntry.
func New(src storage.Source) *Archive {
	return &Archive{
		src:   src,
		index: make(map[string]int64),
	}
}

// Scan walks the archive from the start, rebuilding the index as a side
// effect. fn receives every resolved entry in archive order and may be nil
// when only the index matters; fn returning an error stops the walk.
func (a *Archive) Scan(ctx context.Context, fn func(Entry) error) error {
	r, err := a.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", a.src.Name(), err)
	}
	defer r.Close()

	a.index = make(map[string]int64)
	return scan(ctx, r, func(e Entry) error {
		// Duplicate names keep the offset of the later header.
		a.index[e.Name] = e.Offset
		if fn != nil {
			return fn(e)
		}
		return nil
	})
}

// Names lists the entries in archive order, duplicates included. Sorting
// is the caller's concern.
func (a *Archive) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := a.Scan(ctx, func(e Entry) error {
		names = append(names, e.Name)
		return nil
	}); err != nil {
		return nil, err
	}
	return names, nil
}

// Stat re-reads and decodes the header of name. The decoded name field is
// overridden with the index key, so entries indexed through the long-name
// extension report their full path.
func (a *Archive) Stat(ctx context.Context, name string) (*Header, error) {
	off, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, name)
	}

	r, err := a.src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", a.src.Name(), err)
	}
	defer r.Close()

	var block [BlockSize]byte
	if _, err := r.ReadAt(block[:], off); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header block at offset %d", ErrTruncated, off)
		}
		return nil, fmt.Errorf("failed to read header at offset %d: %w", off, err)
	}

	hdr, err := DecodeHeader(block[:])
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", name, err)
	}
	hdr.Name = name
	return hdr, nil
}

// Payload reads the data region of hdr: exactly hdr.Size bytes starting
// one block past the entry's header.
func (a *Archive) Payload(ctx context.Context, hdr *Header) ([]byte, error) {
	off, ok := a.index[hdr.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, hdr.Name)
	}

	data := make([]byte, hdr.Size)
	if hdr.Size == 0 {
		return data, nil
	}

	r, err := a.src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", a.src.Name(), err)
	}
	defer r.Close()

	if _, err := r.ReadAt(data, off+BlockSize); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: entry %s declares %d bytes", ErrTruncated, hdr.Name, hdr.Size)
		}
		return nil, fmt.Errorf("failed to read payload of %s: %w", hdr.Name, err)
	}
	return data, nil
}

// ExtractOption customizes an extraction run.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	reporter progress.Reporter
	filter   func(string) bool
}

// WithReporter routes extraction progress to r. The caller keeps ownership
// of r and closes it after Extract returns.
func WithReporter(r progress.Reporter) ExtractOption {
	return func(o *extractOptions) {
		o.reporter = r
	}
}

// WithFilter restricts extraction to names fn accepts.
func WithFilter(fn func(string) bool) ExtractOption {
	return func(o *extractOptions) {
		o.filter = fn
	}
}

// Extract materializes the archive under destDir. Directory entries are
// created if absent, regular files are written with pre-existing
// destinations overwritten, and every other entry kind is skipped. A
// failed entry aborts the run; files already written stay on disk.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) error {
	o := extractOptions{
		reporter: progress.NewSilent(),
		filter:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(&o)
	}

	var names []string
	if err := a.Scan(ctx, func(e Entry) error {
		if o.filter(e.Name) {
			names = append(names, e.Name)
		}
		return nil
	}); err != nil {
		return err
	}

	// Stat everything up front so the reporter knows the total payload.
	headers := make([]*Header, 0, len(names))
	var total int64
	for _, name := range names {
		hdr, err := a.Stat(ctx, name)
		if err != nil {
			return err
		}
		if hdr.Type == TypeRegular {
			total += hdr.Size
		}
		headers = append(headers, hdr)
	}
	o.reporter.Init(total)

	for _, hdr := range headers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		switch hdr.Type {
		case TypeDirectory:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case TypeRegular:
			data, err := a.Payload(ctx, hdr)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			o.reporter.Add(int64(len(data)))
		default:
			// Links, devices and the rest are not materialized.
		}
	}

	o.reporter.Complete()
	return nil
}
