package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ngrpv/untar/pkg/storage"
)

// zeroBlock is compared against raw blocks to find the end-of-archive
// sentinel.
var zeroBlock [BlockSize]byte

// scan walks r block by block from the start, resolving GNU long names and
// reporting every entry with the offset of its real header block. It stops
// at two consecutive zero blocks or at physical end of file; a single zero
// block is a benign filler and the walk continues past it. fn returning an
// error aborts the walk.
//
// Only the size field is parsed here, to skip each data region; full
// header validation is deferred to Stat.
func scan(ctx context.Context, r storage.Reader, fn func(Entry) error) error {
	var (
		offset      int64
		pending     string
		havePending bool
		zeroRun     int
		block       [BlockSize]byte
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := io.ReadFull(r, block[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("failed to read block at offset %d: %w", offset, err)
		}
		headerOffset := offset
		offset += BlockSize

		if bytes.Equal(block[:], zeroBlock[:]) {
			zeroRun++
			if zeroRun == 2 {
				return nil
			}
			continue
		}
		zeroRun = 0

		if EntryType(block[typeflagOffset]) == TypeLongName {
			// The next block carries the full pathname for the header
			// that follows it.
			var nameBlock [BlockSize]byte
			if _, err := io.ReadFull(r, nameBlock[:]); err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return nil
				}
				return fmt.Errorf("failed to read long name at offset %d: %w", offset, err)
			}
			pending = trimField(nameBlock[:])
			havePending = true
			offset += BlockSize
			continue
		}

		name := trimField(block[0:100])
		if havePending {
			name = pending
			havePending = false
		}

		if err := fn(Entry{Name: name, Offset: headerOffset}); err != nil {
			return err
		}

		size, err := parseOctal(block[sizeFieldStart:sizeFieldEnd], "size")
		if err != nil {
			return fmt.Errorf("block at offset %d: %w", headerOffset, err)
		}
		if skip := dataBlocks(size) * BlockSize; skip > 0 {
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return fmt.Errorf("failed to seek past data at offset %d: %w", offset, err)
			}
			offset += skip
		}
	}
}

// dataBlocks returns how many blocks hold size payload bytes, counting the
// zero padding up to the block boundary.
func dataBlocks(size int64) int64 {
	return (size + BlockSize - 1) / BlockSize
}
