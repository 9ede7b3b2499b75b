package archive

import "errors"

// Sentinel errors for the failure kinds callers dispatch on. Returned
// errors wrap these with positional context; match with errors.Is.
var (
	// ErrMalformedHeader reports a header block whose fields cannot be decoded.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrUnknownEntry reports a lookup for a name that was never indexed.
	ErrUnknownEntry = errors.New("unknown entry")

	// ErrTruncated reports an archive that ends before a declared region.
	ErrTruncated = errors.New("truncated archive")
)
