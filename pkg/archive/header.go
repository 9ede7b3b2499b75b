package archive

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Offsets of the header fields the scanner peeks at before a full decode.
const (
	sizeFieldStart = 124
	sizeFieldEnd   = 136
	typeflagOffset = 156
	tailOffset     = 257
)

// ustarMagic is the marker selecting the ustar/GNU tail layout. GNU tar
// writes the magic with a trailing space instead of the POSIX NUL.
const ustarMagic = "ustar "

// DecodeHeader decodes one 512-byte header block into a Header. The name
// it fills is provisional: the scanner may substitute a long name read
// from a preceding extension block.
func DecodeHeader(block []byte) (*Header, error) {
	if len(block) != BlockSize {
		return nil, fmt.Errorf("%w: block is %d bytes, want %d", ErrMalformedHeader, len(block), BlockSize)
	}

	h := &Header{
		Name:     trimField(block[0:100]),
		Mode:     trimField(block[100:108]),
		Checksum: trimField(block[148:156]),
		Type:     EntryType(block[typeflagOffset]),
		Linkname: trimField(block[157:257]),
	}

	if _, ok := typeNames[h.Type]; !ok {
		return nil, fmt.Errorf("%w: unknown type code %q", ErrMalformedHeader, byte(h.Type))
	}

	uid, err := parseOctal(block[108:116], "uid")
	if err != nil {
		return nil, err
	}
	gid, err := parseOctal(block[116:124], "gid")
	if err != nil {
		return nil, err
	}
	size, err := parseOctal(block[sizeFieldStart:sizeFieldEnd], "size")
	if err != nil {
		return nil, err
	}
	mtime, err := parseOctal(block[136:148], "mtime")
	if err != nil {
		return nil, err
	}
	h.UID = int(uid)
	h.GID = int(gid)
	h.Size = size
	h.ModTime = time.Unix(mtime, 0)

	// The 255-byte tail has two layouts sharing everything through the
	// device fields; the ustar/GNU magic selects which one applies.
	tail := block[tailOffset:]
	h.Magic = trimField(tail[0:6])
	h.Version = trimField(tail[6:8])
	h.Uname = trimField(tail[8:40])
	h.Gname = trimField(tail[40:72])
	h.DevMajor = trimField(tail[72:80])
	h.DevMinor = trimField(tail[80:88])
	if string(tail[:len(ustarMagic)]) == ustarMagic {
		h.Format = FormatUstar
		h.Prefix = trimField(tail[88:243])
	} else {
		h.Format = FormatOld
		h.Other = trimField(tail[88:224])
	}

	return h, nil
}

// parseOctal decodes a NUL-padded octal ASCII field. Writers pad with NUL
// or spaces on either side; anything left that is not octal digits fails,
// as does an entirely empty field.
func parseOctal(field []byte, name string) (int64, error) {
	s := string(bytes.Trim(field, " \x00"))
	v, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad octal in %s field: %q", ErrMalformedHeader, name, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value in %s field: %q", ErrMalformedHeader, name, s)
	}
	return v, nil
}

// trimField strips the NUL and space padding of a fixed-width text field.
func trimField(field []byte) string {
	return string(bytes.Trim(field, " \x00"))
}
