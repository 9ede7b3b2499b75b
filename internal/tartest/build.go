// Package tartest synthesizes tar archives in memory for tests.
package tartest

import (
	"bytes"
	"fmt"
)

// BlockSize is the tar block size.
const BlockSize = 512

// Entry describes one archive member to synthesize.
type Entry struct {
	Name     string
	Mode     int64
	UID      int64
	GID      int64
	Size     int64 // payload size field; defaults to len(Data)
	ModTime  int64 // unix seconds
	Typeflag byte  // defaults to '0'
	Linkname string
	Uname    string
	Gname    string
	Data     []byte
	OldStyle bool // omit the ustar magic and tail fields
}

// Header renders the 512-byte header block for e. A name longer than the
// 100-byte field is truncated here; WriteEntry emits the long-name
// extension that preserves it.
func Header(e Entry) []byte {
	block := make([]byte, BlockSize)

	name := e.Name
	if len(name) > 100 {
		name = name[:100]
	}
	copy(block[0:100], name)

	octal(block[100:108], e.Mode)
	octal(block[108:116], e.UID)
	octal(block[116:124], e.GID)

	size := e.Size
	if size == 0 {
		size = int64(len(e.Data))
	}
	octal(block[124:136], size)
	octal(block[136:148], e.ModTime)

	typeflag := e.Typeflag
	if typeflag == 0 {
		typeflag = '0'
	}
	block[156] = typeflag

	copy(block[157:257], e.Linkname)

	if !e.OldStyle {
		copy(block[257:265], "ustar  \x00")
		copy(block[265:297], e.Uname)
		copy(block[297:329], e.Gname)
	}

	checksum(block)
	return block
}

// WriteEntry appends the blocks for e: the long-name extension pair when
// the name exceeds the header field, the header itself, then the payload
// padded to a block boundary.
func WriteEntry(buf *bytes.Buffer, e Entry) {
	if len(e.Name) > 100 {
		buf.Write(Header(Entry{
			Name:     "././@LongLink",
			Typeflag: 'L',
			Size:     int64(len(e.Name) + 1),
		}))
		nameBlock := make([]byte, BlockSize)
		copy(nameBlock, e.Name)
		buf.Write(nameBlock)
	}

	buf.Write(Header(e))
	if len(e.Data) > 0 {
		buf.Write(e.Data)
		if pad := len(e.Data) % BlockSize; pad != 0 {
			buf.Write(make([]byte, BlockSize-pad))
		}
	}
}

// Archive renders a whole archive: every entry in order, then n trailing
// zero blocks. Well-formed archives end with two.
func Archive(entries []Entry, trailingZeroBlocks int) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		WriteEntry(&buf, e)
	}
	buf.Write(ZeroBlocks(trailingZeroBlocks))
	return buf.Bytes()
}

// ZeroBlocks returns n zero-filled blocks.
func ZeroBlocks(n int) []byte {
	return make([]byte, n*BlockSize)
}

// octal renders v right-justified with leading zeros and a trailing NUL,
// the way tar writers fill numeric fields.
func octal(field []byte, v int64) {
	copy(field, fmt.Sprintf("%0*o", len(field)-1, v))
}

// checksum fills the checksum field: the byte sum of the block with the
// field itself counted as spaces, written as six octal digits, NUL, space.
func checksum(block []byte) {
	copy(block[148:156], "        ")
	var sum int64
	for _, b := range block {
		sum += int64(b)
	}
	copy(block[148:156], fmt.Sprintf("%06o\x00 ", sum))
}
