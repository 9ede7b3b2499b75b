package archive

import (
	"fmt"
	"strconv"
	"time"
)

// BlockSize is the fixed block length of the tar container; headers, data
// regions and the end-of-archive sentinel are all aligned to it.
const BlockSize = 512

// EntryType is the typeflag byte of a header block.
type EntryType byte

// Recognized typeflag codes.
const (
	TypeRegular      EntryType = '0'
	TypeHardLink     EntryType = '1'
	TypeSymlink      EntryType = '2'
	TypeCharDevice   EntryType = '3'
	TypeBlockDevice  EntryType = '4'
	TypeDirectory    EntryType = '5'
	TypeFIFO         EntryType = '6'
	TypeReserved     EntryType = '7'
	TypeDirEntry     EntryType = 'D'
	TypeLongLink     EntryType = 'K'
	TypeLongName     EntryType = 'L'
	TypeContinuation EntryType = 'M'
	TypeRename       EntryType = 'N'
	TypeSparse       EntryType = 'S'
	TypeVolumeHeader EntryType = 'V'
)

// typeNames maps each recognized typeflag to its display name. A byte
// outside this table makes the whole header malformed.
var typeNames = map[EntryType]string{
	TypeRegular:      "Regular file",
	TypeHardLink:     "Hard link",
	TypeSymlink:      "Symbolic link",
	TypeCharDevice:   "Character device node",
	TypeBlockDevice:  "Block device node",
	TypeDirectory:    "Directory",
	TypeFIFO:         "FIFO node",
	TypeReserved:     "Reserved",
	TypeDirEntry:     "Directory entry",
	TypeLongLink:     "Long linkname",
	TypeLongName:     "Long pathname",
	TypeContinuation: "Continue of last file",
	TypeRename:       "Rename/symlink command",
	TypeSparse:       "`sparse' regular file",
	TypeVolumeHeader: "`name' is tape/volume header name",
}

// String returns the display name of the type code.
func (t EntryType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown type %q", byte(t))
}

// Format identifies which tail layout a header block carried.
type Format int

const (
	// FormatOld is the pre-ustar layout with an opaque tail region.
	FormatOld Format = iota
	// FormatUstar is the ustar/GNU layout carrying a prefix field.
	FormatUstar
)

// Header is the decoded metadata of one archive entry. Headers are decoded
// fresh from the source on every request and never mutated afterwards.
type Header struct {
	Name     string
	Mode     string // octal text as stored, e.g. "0000755"
	UID      int
	GID      int
	Size     int64
	ModTime  time.Time
	Checksum string // stored, never verified
	Type     EntryType
	Linkname string

	// Tail fields. Both layouts share the fields through DevMinor; Prefix
	// is ustar only, Other is the opaque pre-ustar region. Absent values
	// are empty strings.
	Format   Format
	Magic    string
	Version  string
	Uname    string
	Gname    string
	DevMajor string
	DevMinor string
	Prefix   string
	Other    string
}

// Field is one label/value pair of the fixed metadata listing.
type Field struct {
	Label string
	Value string
}

// Fields returns the display fields in their fixed presentation order.
func (h *Header) Fields() []Field {
	return []Field{
		{"Filename", h.Name},
		{"Type", h.Type.String()},
		{"Mode", h.Mode},
		{"UID", strconv.Itoa(h.UID)},
		{"GID", strconv.Itoa(h.GID)},
		{"Size", strconv.FormatInt(h.Size, 10)},
		{"Modification time", h.ModTime.Format("2006-01-02 15:04:05")},
		{"Checksum", h.Checksum},
		{"User name", h.Uname},
		{"Group name", h.Gname},
	}
}

// Entry is one name yielded by a scan, with the offset of the header block
// it resolves to.
type Entry struct {
	Name   string
	Offset int64
}
