package stream

// FlagExtendedHeader is the tag-header flag bit announcing an extended
// header between the tag header and the first frame (v2.3 and later).
const FlagExtendedHeader byte = 1 << 6

// TagHeader is the decoded 10-byte ID3v2 tag header. Immutable once
// the parser has produced it.
type TagHeader struct {
	// Version is the major ID3v2 version: 2, 3 or 4.
	Version byte

	// Revision is the minor version byte.
	Revision byte

	// Flags is the raw tag flag byte.
	Flags byte

	// Size is the declared tag size in bytes, synchsafe-decoded. It
	// excludes the 10-byte tag header itself.
	Size uint32
}

// HasExtendedHeader reports whether the tag declares an extended
// header. The flag is only meaningful for version 3 and later; v2.2
// tags never have one.
func (h TagHeader) HasExtendedHeader() bool {
	return h.Version >= 3 && h.Flags&FlagExtendedHeader != 0
}

// frameHeaderLen returns the frame header width for the tag's version:
// 6 bytes for v2.2 (3-char id + 3-byte size), 10 bytes for v2.3/v2.4
// (4-char id + 4-byte size + 2 flag bytes).
func (h TagHeader) frameHeaderLen() int {
	if h.Version >= 3 {
		return frameHeaderLenV3
	}

	return frameHeaderLenV2
}
