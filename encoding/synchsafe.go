// Package encoding implements the integer codecs used by the ID3v2 tag
// format: synchsafe integers (7 bits per byte, guaranteeing that no tag
// size field can masquerade as an MPEG sync marker) and plain big-endian
// integers in the 16/24/32-bit widths the format uses.
//
// All decode functions read from the front of the supplied slice and
// ignore any trailing bytes; callers are expected to hand in spans of at
// least the documented width. The encode side exists primarily so tags
// can be synthesized (tests, tools), and it enforces the synchsafe range
// limit instead of silently producing forbidden high bits.
package encoding

import "errors"

// SynchsafeMax is the largest value representable as a 4-byte synchsafe
// integer (28 significant bits).
const SynchsafeMax = 1<<28 - 1

// ErrSynchsafeOverflow is returned by EncodeSynchsafe when the value does
// not fit in 28 bits.
var ErrSynchsafeOverflow = errors.New("encoding: value exceeds synchsafe range")

// DecodeSynchsafe decodes a 4-byte synchsafe integer.
//
// Each byte contributes its low 7 bits; bit 7 is masked off rather than
// rejected, matching how tag readers in the wild treat sloppy writers.
//
// Parameters:
//   - b: Source bytes, length must be at least 4.
//
// Returns:
//   - uint32: The decoded value (0 to SynchsafeMax).
func DecodeSynchsafe(b []byte) uint32 {
	_ = b[3]

	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// EncodeSynchsafe encodes v as a 4-byte synchsafe integer.
//
// Returns:
//   - [4]byte: The encoded bytes, each with bit 7 clear.
//   - error: ErrSynchsafeOverflow if v exceeds SynchsafeMax.
func EncodeSynchsafe(v uint32) ([4]byte, error) {
	if v > SynchsafeMax {
		return [4]byte{}, ErrSynchsafeOverflow
	}

	return [4]byte{
		byte(v >> 21 & 0x7F),
		byte(v >> 14 & 0x7F),
		byte(v >> 7 & 0x7F),
		byte(v & 0x7F),
	}, nil
}

// DecodeUint32 decodes a plain big-endian 32-bit integer from the first
// 4 bytes of b.
func DecodeUint32(b []byte) uint32 {
	_ = b[3]

	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// DecodeUint24 decodes a plain big-endian 24-bit integer from the first
// 3 bytes of b. ID3v2.2 frame sizes use this width.
func DecodeUint24(b []byte) uint32 {
	_ = b[2]

	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// DecodeUint16 decodes a plain big-endian 16-bit integer from the first
// 2 bytes of b. Frame flag words use this width.
func DecodeUint16(b []byte) uint16 {
	_ = b[1]

	return uint16(b[0])<<8 | uint16(b[1])
}

// PutUint32 writes v big-endian into the first 4 bytes of b.
func PutUint32(b []byte, v uint32) {
	_ = b[3]

	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// PutUint24 writes the low 24 bits of v big-endian into the first 3
// bytes of b.
func PutUint24(b []byte, v uint32) {
	_ = b[2]

	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// PutUint16 writes v big-endian into the first 2 bytes of b.
func PutUint16(b []byte, v uint16) {
	_ = b[1]

	b[0] = byte(v >> 8)
	b[1] = byte(v)
}
