package frames

import (
	"errors"
	"fmt"

	"github.com/davrell/id3stream/compress"
	"github.com/davrell/id3stream/encoding"
	"github.com/davrell/id3stream/stream"
)

// Frame format flags, per version. The flag word is the raw 2-byte
// value delivered by the stream parser; v2.2 frames have no flags.
const (
	// v2.3 format flags (second flag byte).
	V23FlagCompressed uint16 = 0x0080
	V23FlagEncrypted  uint16 = 0x0040
	V23FlagGrouped    uint16 = 0x0020

	// v2.4 format flags (second flag byte).
	V24FlagGrouped    uint16 = 0x0040
	V24FlagCompressed uint16 = 0x0008
	V24FlagEncrypted  uint16 = 0x0004
	V24FlagUnsynced   uint16 = 0x0002
	V24FlagDataLength uint16 = 0x0001
)

// ErrEncryptedFrame is returned by Payload for frames with the
// encryption flag set; this library has no key material to offer.
var ErrEncryptedFrame = errors.New("frames: encrypted frame")

var zlibCodec = compress.NewZlibCodec()

// Compressed reports whether the frame's compression flag is set for
// the given tag version.
func Compressed(f stream.Frame, version byte) bool {
	switch version {
	case 4:
		return f.Flags&V24FlagCompressed != 0
	case 3:
		return f.Flags&V23FlagCompressed != 0
	default:
		return false
	}
}

// Payload returns the usable frame payload for the given tag version,
// undoing the per-frame envelope the format flags declare:
//
//   - v2.3: an optional 4-byte plain decompressed-size prefix plus zlib
//     compression, then an optional group identifier byte.
//   - v2.4: an optional group identifier byte, an optional 4-byte
//     synchsafe data-length indicator, then zlib compression.
//   - v2.2: payloads are always raw.
//
// For plain frames the input slice is returned as-is (still borrowed
// from the parser); decompressed payloads are newly allocated.
// Unsynchronization (v2.4 flag 0x0002) is not undone.
func Payload(f stream.Frame, version byte) ([]byte, error) {
	switch version {
	case 4:
		return payloadV4(f)
	case 3:
		return payloadV3(f)
	default:
		return f.Data, nil
	}
}

func payloadV3(f stream.Frame) ([]byte, error) {
	if f.Flags&V23FlagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncryptedFrame, f.ID)
	}

	data := f.Data

	if f.Flags&V23FlagCompressed == 0 {
		if f.Flags&V23FlagGrouped != 0 {
			if len(data) < 1 {
				return nil, fmt.Errorf("%w: %s group id", ErrShortFrame, f.ID)
			}
			data = data[1:]
		}

		return data, nil
	}

	// Compressed: 4-byte plain decompressed size, then the group id if
	// present, then the zlib stream.
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %s decompressed size", ErrShortFrame, f.ID)
	}
	want := encoding.DecodeUint32(data[:4])
	data = data[4:]

	if f.Flags&V23FlagGrouped != 0 {
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: %s group id", ErrShortFrame, f.ID)
		}
		data = data[1:]
	}

	out, err := zlibCodec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("frames: %s: %w", f.ID, err)
	}
	if uint32(len(out)) != want {
		return nil, fmt.Errorf("frames: %s decompressed to %d bytes, header declared %d",
			f.ID, len(out), want)
	}

	return out, nil
}

func payloadV4(f stream.Frame) ([]byte, error) {
	if f.Flags&V24FlagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncryptedFrame, f.ID)
	}

	data := f.Data

	if f.Flags&V24FlagGrouped != 0 {
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: %s group id", ErrShortFrame, f.ID)
		}
		data = data[1:]
	}

	var want uint32
	hasLength := f.Flags&V24FlagDataLength != 0
	if hasLength {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: %s data length indicator", ErrShortFrame, f.ID)
		}
		want = encoding.DecodeSynchsafe(data[:4])
		data = data[4:]
	}

	if f.Flags&V24FlagCompressed == 0 {
		return data, nil
	}

	out, err := zlibCodec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("frames: %s: %w", f.ID, err)
	}
	if hasLength && uint32(len(out)) != want {
		return nil, fmt.Errorf("frames: %s decompressed to %d bytes, header declared %d",
			f.ID, len(out), want)
	}

	return out, nil
}
