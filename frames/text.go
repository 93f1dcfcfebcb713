// Package frames decodes the content of common ID3v2 frames: text
// frames with their four declared encodings, user text (TXXX),
// comments (COMM), attached pictures (APIC/PIC) and the per-frame
// compression envelope. The streaming parser in the stream package
// delimits frames; this package interprets their payloads.
package frames

import (
	"bytes"
	"unicode/utf16"
)

// Text encoding bytes as declared by the first payload byte of text
// frames. UTF-16BE and UTF-8 are v2.4 additions.
const (
	EncodingISO88591 byte = 0
	EncodingUTF16    byte = 1 // with BOM
	EncodingUTF16BE  byte = 2
	EncodingUTF8     byte = 3
)

// decodeText decodes data according to an ID3v2 encoding byte. Unknown
// encodings fall back to ISO-8859-1, matching lenient readers.
func decodeText(data []byte, encoding byte) string {
	if len(data) == 0 {
		return ""
	}

	switch encoding {
	case EncodingUTF16:
		return decodeUTF16BOM(data)
	case EncodingUTF16BE:
		return decodeUTF16BE(data)
	case EncodingUTF8:
		return string(data)
	default:
		return decodeISO88591(data)
	}
}

// decodeISO88591 maps each byte to the identical Unicode code point.
// A plain string(data) would misread bytes above 0x7F as broken UTF-8.
func decodeISO88591(data []byte) string {
	ascii := true
	for _, b := range data {
		if b > 0x7F {
			ascii = false
			break
		}
	}
	if ascii {
		return string(data)
	}

	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}

	return string(runes)
}

// decodeUTF16BOM decodes UTF-16 text led by a byte-order mark. Without
// a BOM, big-endian is assumed.
func decodeUTF16BOM(data []byte) string {
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			return decodeUTF16LE(data[2:])
		}
		if data[0] == 0xFE && data[1] == 0xFF {
			return decodeUTF16BE(data[2:])
		}
	}

	return decodeUTF16BE(data)
}

func decodeUTF16LE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}

	return string(utf16.Decode(u16))
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2])<<8 | uint16(data[i*2+1])
	}

	return string(utf16.Decode(u16))
}

// findTerminator returns the index of the encoding's null terminator in
// data, or -1. UTF-16 variants use an aligned double-byte null.
func findTerminator(data []byte, encoding byte) int {
	switch encoding {
	case EncodingUTF16, EncodingUTF16BE:
		for i := 0; i+1 < len(data); i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return i
			}
		}

		return -1
	default:
		return bytes.IndexByte(data, 0)
	}
}

// terminatorLen returns the width of the encoding's null terminator.
func terminatorLen(encoding byte) int {
	if encoding == EncodingUTF16 || encoding == EncodingUTF16BE {
		return 2
	}

	return 1
}

// trimTrailingNull strips the trailing terminator some writers append
// to text frame values.
func trimTrailingNull(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}

	return s
}
