package frames

import (
	"errors"
	"fmt"

	"github.com/davrell/id3stream/stream"
)

// ErrShortFrame is returned (wrapped) when a frame payload is too short
// for its declared structure.
var ErrShortFrame = errors.New("frames: payload too short")

// Text decodes a text information frame (ids starting with 'T', e.g.
// TIT2/TT2): one encoding byte followed by the value.
func Text(f stream.Frame) (string, error) {
	if len(f.Data) < 1 {
		return "", fmt.Errorf("%w: %s text frame", ErrShortFrame, f.ID)
	}

	return trimTrailingNull(decodeText(f.Data[1:], f.Data[0])), nil
}

// UserText decodes a TXXX (v2.2: TXX) frame into its description and
// value: [encoding][description\0][value].
func UserText(f stream.Frame) (description, value string, err error) {
	if len(f.Data) < 2 {
		return "", "", fmt.Errorf("%w: %s user text frame", ErrShortFrame, f.ID)
	}

	enc := f.Data[0]
	data := f.Data[1:]

	sep := findTerminator(data, enc)
	if sep < 0 {
		return "", "", fmt.Errorf("frames: %s missing description terminator", f.ID)
	}

	description = decodeText(data[:sep], enc)
	value = trimTrailingNull(decodeText(data[sep+terminatorLen(enc):], enc))

	return description, value, nil
}

// Comment is a decoded COMM (v2.2: COM) frame.
type Comment struct {
	// Language is the 3-character ISO-639-2 language code.
	Language string

	// Description is the short content description.
	Description string

	// Text is the comment body.
	Text string
}

// ParseComment decodes a comment frame:
// [encoding][language(3)][description\0][text].
func ParseComment(f stream.Frame) (Comment, error) {
	if len(f.Data) < 4 {
		return Comment{}, fmt.Errorf("%w: %s comment frame", ErrShortFrame, f.ID)
	}

	enc := f.Data[0]
	lang := string(f.Data[1:4])
	data := f.Data[4:]

	sep := findTerminator(data, enc)
	if sep < 0 {
		// No terminator: treat the whole remainder as the body.
		return Comment{Language: lang, Text: trimTrailingNull(decodeText(data, enc))}, nil
	}

	return Comment{
		Language:    lang,
		Description: decodeText(data[:sep], enc),
		Text:        trimTrailingNull(decodeText(data[sep+terminatorLen(enc):], enc)),
	}, nil
}

// Picture is a decoded APIC (v2.2: PIC) frame.
type Picture struct {
	// MIMEType is the image MIME type ("image/jpeg"). For v2.2 tags
	// this is derived from the 3-character image format ("JPG", "PNG").
	MIMEType string

	// Type is the picture type byte (3 = front cover).
	Type byte

	// Description is the short picture description.
	Description string

	// Data is the raw image bytes, borrowed from the frame payload.
	Data []byte
}

// ParsePicture decodes an attached-picture frame for the given tag
// version.
//
// v2.3/v2.4 (APIC): [encoding][mime\0][type][description\0][image].
// v2.2 (PIC): [encoding][format(3)][type][description\0][image].
func ParsePicture(f stream.Frame, version byte) (Picture, error) {
	if len(f.Data) < 2 {
		return Picture{}, fmt.Errorf("%w: %s picture frame", ErrShortFrame, f.ID)
	}

	enc := f.Data[0]
	data := f.Data[1:]

	var mime string
	if version >= 3 {
		sep := findTerminator(data, EncodingISO88591)
		if sep < 0 {
			return Picture{}, fmt.Errorf("frames: %s missing MIME terminator", f.ID)
		}
		mime = string(data[:sep])
		data = data[sep+1:]
	} else {
		if len(data) < 3 {
			return Picture{}, fmt.Errorf("%w: %s image format", ErrShortFrame, f.ID)
		}
		mime = mimeFromImageFormat(string(data[:3]))
		data = data[3:]
	}

	if len(data) < 1 {
		return Picture{}, fmt.Errorf("%w: %s picture type", ErrShortFrame, f.ID)
	}
	picType := data[0]
	data = data[1:]

	sep := findTerminator(data, enc)
	if sep < 0 {
		return Picture{}, fmt.Errorf("frames: %s missing description terminator", f.ID)
	}

	return Picture{
		MIMEType:    mime,
		Type:        picType,
		Description: decodeText(data[:sep], enc),
		Data:        data[sep+terminatorLen(enc):],
	}, nil
}

// mimeFromImageFormat maps a v2.2 3-character image format to a MIME
// type.
func mimeFromImageFormat(format string) string {
	switch format {
	case "JPG":
		return "image/jpeg"
	case "PNG":
		return "image/png"
	default:
		return "image/" + format
	}
}
