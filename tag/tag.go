// Package tag assembles the frames emitted by the streaming parser
// into a retained, queryable Tag. The parser hands out borrowed payload
// views; the Collector in this package is the Sink that copies them,
// suppresses byte-identical duplicate frames, and exposes the result.
package tag

import (
	"bytes"

	"github.com/davrell/id3stream/frames"
	"github.com/davrell/id3stream/stream"
)

// Frame is a retained copy of a parsed frame. Unlike stream.Frame, its
// Data is owned by the Tag and stays valid.
type Frame struct {
	ID    string
	Flags uint16
	Data  []byte
}

// Tag is a fully collected ID3v2 tag.
type Tag struct {
	// Header is the decoded tag header.
	Header stream.TagHeader

	// Frames holds the retained frames in tag order, duplicates
	// removed.
	Frames []Frame
}

// First returns the first frame with the given id, or false.
func (t *Tag) First(id string) (Frame, bool) {
	for _, f := range t.Frames {
		if f.ID == id {
			return f, true
		}
	}

	return Frame{}, false
}

// All returns every frame with the given id, in tag order.
func (t *Tag) All(id string) []Frame {
	var out []Frame
	for _, f := range t.Frames {
		if f.ID == id {
			out = append(out, f)
		}
	}

	return out
}

// Text decodes the first frame with the given id as a text frame.
// Returns "" if the frame is absent or malformed.
func (t *Tag) Text(id string) string {
	f, ok := t.First(id)
	if !ok {
		return ""
	}

	s, err := frames.Text(stream.Frame{ID: f.ID, Flags: f.Flags, Data: f.Data})
	if err != nil {
		return ""
	}

	return s
}

// Title returns the song title (TIT2, or TT2 for v2.2 tags).
func (t *Tag) Title() string {
	return t.textByVersion("TIT2", "TT2")
}

// Artist returns the lead performer (TPE1 / TP1).
func (t *Tag) Artist() string {
	return t.textByVersion("TPE1", "TP1")
}

// Album returns the album title (TALB / TAL).
func (t *Tag) Album() string {
	return t.textByVersion("TALB", "TAL")
}

func (t *Tag) textByVersion(v34, v22 string) string {
	if t.Header.Version >= 3 {
		return t.Text(v34)
	}

	return t.Text(v22)
}

// clone returns a copy of f with its payload duplicated, safe to keep
// after the parser recycles the original buffer.
func clone(f stream.Frame) Frame {
	return Frame{
		ID:    f.ID,
		Flags: f.Flags,
		Data:  bytes.Clone(f.Data),
	}
}
