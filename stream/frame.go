package stream

// Frame is a completed ID3v2 frame as delivered to a Sink.
//
// Data is a borrowed view into a parser-owned buffer: it is valid only
// for the duration of the OnFrame call and is recycled immediately
// afterwards. Copy the bytes to retain them.
type Frame struct {
	// ID is the frame identifier: 3 ASCII characters for v2.2 tags
	// (e.g. "TT2"), 4 for v2.3/v2.4 (e.g. "TIT2").
	ID string

	// Flags is the raw 2-byte frame flag word. Always 0 for v2.2,
	// which has no flag field.
	Flags uint16

	// Data is the frame payload, exactly the declared frame size.
	Data []byte
}

// Size returns the payload length in bytes.
func (f Frame) Size() int {
	return len(f.Data)
}

// Sink receives completed frames, synchronously, inside the Feed call
// that completed them. Implementations must not retain f.Data and must
// not call back into the parser.
type Sink interface {
	OnFrame(f Frame)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(f Frame)

// OnFrame calls fn(f).
func (fn SinkFunc) OnFrame(f Frame) {
	fn(f)
}
