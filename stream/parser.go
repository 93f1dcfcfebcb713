package stream

import (
	"errors"
	"fmt"

	"github.com/davrell/id3stream/encoding"
	"github.com/davrell/id3stream/internal/options"
	"github.com/davrell/id3stream/internal/pool"
)

// Status is the per-feed result of the parser.
type Status int

const (
	// NeedMoreData means the tag is not finished; keep feeding chunks.
	NeedMoreData Status = 0

	// Done means the tag is fully consumed. Any unconsumed bytes of the
	// last chunk (and everything after) belong to the caller's next
	// concern, typically audio data.
	Done Status = 1
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case NeedMoreData:
		return "NeedMoreData"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	// ErrNilSink is returned by NewParser when no sink is supplied.
	ErrNilSink = errors.New("stream: nil frame sink")

	// ErrFrameTooLarge is returned (wrapped) when a frame header
	// declares a payload above the configured ceiling. The declared
	// size field is attacker-controlled input, so it is checked before
	// any buffer is sized from it.
	ErrFrameTooLarge = errors.New("stream: frame size exceeds limit")

	// ErrInvalidFrameID is returned (wrapped) when frame-id validation
	// is enabled and a header contains characters outside A-Z/0-9.
	ErrInvalidFrameID = errors.New("stream: invalid frame id")
)

// DefaultMaxFrameSize is the default ceiling for a single frame
// payload. Large enough for any realistic embedded artwork, small
// enough that a corrupt size field cannot demand an absurd allocation.
const DefaultMaxFrameSize uint32 = 64 << 20

const (
	tagHeaderLen     = 10
	frameHeaderLenV3 = 10
	frameHeaderLenV2 = 6
	extSizeFieldLen  = 4
)

var signature = [3]byte{'I', 'D', '3'}

type state int

const (
	stateFindSignature state = iota
	stateReadHeader
	stateReadExtHeader
	stateReadFrameHeader
	stateReadFrameData
	stateDone
)

// Parser is the incremental ID3v2 tag parser. Create one with
// NewParser; the zero value is not usable.
//
// Extended headers are skipped, not decoded: the 4-byte size field is
// read (synchsafe for v2.4, plain for v2.3) and the header is consumed
// as a byte count that includes the size field itself, matching
// longstanding reader behavior for both versions.
//
// Parser is not safe for concurrent use.
type Parser struct {
	sink         Sink
	maxFrameSize uint32
	validateIDs  bool

	state      state
	scratch    [tagHeaderLen]byte
	scratchLen int
	sigMatched int

	header    TagHeader
	hasHeader bool
	processed uint32

	extSize uint32
	extRead uint32

	frameID    string
	frameFlags uint16
	payloadBuf *pool.ByteBuffer
	frameData  []byte
	frameRead  int

	failed error
}

// Option configures a Parser.
type Option = options.Option[*Parser]

// WithMaxFrameSize sets the ceiling for a single frame payload.
// Frames declaring a larger size fail the feed with ErrFrameTooLarge.
func WithMaxFrameSize(n uint32) Option {
	return options.New(func(p *Parser) error {
		if n == 0 {
			return errors.New("stream: max frame size must be positive")
		}
		p.maxFrameSize = n

		return nil
	})
}

// WithFrameIDValidation rejects frame headers whose id contains
// characters outside A-Z and 0-9. Off by default: the format only
// requires a leading zero byte to be treated as padding, and some
// writers emit experimental lowercase ids.
func WithFrameIDValidation() Option {
	return options.NoError(func(p *Parser) {
		p.validateIDs = true
	})
}

// NewParser creates a parser that delivers completed frames to sink.
//
// Returns an error if sink is nil or an option is invalid.
func NewParser(sink Sink, opts ...Option) (*Parser, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	p := &Parser{
		sink:         sink,
		maxFrameSize: DefaultMaxFrameSize,
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	return p, nil
}

// Header returns the decoded tag header and true once the 10-byte
// header has been parsed.
func (p *Parser) Header() (TagHeader, bool) {
	return p.header, p.hasHeader
}

// BytesProcessed returns how many bytes of the declared tag size have
// been consumed so far. Never exceeds Header().Size.
func (p *Parser) BytesProcessed() uint32 {
	return p.processed
}

// Reset releases any in-flight frame buffer and returns the parser to
// its initial state, ready for a new byte stream. Safe to call at any
// point, any number of times, including after a failed feed.
func (p *Parser) Reset() {
	p.releaseFrame()

	p.state = stateFindSignature
	p.scratchLen = 0
	p.sigMatched = 0
	p.header = TagHeader{}
	p.hasHeader = false
	p.processed = 0
	p.extSize = 0
	p.extRead = 0
	p.failed = nil
}

// Feed advances the parser with the next chunk of the byte stream.
//
// It consumes as many bytes as the state machine allows and returns the
// number consumed together with a status. NeedMoreData means the caller
// should feed the next chunk; Done means the tag is complete and bytes
// chunk[n:] were deliberately left untouched for the caller. Completed
// frames are pushed to the sink before Feed returns.
//
// A non-nil error is fatal: the parser stays failed (subsequent feeds
// return the same error without consuming bytes) until Reset.
func (p *Parser) Feed(chunk []byte) (n int, st Status, err error) {
	if p.failed != nil {
		return 0, NeedMoreData, p.failed
	}

	i := 0
	for p.state != stateDone {
		switch p.state {
		case stateFindSignature:
			if i >= len(chunk) {
				return i, NeedMoreData, nil
			}
			i += p.scanSignature(chunk[i:])

		case stateReadHeader:
			i += p.fill(chunk[i:], tagHeaderLen)
			if p.scratchLen < tagHeaderLen {
				return i, NeedMoreData, nil
			}
			p.finishHeader()

		case stateReadExtHeader:
			done, consumed := p.skipExtHeader(chunk[i:])
			i += consumed
			if !done {
				return i, NeedMoreData, nil
			}

		case stateReadFrameHeader:
			if p.processed >= p.header.Size {
				p.state = stateDone
				continue
			}
			hdrLen := p.header.frameHeaderLen()
			i += p.fillBudgeted(chunk[i:], hdrLen)
			if p.scratchLen < hdrLen {
				if p.processed >= p.header.Size {
					// Tag budget ran out inside a frame header: the
					// remainder cannot be a frame, treat as end of tag.
					p.state = stateDone
					continue
				}

				return i, NeedMoreData, nil
			}
			if p.scratch[0] == 0 {
				// Padding. Done halts processing; residual padding
				// bytes are simply never read.
				p.state = stateDone
				continue
			}
			if err := p.beginFrame(); err != nil {
				p.failed = err

				return i, NeedMoreData, err
			}
			p.state = stateReadFrameData

		case stateReadFrameData:
			i += p.fillFrame(chunk[i:])
			if p.frameRead < len(p.frameData) {
				// Not complete: either the chunk is exhausted, or the
				// declared frame size overruns the tag budget (a
				// malformed tag the reference parser spins on; here the
				// excess bytes stay unconsumed for the caller).
				return i, NeedMoreData, nil
			}
			p.finishFrame()
		}
	}

	return i, Done, nil
}

// scanSignature consumes bytes until the "ID3" signature completes,
// carrying partial matches across Feed calls so a signature split over
// a chunk boundary is still found.
func (p *Parser) scanSignature(in []byte) int {
	i := 0
	for i < len(in) {
		b := in[i]
		i++

		switch {
		case b == signature[p.sigMatched]:
			p.sigMatched++
			if p.sigMatched == len(signature) {
				copy(p.scratch[:], signature[:])
				p.scratchLen = len(signature)
				p.sigMatched = 0
				p.state = stateReadHeader

				return i
			}
		case b == signature[0]:
			// Mismatched byte restarts a match ("IID3", "IDID3").
			p.sigMatched = 1
		default:
			p.sigMatched = 0
		}
	}

	return i
}

// fill copies bytes into scratch up to target, unconstrained by the tag
// budget (used for the tag header, which precedes the budget).
func (p *Parser) fill(in []byte, target int) int {
	n := min(target-p.scratchLen, len(in))
	copy(p.scratch[p.scratchLen:], in[:n])
	p.scratchLen += n

	return n
}

// fillBudgeted copies bytes into scratch up to target, also bounded by
// the remaining tag budget, counting each byte against it.
func (p *Parser) fillBudgeted(in []byte, target int) int {
	n := min(target-p.scratchLen, len(in), int(p.header.Size-p.processed))
	copy(p.scratch[p.scratchLen:], in[:n])
	p.scratchLen += n
	p.processed += uint32(n)

	return n
}

// finishHeader decodes the completed 10-byte tag header and selects the
// next state.
func (p *Parser) finishHeader() {
	p.header = TagHeader{
		Version:  p.scratch[3],
		Revision: p.scratch[4],
		Flags:    p.scratch[5],
		Size:     encoding.DecodeSynchsafe(p.scratch[6:10]),
	}
	p.hasHeader = true
	p.processed = 0
	p.scratchLen = 0

	if p.header.HasExtendedHeader() {
		p.extSize = 0
		p.extRead = 0
		p.state = stateReadExtHeader
	} else {
		p.state = stateReadFrameHeader
	}
}

// skipExtHeader consumes the extended header: the 4-byte size field
// first, then the remaining declared bytes. The decoded size counts the
// size field itself, so size-4 further bytes are discarded. Reports
// whether the extended header is fully consumed.
func (p *Parser) skipExtHeader(in []byte) (bool, int) {
	i := 0

	if p.scratchLen < extSizeFieldLen {
		i += p.fillBudgeted(in, extSizeFieldLen)
		if p.scratchLen < extSizeFieldLen {
			if p.processed >= p.header.Size {
				// Budget exhausted inside the size field; nothing left
				// to skip, let the frame-header state finish the tag.
				p.state = stateReadFrameHeader
				p.scratchLen = 0

				return true, i
			}

			return false, i
		}

		// Decode exactly once, when the 4th byte arrives.
		if p.header.Version == 4 {
			p.extSize = encoding.DecodeSynchsafe(p.scratch[:extSizeFieldLen])
		} else {
			p.extSize = encoding.DecodeUint32(p.scratch[:extSizeFieldLen])
		}
		p.extRead = extSizeFieldLen
	}

	skip := min(
		int(p.extSize)-int(p.extRead),
		len(in)-i,
		int(p.header.Size-p.processed),
	)
	if skip > 0 {
		i += skip
		p.extRead += uint32(skip)
		p.processed += uint32(skip)
	}

	if p.extRead >= p.extSize || p.processed >= p.header.Size {
		p.state = stateReadFrameHeader
		p.scratchLen = 0

		return true, i
	}

	return false, i
}

// beginFrame decodes the completed frame header in scratch, validates
// it, and sizes a pooled payload buffer to exactly the declared size.
func (p *Parser) beginFrame() error {
	var (
		id    string
		size  uint32
		flags uint16
	)

	if p.header.Version >= 3 {
		id = string(p.scratch[0:4])
		if p.header.Version == 4 {
			size = encoding.DecodeSynchsafe(p.scratch[4:8])
		} else {
			size = encoding.DecodeUint32(p.scratch[4:8])
		}
		flags = encoding.DecodeUint16(p.scratch[8:10])
	} else {
		id = string(p.scratch[0:3])
		size = encoding.DecodeUint24(p.scratch[3:6])
	}

	if p.validateIDs {
		for j := 0; j < len(id); j++ {
			c := id[j]
			if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				return fmt.Errorf("%w: %q", ErrInvalidFrameID, id)
			}
		}
	}

	if size > p.maxFrameSize {
		return fmt.Errorf("%w: frame %s declares %d bytes (limit %d)",
			ErrFrameTooLarge, id, size, p.maxFrameSize)
	}

	p.frameID = id
	p.frameFlags = flags
	p.payloadBuf = pool.GetPayloadBuffer()
	p.frameData = p.payloadBuf.Resize(int(size))
	p.frameRead = 0

	return nil
}

// fillFrame copies payload bytes into the current frame buffer, bounded
// by the chunk, the frame size and the tag budget.
func (p *Parser) fillFrame(in []byte) int {
	n := min(len(p.frameData)-p.frameRead, len(in), int(p.header.Size-p.processed))
	if n <= 0 {
		return 0
	}

	copy(p.frameData[p.frameRead:], in[:n])
	p.frameRead += n
	p.processed += uint32(n)

	return n
}

// finishFrame delivers the completed frame to the sink, recycles its
// buffer and rearms the frame-header state.
func (p *Parser) finishFrame() {
	p.sink.OnFrame(Frame{
		ID:    p.frameID,
		Flags: p.frameFlags,
		Data:  p.frameData,
	})

	p.releaseFrame()
	p.scratchLen = 0
	p.state = stateReadFrameHeader
}

// releaseFrame returns the in-flight payload buffer, if any, to the
// pool. Idempotent.
func (p *Parser) releaseFrame() {
	if p.payloadBuf != nil {
		pool.PutPayloadBuffer(p.payloadBuf)
		p.payloadBuf = nil
	}
	p.frameData = nil
	p.frameRead = 0
	p.frameID = ""
	p.frameFlags = 0
}
