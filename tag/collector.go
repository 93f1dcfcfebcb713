package tag

import (
	"github.com/cespare/xxhash/v2"

	"github.com/davrell/id3stream/stream"
)

// Collector is a stream.Sink that accumulates frames into a Tag.
//
// Sloppy writers emit the same frame twice (commonly after in-place tag
// edits); the collector drops byte-identical repeats, identified by an
// xxHash64 digest over the frame id and payload so large APIC payloads
// are not compared byte-by-byte against every prior frame.
//
// Use one Collector per tag; it is not safe for concurrent use.
type Collector struct {
	parser *stream.Parser
	tag    Tag
	seen   map[uint64]struct{}
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		seen: make(map[uint64]struct{}),
	}
}

// OnFrame implements stream.Sink. The payload is copied before the
// parser recycles its buffer.
func (c *Collector) OnFrame(f stream.Frame) {
	digest := frameDigest(f)
	if _, dup := c.seen[digest]; dup {
		return
	}
	c.seen[digest] = struct{}{}

	c.tag.Frames = append(c.tag.Frames, clone(f))
}

// Bind associates the collector with the parser feeding it, so Tag can
// pick up the tag header once parsed.
func (c *Collector) Bind(p *stream.Parser) {
	c.parser = p
}

// Tag returns the collected tag. Call after the parser reports Done;
// the header is filled in from the bound parser if available.
func (c *Collector) Tag() *Tag {
	if c.parser != nil {
		if hdr, ok := c.parser.Header(); ok {
			c.tag.Header = hdr
		}
	}

	return &c.tag
}

// frameDigest hashes the frame identity: id bytes, a separator that
// cannot occur inside an id, then the payload.
func frameDigest(f stream.Frame) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(f.ID)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(f.Data)

	return d.Sum64()
}
