// Package id3stream reads ID3v2 metadata tags (versions 2.2 through
// 2.4) from the front of MP3 and other audio streams.
//
// The core is an incremental parser that is fed byte chunks of any size
// and owns all cross-call state, so tags can be decoded from sockets or
// partial reads without buffering the whole tag. Completed frames are
// delivered to a sink as their last byte arrives.
//
// # Basic Usage
//
// Collect a file's tag into a queryable structure:
//
//	t, err := id3stream.ReadTag("song.mp3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s - %s\n", t.Artist(), t.Title())
//
// Stream frames without retaining them:
//
//	hdr, err := id3stream.ScanFile("song.mp3", stream.SinkFunc(func(f stream.Frame) {
//	    fmt.Printf("%s: %d bytes\n", f.ID, f.Size())
//	}))
//
// # Package Structure
//
// This package provides convenient top-level wrappers. For fine-grained
// control use the subpackages directly: stream (the chunk-fed parser),
// frames (frame-content decoding), tag (collected tags), encoding
// (synchsafe integers), compress (frame zlib codec).
package id3stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/davrell/id3stream/internal/pool"
	"github.com/davrell/id3stream/stream"
	"github.com/davrell/id3stream/tag"
)

var (
	// ErrNoTag is returned when the input ends without an "ID3"
	// signature being found.
	ErrNoTag = errors.New("id3stream: no ID3v2 tag found")

	// ErrTruncatedTag is returned (wrapped) when the input ends inside
	// a tag: a header was found but the declared size never arrived.
	ErrTruncatedTag = errors.New("id3stream: truncated tag")
)

// ScanReader streams r through an ID3v2 parser, delivering each
// completed frame to sink, and returns the decoded tag header once the
// tag is fully consumed.
//
// Reading stops at the end of the tag; bytes after it are left in r for
// the caller (subject to the read chunking, so use a buffered reader if
// the trailing position matters).
//
// Returns ErrNoTag if the stream ends without a tag, and a wrapped
// ErrTruncatedTag if the stream ends mid-tag.
func ScanReader(r io.Reader, sink stream.Sink, opts ...stream.Option) (stream.TagHeader, error) {
	p, err := stream.NewParser(sink, opts...)
	if err != nil {
		return stream.TagHeader{}, err
	}
	defer p.Reset()

	return scan(r, p)
}

// ScanFile is ScanReader over the named file.
func ScanFile(path string, sink stream.Sink, opts ...stream.Option) (stream.TagHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return stream.TagHeader{}, fmt.Errorf("id3stream: %w", err)
	}
	defer f.Close()

	return ScanReader(f, sink, opts...)
}

// ReadTagReader collects the tag at the front of r into a retained Tag.
func ReadTagReader(r io.Reader, opts ...stream.Option) (*tag.Tag, error) {
	c := tag.NewCollector()
	p, err := stream.NewParser(c, opts...)
	if err != nil {
		return nil, err
	}
	c.Bind(p)
	defer p.Reset()

	if _, err := scan(r, p); err != nil {
		return nil, err
	}

	return c.Tag(), nil
}

// ReadTag collects the tag of the named file into a retained Tag.
func ReadTag(path string, opts ...stream.Option) (*tag.Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("id3stream: %w", err)
	}
	defer f.Close()

	return ReadTagReader(f, opts...)
}

// ReadTags reads the tags of multiple files concurrently, up to
// runtime.NumCPU() files at a time. Results are in input order. The
// first failure cancels the remaining reads and is returned.
func ReadTags(ctx context.Context, paths ...string) ([]*tag.Tag, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*tag.Tag, len(paths))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			t, err := ReadTag(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = t

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// scan drives the feed loop with a pooled chunk buffer until the
// parser reports Done or the reader runs dry.
func scan(r io.Reader, p *stream.Parser) (stream.TagHeader, error) {
	bb := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(bb)
	buf := bb.Resize(pool.ChunkBufferSize)

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			consumed, st, ferr := p.Feed(buf[:n])
			if ferr != nil {
				return stream.TagHeader{}, ferr
			}
			if st == stream.Done {
				hdr, _ := p.Header()

				return hdr, nil
			}
			if consumed < n {
				// The parser stopped inside the chunk without
				// finishing: a frame overruns the declared tag size.
				hdr, _ := p.Header()

				return hdr, fmt.Errorf("%w: frame overruns declared tag size", ErrTruncatedTag)
			}
		}

		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				return stream.TagHeader{}, fmt.Errorf("id3stream: read: %w", rerr)
			}

			if hdr, ok := p.Header(); ok {
				return hdr, fmt.Errorf("%w: got %d of %d declared bytes",
					ErrTruncatedTag, p.BytesProcessed(), hdr.Size)
			}

			return stream.TagHeader{}, ErrNoTag
		}
	}
}
