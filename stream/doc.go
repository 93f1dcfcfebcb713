// Package stream implements an incremental ID3v2 tag parser.
//
// The parser is fed byte chunks of arbitrary size, in order, and owns
// all cross-call state: it resumes exactly where the previous Feed call
// stopped, so callers never buffer a whole tag themselves. Versions
// 2.2, 2.3 and 2.4 are supported, with the version-dependent field
// widths (3- vs 4-character frame ids, 6- vs 10-byte frame headers,
// synchsafe vs plain 32-bit sizes) handled internally.
//
// Completed frames are delivered synchronously to a caller-supplied
// Sink during the Feed call in which their last byte arrives. The
// payload slice handed to the sink is a borrowed view of a pooled
// buffer and is recycled as soon as the sink returns; sinks that need
// the bytes afterwards must copy them (the tag package's Collector
// does exactly that).
//
// # Basic usage
//
//	p, err := stream.NewParser(stream.SinkFunc(func(f stream.Frame) {
//	    fmt.Printf("%s: %d bytes\n", f.ID, f.Size())
//	}))
//	if err != nil {
//	    return err
//	}
//	defer p.Reset()
//
//	for {
//	    n, _ := src.Read(buf)
//	    _, st, err := p.Feed(buf[:n])
//	    if err != nil || st == stream.Done {
//	        return err
//	    }
//	}
//
// The parser performs no I/O and is not safe for concurrent use; wrap
// it externally if shared across goroutines.
package stream
