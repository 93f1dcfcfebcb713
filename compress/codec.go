// Package compress provides the compression codec used by ID3v2 frame
// payloads. The format specifies exactly one algorithm, zlib, applied
// per frame when the frame's compression flag is set.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compressor compresses a byte payload. Used when synthesizing
// compressed frames (tests, tag writers).
type Compressor interface {
	// Compress returns a newly allocated compressed copy of data. The
	// input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a compressed frame payload.
type Decompressor interface {
	// Decompress returns a newly allocated decompressed copy of data.
	// Returns an error if the input is corrupt or not in the codec's
	// format. The input is not modified.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of a compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// ZlibCodec implements Codec with zlib, the only compression method
// ID3v2 defines for frames.
type ZlibCodec struct{}

var _ Codec = ZlibCodec{}

// NewZlibCodec creates a zlib codec. The codec is stateless and safe
// for concurrent use.
func NewZlibCodec() ZlibCodec {
	return ZlibCodec{}
}

// Compress compresses data with zlib at the default level.
func (ZlibCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates zlib-compressed data.
func (ZlibCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}

	return out, nil
}

// NoopCodec passes data through unchanged. Used for frames whose
// compression flag is clear, so callers can select a codec once and
// apply it unconditionally.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

// Compress returns data unchanged.
func (NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
