package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davrell/id3stream/encoding"
)

type recordedFrame struct {
	id    string
	flags uint16
	data  []byte
}

// recorder is a Sink that copies every frame it sees, since the parser
// recycles payload buffers after each OnFrame call.
type recorder struct {
	frames []recordedFrame
}

func (r *recorder) OnFrame(f Frame) {
	r.frames = append(r.frames, recordedFrame{
		id:    f.ID,
		flags: f.Flags,
		data:  bytes.Clone(f.Data),
	})
}

func newTestParser(t *testing.T, opts ...Option) (*Parser, *recorder) {
	t.Helper()

	rec := &recorder{}
	p, err := NewParser(rec, opts...)
	require.NoError(t, err)

	return p, rec
}

// tagBytes assembles a 10-byte tag header followed by body. The
// declared size is encoded synchsafe, as the format requires.
func tagBytes(t *testing.T, version, tagFlags byte, size uint32, body []byte) []byte {
	t.Helper()

	ss, err := encoding.EncodeSynchsafe(size)
	require.NoError(t, err)

	b := []byte{'I', 'D', '3', version, 0x00, tagFlags}
	b = append(b, ss[:]...)

	return append(b, body...)
}

// frameV3 builds a v2.3 frame: 4-char id, plain 4-byte size, 2 flag bytes.
func frameV3(t *testing.T, id string, flags uint16, payload []byte) []byte {
	t.Helper()
	require.Len(t, id, 4)

	b := make([]byte, 0, frameHeaderLenV3+len(payload))
	b = append(b, id...)

	var size [4]byte
	encoding.PutUint32(size[:], uint32(len(payload)))
	b = append(b, size[:]...)

	var fl [2]byte
	encoding.PutUint16(fl[:], flags)
	b = append(b, fl[:]...)

	return append(b, payload...)
}

// frameV4 builds a v2.4 frame: 4-char id, synchsafe 4-byte size, 2 flag bytes.
func frameV4(t *testing.T, id string, flags uint16, payload []byte) []byte {
	t.Helper()
	require.Len(t, id, 4)

	b := make([]byte, 0, frameHeaderLenV3+len(payload))
	b = append(b, id...)

	size, err := encoding.EncodeSynchsafe(uint32(len(payload)))
	require.NoError(t, err)
	b = append(b, size[:]...)

	var fl [2]byte
	encoding.PutUint16(fl[:], flags)
	b = append(b, fl[:]...)

	return append(b, payload...)
}

// frameV2 builds a v2.2 frame: 3-char id, plain 3-byte size, no flags.
func frameV2(t *testing.T, id string, payload []byte) []byte {
	t.Helper()
	require.Len(t, id, 3)

	b := make([]byte, 0, frameHeaderLenV2+len(payload))
	b = append(b, id...)

	var size [3]byte
	encoding.PutUint24(size[:], uint32(len(payload)))
	b = append(b, size[:]...)

	return append(b, payload...)
}

// feedInChunks feeds data in fixed-size chunks until Done or input runs
// out, returning the final status and total bytes consumed.
func feedInChunks(t *testing.T, p *Parser, data []byte, chunkSize int) (Status, int) {
	t.Helper()

	total := 0
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))

		n, st, err := p.Feed(data[off:end])
		require.NoError(t, err)
		total += n

		if st == Done {
			return Done, total
		}
	}

	return NeedMoreData, total
}

func TestFeed_SingleChunk(t *testing.T) {
	// v2.3 tag, size 17: one TIT2 frame (10-byte header + "abcd") and
	// three bytes of the padding counted by the declared size, followed
	// by residual padding the parser never reads.
	body := frameV3(t, "TIT2", 0, []byte("abcd"))
	body = append(body, make([]byte, 9)...)
	data := tagBytes(t, 3, 0, 17, body)

	p, rec := newTestParser(t)
	n, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)

	require.Len(t, rec.frames, 1)
	require.Equal(t, "TIT2", rec.frames[0].id)
	require.Equal(t, uint16(0), rec.frames[0].flags)
	require.Equal(t, []byte("abcd"), rec.frames[0].data)

	// 10 header + 14 frame + 3 budgeted padding bytes; the remaining 6
	// padding bytes are never consumed.
	require.Equal(t, 27, n)

	hdr, ok := p.Header()
	require.True(t, ok)
	require.Equal(t, byte(3), hdr.Version)
	require.Equal(t, uint32(17), hdr.Size)
	require.Equal(t, hdr.Size, p.BytesProcessed())
}

func TestFeed_ChunkSizeInvariance(t *testing.T) {
	frames := [][]byte{
		frameV4(t, "TIT2", 0, []byte{0x03, 'T', 'i', 't', 'l', 'e'}),
		frameV4(t, "TLEN", 0, []byte("215000")),
		frameV4(t, "PRIV", 0x0040, bytes.Repeat([]byte{0xAB}, 300)),
	}
	body := bytes.Join(frames, nil)
	body = append(body, make([]byte, 12)...) // padding
	data := tagBytes(t, 4, 0, uint32(len(body)), body)

	// Reference run: everything in one chunk.
	ref, refRec := newTestParser(t)
	_, st, err := ref.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Len(t, refRec.frames, 3)

	for _, chunkSize := range []int{1, 2, 3, 7, 16, 255} {
		p, rec := newTestParser(t)
		st, _ := feedInChunks(t, p, data, chunkSize)
		require.Equal(t, Done, st, "chunk size %d", chunkSize)
		require.Equal(t, refRec.frames, rec.frames, "chunk size %d", chunkSize)
	}
}

func TestFeed_VersionDispatch_V22(t *testing.T) {
	body := append(frameV2(t, "TT2", []byte{0x00, 'S', 'o', 'n', 'g'}),
		frameV2(t, "TP1", []byte{0x00, 'M', 'e'})...)
	data := tagBytes(t, 2, 0, uint32(len(body)), body)

	p, rec := newTestParser(t)
	_, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)

	require.Len(t, rec.frames, 2)
	require.Equal(t, "TT2", rec.frames[0].id)
	require.Equal(t, uint16(0), rec.frames[0].flags, "v2.2 frames carry no flags")
	require.Equal(t, []byte{0x00, 'S', 'o', 'n', 'g'}, rec.frames[0].data)
	require.Equal(t, "TP1", rec.frames[1].id)
}

func TestFeed_VersionDispatch_SizeEncoding(t *testing.T) {
	// A 128-byte payload distinguishes the size encodings: plain
	// 0x00000080 decodes as 0 when read synchsafe, and synchsafe 128
	// (0x00 0x00 0x01 0x00) decodes as 256 when read plain.
	payload := bytes.Repeat([]byte{0x55}, 128)

	t.Run("v2.3 plain", func(t *testing.T) {
		body := frameV3(t, "APIC", 0, payload)
		data := tagBytes(t, 3, 0, uint32(len(body)), body)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
		require.Equal(t, payload, rec.frames[0].data)
	})

	t.Run("v2.4 synchsafe", func(t *testing.T) {
		body := frameV4(t, "APIC", 0, payload)
		data := tagBytes(t, 4, 0, uint32(len(body)), body)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
		require.Equal(t, payload, rec.frames[0].data)
	})
}

func TestFeed_PaddingTerminatesEarly(t *testing.T) {
	// Declared size far exceeds the single frame; a zero-leading frame
	// header ends parsing with no further callback.
	body := frameV3(t, "TALB", 0, []byte("LP"))
	body = append(body, make([]byte, 40)...)
	data := tagBytes(t, 3, 0, 100, body)

	p, rec := newTestParser(t)
	_, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Len(t, rec.frames, 1)
	require.Equal(t, "TALB", rec.frames[0].id)
}

func TestFeed_ZeroSizeFrame(t *testing.T) {
	body := frameV3(t, "TIT2", 0, nil)
	body = append(body, frameV3(t, "TRCK", 0, []byte("7"))...)
	data := tagBytes(t, 3, 0, uint32(len(body)), body)

	p, rec := newTestParser(t)
	_, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)

	require.Len(t, rec.frames, 2)
	require.Equal(t, "TIT2", rec.frames[0].id)
	require.Empty(t, rec.frames[0].data)
	require.Equal(t, "TRCK", rec.frames[1].id)
}

func TestFeed_ZeroSizeFrameAtEndOfTag(t *testing.T) {
	// The zero-size frame's callback must fire in the same feed call
	// that completes its header, even with no payload bytes following.
	body := frameV4(t, "TFLT", 0, nil)
	data := tagBytes(t, 4, 0, uint32(len(body)), body)

	p, rec := newTestParser(t)
	n, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Equal(t, len(data), n)
	require.Len(t, rec.frames, 1)
	require.Empty(t, rec.frames[0].data)
}

func TestFeed_ExtendedHeader(t *testing.T) {
	// The decoded extended-header size counts its own 4-byte size
	// field, so a size of 10 discards 6 further bytes.
	frame := frameV3(t, "TCON", 0, []byte{0x00, 'R', 'o', 'c', 'k'})

	t.Run("v2.3 plain size", func(t *testing.T) {
		ext := []byte{0x00, 0x00, 0x00, 0x0A, 1, 2, 3, 4, 5, 6}
		body := append(append([]byte{}, ext...), frame...)
		data := tagBytes(t, 3, FlagExtendedHeader, uint32(len(body)), body)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
		require.Equal(t, "TCON", rec.frames[0].id)
	})

	t.Run("v2.4 synchsafe size", func(t *testing.T) {
		ss, err := encoding.EncodeSynchsafe(10)
		require.NoError(t, err)
		ext := append(ss[:], 1, 2, 3, 4, 5, 6)
		body := append(append([]byte{}, ext...), frame...)
		data := tagBytes(t, 4, FlagExtendedHeader, uint32(len(body)), body)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})

	t.Run("split across one-byte feeds", func(t *testing.T) {
		ext := []byte{0x00, 0x00, 0x00, 0x0A, 1, 2, 3, 4, 5, 6}
		body := append(append([]byte{}, ext...), frame...)
		data := tagBytes(t, 3, FlagExtendedHeader, uint32(len(body)), body)

		p, rec := newTestParser(t)
		st, _ := feedInChunks(t, p, data, 1)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
		require.Equal(t, "TCON", rec.frames[0].id)
	})

	t.Run("v2.2 never has one", func(t *testing.T) {
		// Flag bit set on a v2.2 tag is ignored.
		f2 := frameV2(t, "TT2", []byte{0x00, 'X'})
		data := tagBytes(t, 2, FlagExtendedHeader, uint32(len(f2)), f2)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})
}

func TestFeed_SignatureScan(t *testing.T) {
	body := frameV3(t, "TIT2", 0, []byte("x"))
	tag := tagBytes(t, 3, 0, uint32(len(body)), body)

	t.Run("junk before signature", func(t *testing.T) {
		// Junk includes 'I' and "ID" false starts.
		data := append([]byte("garbage I ID xx"), tag...)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})

	t.Run("split across chunks", func(t *testing.T) {
		data := append([]byte("junk"), tag...)

		p, rec := newTestParser(t)
		// "junkI" then "D3..." exercises the partial-match carry.
		n1, st, err := p.Feed(data[:5])
		require.NoError(t, err)
		require.Equal(t, NeedMoreData, st)
		require.Equal(t, 5, n1)

		_, st, err = p.Feed(data[5:])
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})

	t.Run("restart after false start", func(t *testing.T) {
		// "IDID3" must still find the signature.
		data := append([]byte("ID"), tag...)

		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})
}

func TestFeed_TrailingBytesLeftForCaller(t *testing.T) {
	body := frameV3(t, "TIT2", 0, []byte("x"))
	data := tagBytes(t, 3, 0, uint32(len(body)), body)
	audio := []byte{0xFF, 0xFB, 0x90, 0x64} // MPEG frame sync
	data = append(data, audio...)

	p, _ := newTestParser(t)
	n, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Equal(t, audio, data[n:])

	// Feeds after Done consume nothing.
	n, st, err = p.Feed(audio)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Zero(t, n)
}

func TestFeed_FrameTooLarge(t *testing.T) {
	body := frameV3(t, "APIC", 0, bytes.Repeat([]byte{1}, 64))
	data := tagBytes(t, 3, 0, uint32(len(body)), body)

	p, rec := newTestParser(t, WithMaxFrameSize(16))
	_, _, err := p.Feed(data)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Empty(t, rec.frames)

	// The failure is sticky until Reset.
	n, _, err := p.Feed(data)
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Zero(t, n)

	p.Reset()
	small := frameV3(t, "TIT2", 0, []byte("ok"))
	_, st, err := p.Feed(tagBytes(t, 3, 0, uint32(len(small)), small))
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Len(t, rec.frames, 1)
}

func TestFeed_FrameIDValidation(t *testing.T) {
	bad := frameV3(t, "ti*2", 0, []byte("x"))
	data := tagBytes(t, 3, 0, uint32(len(bad)), bad)

	t.Run("off by default", func(t *testing.T) {
		p, rec := newTestParser(t)
		_, st, err := p.Feed(data)
		require.NoError(t, err)
		require.Equal(t, Done, st)
		require.Len(t, rec.frames, 1)
	})

	t.Run("enabled", func(t *testing.T) {
		p, _ := newTestParser(t, WithFrameIDValidation())
		_, _, err := p.Feed(data)
		require.ErrorIs(t, err, ErrInvalidFrameID)
	})
}

func TestReset_MidFrame(t *testing.T) {
	body := frameV3(t, "APIC", 0, bytes.Repeat([]byte{7}, 100))
	data := tagBytes(t, 3, 0, uint32(len(body)), body)

	p, rec := newTestParser(t)

	// Stop mid-payload: header decoded, buffer allocated, 20 of 100
	// payload bytes delivered.
	n, st, err := p.Feed(data[:40])
	require.NoError(t, err)
	require.Equal(t, NeedMoreData, st)
	require.Equal(t, 40, n)
	require.NotNil(t, p.payloadBuf, "a frame should be in flight")

	p.Reset()
	require.Nil(t, p.payloadBuf)
	require.Empty(t, rec.frames)

	// Double Reset is harmless.
	p.Reset()

	// The parser is reusable after Reset.
	_, st, err = p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, Done, st)
	require.Len(t, rec.frames, 1)
}

func TestFeed_FrameOverrunsTagBudget(t *testing.T) {
	// Frame declares 50 payload bytes but the tag budget only covers
	// 20. The parser must never read past the declared tag size; the
	// surplus input stays unconsumed and the frame never completes.
	frame := frameV3(t, "TXXX", 0, bytes.Repeat([]byte{9}, 50))
	data := tagBytes(t, 3, 0, 30, frame) // 10 header + 20 payload budget

	p, rec := newTestParser(t)
	n, st, err := p.Feed(data)
	require.NoError(t, err)
	require.Equal(t, NeedMoreData, st)
	require.Empty(t, rec.frames)
	require.Equal(t, 10+30, n) // tag header + full budget, nothing more
	require.Equal(t, uint32(30), p.BytesProcessed())
}

func TestNewParser_Validation(t *testing.T) {
	_, err := NewParser(nil)
	require.ErrorIs(t, err, ErrNilSink)

	_, err = NewParser(SinkFunc(func(Frame) {}), WithMaxFrameSize(0))
	require.Error(t, err)
}

func TestStatus_String(t *testing.T) {
	require.Equal(t, "NeedMoreData", NeedMoreData.String())
	require.Equal(t, "Done", Done.String())
	require.Equal(t, "Status(9)", Status(9).String())
}
