// Package pool provides pooled byte buffers for the streaming parser.
//
// Frame payloads are sized by the tag being parsed, so the parser churns
// through one exact-size buffer per frame. Recycling those buffers
// through a sync.Pool keeps steady-state parsing allocation-free for
// typical frame sizes while refusing to retain pathological ones.
package pool

import "sync"

const (
	// PayloadBufferDefaultSize is the initial capacity of pooled frame
	// payload buffers. Most real-world frames (text, comments) are far
	// smaller; APIC frames grow the buffer on demand.
	PayloadBufferDefaultSize = 4 * 1024

	// PayloadBufferMaxThreshold is the largest buffer capacity the pool
	// will retain. Buffers grown beyond this (e.g. for embedded artwork)
	// are dropped on Put to avoid memory bloat.
	PayloadBufferMaxThreshold = 1024 * 1024

	// ChunkBufferSize is the read-chunk size used by the facade scan
	// loop. One chunk covers the vast majority of tags in a single feed.
	ChunkBufferSize = 32 * 1024
)

// ByteBuffer is a reusable byte slice with explicit length control.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the current length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Reset empties the buffer while retaining its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Resize sets the buffer length to exactly n bytes, reallocating only
// when the current capacity is insufficient, and returns the resulting
// slice. The contents of the slice are unspecified; callers fill it.
//
// Panics if n is negative.
func (bb *ByteBuffer) Resize(n int) []byte {
	if n < 0 {
		panic("pool: Resize with negative length")
	}

	if cap(bb.B) < n {
		bb.B = make([]byte, n)
	} else {
		bb.B = bb.B[:n]
	}

	return bb.B
}

// ByteBufferPool recycles ByteBuffers through a sync.Pool, discarding
// buffers whose capacity exceeds maxThreshold.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool handing out buffers with the given
// default capacity. Buffers larger than maxThreshold are not retained;
// a maxThreshold of 0 disables the limit.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse. Nil buffers and
// buffers above the retention threshold are dropped.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	payloadPool = NewByteBufferPool(PayloadBufferDefaultSize, PayloadBufferMaxThreshold)
	chunkPool   = NewByteBufferPool(ChunkBufferSize, ChunkBufferSize)
)

// GetPayloadBuffer retrieves a frame payload buffer from the default pool.
func GetPayloadBuffer() *ByteBuffer {
	return payloadPool.Get()
}

// PutPayloadBuffer returns a frame payload buffer to the default pool.
func PutPayloadBuffer(bb *ByteBuffer) {
	payloadPool.Put(bb)
}

// GetChunkBuffer retrieves a scan-chunk buffer from the default pool.
func GetChunkBuffer() *ByteBuffer {
	return chunkPool.Get()
}

// PutChunkBuffer returns a scan-chunk buffer to the default pool.
func PutChunkBuffer(bb *ByteBuffer) {
	chunkPool.Put(bb)
}
