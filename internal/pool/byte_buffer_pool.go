package pool

import (
	"errors"
	"io"
	"sync"
)

// Buffer sizing for inflate output. SOP payloads are JSON documents that usually
// expand 5-20x over their deflated size.
const (
	DecodeBufferDefaultSize  = 1024 * 64        // 64KiB
	DecodeBufferMaxThreshold = 1024 * 1024 * 4  // 4MiB
	minReadSize              = 1024 * 4         // 4KiB
	largeBufferThreshold     = 1024 * 1024 * 16 // 16MiB
)

// ErrReadLimit is returned by ReadFromLimit when the source holds more than the allowed bytes.
var ErrReadLimit = errors.New("read limit exceeded")

// ByteBuffer is a growable byte slice used to collect inflate output.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Clone returns a copy of the buffered bytes that does not alias the pooled memory.
func (bb *ByteBuffer) Clone() []byte {
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes without reallocating.
// If the buffer has sufficient capacity, Grow does nothing.
//
// The growth strategy is as follows:
//   - Up to 16MiB, double the capacity.
//   - Past that, grow by 25% of current capacity to limit over-allocation.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := cap(bb.B)
	if growBy < DecodeBufferDefaultSize {
		growBy = DecodeBufferDefaultSize
	}
	if cap(bb.B) > largeBufferThreshold {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ReadFrom reads from r until EOF and appends everything to the buffer.
// It implements io.ReaderFrom.
func (bb *ByteBuffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		bb.Grow(minReadSize)
		start := len(bb.B)
		n, err := r.Read(bb.B[start:cap(bb.B)])
		bb.B = bb.B[:start+n]
		total += int64(n)

		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// ReadFromLimit behaves like ReadFrom but fails with ErrReadLimit once more than
// limit bytes were produced. A non-positive limit disables the check.
func (bb *ByteBuffer) ReadFromLimit(r io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return bb.ReadFrom(r)
	}

	n, err := bb.ReadFrom(io.LimitReader(r, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, ErrReadLimit
	}

	return n, nil
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// It uses sync.Pool internally to manage the buffers.
// The pool can be configured with a maximum size threshold to avoid retaining
// overly large buffers that could lead to memory bloat.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int // Optional maximum size threshold for buffers
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
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

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		// Discard overly large buffers to prevent memory bloat
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var decodeDefaultPool = NewByteBufferPool(DecodeBufferDefaultSize, DecodeBufferMaxThreshold)

// GetDecodeBuffer retrieves a ByteBuffer from the default decode pool.
func GetDecodeBuffer() *ByteBuffer {
	return decodeDefaultPool.Get()
}

// PutDecodeBuffer returns a ByteBuffer to the default decode pool.
func PutDecodeBuffer(bb *ByteBuffer) {
	decodeDefaultPool.Put(bb)
}
