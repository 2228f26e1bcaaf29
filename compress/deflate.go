package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/arloliu/sopkit/internal/pool"
)

// Deflate family compression levels.
const (
	NoCompression   = flate.NoCompression
	BestSpeed       = flate.BestSpeed
	BestCompression = flate.BestCompression
	DefaultLevel    = flate.DefaultCompression
)

// flateReaderPool pools raw inflaters. Reset fully reinitializes a reader, so one
// that failed on corrupt input is safe to hand out again.
var flateReaderPool = sync.Pool{
	New: func() any {
		return flate.NewReader(bytes.NewReader(nil))
	},
}

// inflateRaw inflates a headerless deflate stream. Bytes after the final block are ignored.
func inflateRaw(data []byte, limit int64) ([]byte, error) {
	fr, _ := flateReaderPool.Get().(io.ReadCloser)
	defer flateReaderPool.Put(fr)

	resetter, ok := fr.(flate.Resetter)
	if !ok {
		return nil, fmt.Errorf("flate reader %T does not support reset", fr)
	}
	if err := resetter.Reset(bytes.NewReader(data), nil); err != nil {
		return nil, err
	}

	return drain(fr, limit)
}

// inflateZlib inflates a zlib-framed stream, verifying the header and Adler-32 trailer.
func inflateZlib(data []byte, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return drain(zr, limit)
}

// inflateGzip inflates a single gzip member, verifying the CRC-32 and size trailer.
func inflateGzip(data []byte, limit int64) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	gr.Multistream(false)

	return drain(gr, limit)
}

// inflateAutoDetect picks gzip framing when the gzip magic is present and zlib
// framing otherwise.
func inflateAutoDetect(data []byte, limit int64) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return inflateGzip(data, limit)
	}

	return inflateZlib(data, limit)
}

// drain reads r to EOF through a pooled buffer and returns an unaliased copy.
func drain(r io.Reader, limit int64) ([]byte, error) {
	bb := pool.GetDecodeBuffer()
	defer pool.PutDecodeBuffer(bb)

	if _, err := bb.ReadFromLimit(r, limit); err != nil {
		if errors.Is(err, pool.ErrReadLimit) {
			return nil, fmt.Errorf("decompressed output exceeds %d bytes", limit)
		}

		return nil, err
	}

	return bb.Clone(), nil
}

// DeflateCodec compresses to and from raw (headerless) deflate streams.
type DeflateCodec struct {
	level int
}

var _ Codec = (*DeflateCodec)(nil)

// NewDeflateCodec creates a raw deflate codec with the given compression level.
func NewDeflateCodec(level int) DeflateCodec {
	return DeflateCodec{level: level}
}

// Compress compresses the input data into a raw deflate stream.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress inflates a raw deflate stream.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return inflateRaw(data, 0)
}

// ZlibCodec compresses to and from zlib-framed deflate streams (RFC 1950).
type ZlibCodec struct {
	level int
}

var _ Codec = (*ZlibCodec)(nil)

// NewZlibCodec creates a zlib codec with the given compression level.
func NewZlibCodec(level int) ZlibCodec {
	return ZlibCodec{level: level}
}

// Compress compresses the input data into a zlib stream.
func (c ZlibCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream.
func (c ZlibCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return inflateZlib(data, 0)
}

// GzipCodec compresses to and from single-member gzip streams (RFC 1952).
type GzipCodec struct {
	level int
}

var _ Codec = (*GzipCodec)(nil)

// NewGzipCodec creates a gzip codec with the given compression level.
func NewGzipCodec(level int) GzipCodec {
	return GzipCodec{level: level}
}

// Compress compresses the input data into a gzip member.
func (c GzipCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress inflates a single gzip member.
func (c GzipCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return inflateGzip(data, 0)
}
