package format

// CompressionType identifies the framing of a compressed payload.
type CompressionType uint8

const (
	CompressionZstd    CompressionType = 0x1 // CompressionZstd represents Zstandard compression.
	CompressionS2      CompressionType = 0x2 // CompressionS2 represents S2 compression.
	CompressionLZ4     CompressionType = 0x3 // CompressionLZ4 represents LZ4 block compression.
	CompressionDeflate CompressionType = 0x4 // CompressionDeflate represents a raw (headerless) deflate stream.
	CompressionZlib    CompressionType = 0x5 // CompressionZlib represents a zlib-framed deflate stream.
	CompressionGzip    CompressionType = 0x6 // CompressionGzip represents a single-member gzip stream.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionDeflate:
		return "Deflate"
	case CompressionZlib:
		return "Zlib"
	case CompressionGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}
