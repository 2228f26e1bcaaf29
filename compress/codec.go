package compress

import (
	"fmt"

	"github.com/arloliu/sopkit/format"
)

// Compressor compresses a complete payload in one call.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor recovers the original bytes of a complete payload.
//
// Example:
//
//	decompressor, _ := NewAdaptiveDecompressor()
//	original, err := decompressor.Decompress(rawEntryBytes)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: Decompressor implementations must be safe for concurrent use
// or document their thread safety requirements clearly.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or truncated
	//   - Returns error if data was compressed with an incompatible algorithm
	//   - Returns error if the output would exceed the configured size limit
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// builtinCodecs holds one shared codec per framing. Every codec is stateless
// and safe for concurrent use.
var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionZstd:    NewZstdCompressor(),
	format.CompressionS2:      NewS2Compressor(),
	format.CompressionLZ4:     NewLZ4Compressor(),
	format.CompressionDeflate: NewDeflateCodec(DefaultLevel),
	format.CompressionZlib:    NewZlibCodec(DefaultLevel),
	format.CompressionGzip:    NewGzipCodec(DefaultLevel),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
// Deflate family codecs use DefaultLevel.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
