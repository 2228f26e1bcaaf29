package compress

// ZstdCompressor provides Zstandard frame compression.
//
// SOP producers are not known to emit zstd frames. The codec backs the opt-in
// extended recovery strategies, which probe for payloads re-packed by third-party
// tooling.
//
// The default build uses the pure Go klauspost/compress/zstd implementation. Building
// with the gozstd tag (and cgo enabled) switches to the libzstd binding.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
