// Package compress recovers the raw payload of an SOP data entry and provides the
// codecs used to produce and test such payloads.
//
// # Overview
//
// SOP packages are produced by tools that do not agree on how the data entry is
// framed. Some write a bare deflate stream, some a zlib stream, and some prepend
// a few stray bytes. The AdaptiveDecompressor does not try to identify the
// framing. It runs an ordered list of strategies and keeps the first output:
//
//  1. raw_inflate: the bytes are a headerless deflate stream
//  2. zlib_inflate: the bytes are a zlib stream (header and Adler-32 verified)
//  3. gzip_wrap: a fixed gzip header and a zeroed trailer are wrapped around the bytes
//  4. header_guess: zlib with each known header prepended, then raw deflate after
//     skipping up to nine leading bytes
//
// The order matters. Several strategies can succeed on the same input and the
// first one wins.
//
// With WithExtendedStrategies the list continues with zstd, S2 and LZ4 block
// probes. They never run on payloads the standard strategies accept.
//
//	d, err := compress.NewAdaptiveDecompressor(compress.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	rec, err := d.Recover(entryBytes)
//	if errors.Is(err, errs.ErrDecompressionExhausted) {
//	    // every strategy failed; err lists the reasons in order
//	}
//	fmt.Println(rec.Strategy, len(rec.Data))
//
// # Codecs
//
// Each format.CompressionType has a built-in Codec, returned by GetCodec:
//
//	Type                 | Codec
//	---------------------|-------------------------
//	CompressionZstd      | ZstdCompressor
//	CompressionS2        | S2Compressor
//	CompressionLZ4       | LZ4Compressor
//	CompressionDeflate   | DeflateCodec
//	CompressionZlib      | ZlibCodec
//	CompressionGzip      | GzipCodec
//
// The extended strategies decode through the zstd, S2 and LZ4 entries. The deflate
// family codecs produce test packages and are not used for recovery.
//
// # Memory Management
//
// Inflaters and output buffers come from sync.Pool. Returned slices are always
// copies owned by the caller. Every strategy attempt is capped by the configured
// maximum output size (DefaultMaxOutputSize unless WithMaxOutputSize says otherwise),
// so a decompression bomb fails the attempt instead of exhausting memory.
//
// # Thread Safety
//
// All codecs and the AdaptiveDecompressor are safe for concurrent use.
package compress
