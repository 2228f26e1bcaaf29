package compress

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/sopkit/format"
)

// StrategyName identifies a decompression strategy in logs and diagnostics.
type StrategyName string

const (
	StrategyRawInflate  StrategyName = "raw_inflate"
	StrategyZlibInflate StrategyName = "zlib_inflate"
	StrategyGzipWrap    StrategyName = "gzip_wrap"
	StrategyHeaderGuess StrategyName = "header_guess"
	StrategyZstd        StrategyName = "zstd"
	StrategyS2          StrategyName = "s2"
	StrategyLZ4Block    StrategyName = "lz4_block"
)

func (n StrategyName) String() string {
	return string(n)
}

// StrategyFunc recovers the original bytes from data, or reports why it could not.
// Implementations must not retain or modify data.
type StrategyFunc func(data []byte) ([]byte, error)

// Strategy is one candidate decoding method tried by the AdaptiveDecompressor.
type Strategy struct {
	Name   StrategyName
	Decode StrategyFunc
}

var errEmptyInput = errors.New("empty input")

// StandardStrategies returns the four SOP recovery strategies in their required
// order. limit caps the decompressed size of every attempt; a non-positive limit
// disables the cap.
//
// The order is part of the contract: several strategies can succeed on the same
// crafted input, and the first success wins.
func StandardStrategies(limit int64) []Strategy {
	return []Strategy{
		{Name: StrategyRawInflate, Decode: func(data []byte) ([]byte, error) {
			return RawInflate(data, limit)
		}},
		{Name: StrategyZlibInflate, Decode: func(data []byte) ([]byte, error) {
			return ZlibInflate(data, limit)
		}},
		{Name: StrategyGzipWrap, Decode: func(data []byte) ([]byte, error) {
			return GzipWrapInflate(data, limit)
		}},
		{Name: StrategyHeaderGuess, Decode: func(data []byte) ([]byte, error) {
			return HeaderGuessInflate(data, limit)
		}},
	}
}

// extendedFramings pairs each extended strategy with the codec framing it probes for.
var extendedFramings = []struct {
	name    StrategyName
	framing format.CompressionType
}{
	{name: StrategyZstd, framing: format.CompressionZstd},
	{name: StrategyS2, framing: format.CompressionS2},
	{name: StrategyLZ4Block, framing: format.CompressionLZ4},
}

// ExtendedStrategies returns the opt-in strategies that probe for non-deflate
// framings. They run after the standard ones.
func ExtendedStrategies(limit int64) []Strategy {
	strategies := make([]Strategy, 0, len(extendedFramings))
	for _, f := range extendedFramings {
		strategies = append(strategies, Strategy{Name: f.name, Decode: func(data []byte) ([]byte, error) {
			return probe(f.framing, data, limit)
		}})
	}

	return strategies
}

// limitedDecompressor is implemented by codecs that can stop before producing
// more than limit bytes.
type limitedDecompressor interface {
	decompressLimited(data []byte, limit int64) ([]byte, error)
}

// probe decodes data with the built-in codec for framing.
func probe(framing format.CompressionType, data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, errEmptyInput
	}

	codec, err := GetCodec(framing)
	if err != nil {
		return nil, err
	}
	if ld, ok := codec.(limitedDecompressor); ok {
		return ld.decompressLimited(data, limit)
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, err
	}

	return checkLimit(out, limit)
}

// RawInflate treats data as a headerless deflate stream.
func RawInflate(data []byte, limit int64) ([]byte, error) {
	return inflateRaw(data, limit)
}

// ZlibInflate treats data as a zlib-framed deflate stream.
func ZlibInflate(data []byte, limit int64) ([]byte, error) {
	return inflateZlib(data, limit)
}

// GzipWrapInflate surrounds data with format.SyntheticGzipHeader and
// format.SyntheticGzipTrailer and inflates the result with gzip/zlib
// auto-detection. The trailer is verified, so this only succeeds when the
// zeroed CRC and size happen to match the output.
func GzipWrapInflate(data []byte, limit int64) ([]byte, error) {
	wrapped := make([]byte, 0, len(format.SyntheticGzipHeader)+len(data)+len(format.SyntheticGzipTrailer))
	wrapped = append(wrapped, format.SyntheticGzipHeader[:]...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, format.SyntheticGzipTrailer[:]...)

	return inflateAutoDetect(wrapped, limit)
}

// HeaderGuessInflate first retries zlib inflation with each of
// format.ZlibHeaderCandidates prepended, then retries raw inflation after
// discarding 0 to format.MaxSkippedPrefix-1 leading bytes. The first success wins.
func HeaderGuessInflate(data []byte, limit int64) ([]byte, error) {
	var reasons []string

	for _, header := range format.ZlibHeaderCandidates {
		candidate := make([]byte, 0, len(header)+len(data))
		candidate = append(candidate, header...)
		candidate = append(candidate, data...)

		out, err := inflateZlib(candidate, limit)
		if err == nil {
			return out, nil
		}
		reasons = append(reasons, fmt.Sprintf("zlib header %s: %v", headerLabel(header), err))
	}

	skipLimit := min(format.MaxSkippedPrefix, len(data))
	for skip := range skipLimit {
		out, err := inflateRaw(data[skip:], limit)
		if err == nil {
			return out, nil
		}
		reasons = append(reasons, fmt.Sprintf("raw skip %d: %v", skip, err))
	}

	return nil, fmt.Errorf("no header guess matched (%s)", strings.Join(reasons, "; "))
}

func headerLabel(header []byte) string {
	if len(header) == 0 {
		return "none"
	}

	return fmt.Sprintf("%x", header)
}

func checkLimit(out []byte, limit int64) ([]byte, error) {
	if limit > 0 && int64(len(out)) > limit {
		return nil, fmt.Errorf("decompressed output exceeds %d bytes", limit)
	}

	return out, nil
}
