package format

// DataEntrySuffix is the name suffix that marks the payload-bearing entry of a SOP container.
const DataEntrySuffix = ".data"

// DiagnosticEdgeBytes is how many leading and trailing raw bytes the diagnostic view shows.
const DiagnosticEdgeBytes = 10

// MaxSkippedPrefix bounds how many leading bytes the header-guess strategy discards
// while looking for the start of a raw deflate stream.
const MaxSkippedPrefix = 10

// SyntheticGzipHeader is the fixed 10-byte member header prepended by the gzip-wrap
// recovery strategy: magic 1F 8B, method 08 (deflate), no flags, zero mtime,
// XFL 02 (max compression), OS FF (unknown).
//
// The bytes were picked empirically to make near-gzip payloads inflate. They are a
// recovery heuristic and say nothing about how SOP producers actually frame data.
var SyntheticGzipHeader = [10]byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0xff}

// SyntheticGzipTrailer is appended after the payload by the gzip-wrap strategy in place
// of the CRC-32 and ISIZE fields.
var SyntheticGzipTrailer = [8]byte{}

// ZlibHeaderCandidates are the 2-byte zlib prefixes tried, in order, by the
// header-guess strategy. The empty candidate tries the bytes as they are.
var ZlibHeaderCandidates = [][]byte{
	{},
	{0x78, 0x9c}, // default compression
	{0x78, 0x01}, // fastest / no compression
	{0x78, 0xda}, // best compression
}
