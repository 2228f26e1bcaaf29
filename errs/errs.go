// Package errs defines the error kinds reported by the SOP decoding pipeline.
//
// Every failure surfaced by sopkit wraps exactly one of the sentinel values below, so
// callers branch with errors.Is. Errors that carry extra detail (per-strategy failure
// reasons, byte offsets) are also available through errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("sop package not found")
	// ErrCorruptContainer is returned when the archive structure cannot be read.
	ErrCorruptContainer = errors.New("corrupt sop container")
	// ErrMissingDataEntry is returned when no archive entry carries the data suffix.
	ErrMissingDataEntry = errors.New("no data entry in sop container")
	// ErrDecompressionExhausted is returned when every decompression strategy failed.
	ErrDecompressionExhausted = errors.New("all decompression strategies failed")
	// ErrEncoding is returned when the decompressed payload is not valid UTF-8.
	ErrEncoding = errors.New("payload is not valid utf-8")
	// ErrMalformedDocument is returned when the payload text is not a valid JSON document.
	ErrMalformedDocument = errors.New("malformed payload document")
	// ErrUnexpectedShape is returned when the payload document is not a JSON object.
	ErrUnexpectedShape = errors.New("payload document is not an object")
)

// StrategyFailure records why one decompression strategy rejected the input.
type StrategyFailure struct {
	Strategy string
	Reason   error
}

func (f StrategyFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Strategy, f.Reason)
}

// ExhaustedError is returned when no decompression strategy produced output.
// Failures are listed in the order the strategies were attempted.
type ExhaustedError struct {
	Failures []StrategyFailure
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return ErrDecompressionExhausted.Error() + " (no strategies configured)"
	}

	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}

	return fmt.Sprintf("%s: [%s]", ErrDecompressionExhausted, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrDecompressionExhausted
}

// EncodingError reports the first byte offset that breaks UTF-8 decoding.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: invalid byte sequence at offset %d", ErrEncoding, e.Offset)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// MalformedDocumentError wraps the parser error together with the byte offset
// at which parsing stopped.
type MalformedDocumentError struct {
	Offset int64
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", ErrMalformedDocument, e.Offset, e.Err)
}

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}
