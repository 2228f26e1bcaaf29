// Package document exposes a decoded SOP payload as a read-only view with
// per-field defaults.
//
// The payload is a JSON object. Missing fields never fail a query: each
// accessor returns its documented default instead.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"unicode/utf8"

	"github.com/arloliu/sopkit/errs"
)

// Unknown is the default returned for absent text fields.
const Unknown = "unknown"

// Top-level and record field names.
const (
	FieldName              = "name"
	FieldPackApplicationID = "pack_application_id"
	FieldTimestamp         = "timestamp"
	FieldVersion           = "version"
	FieldRecords           = "records"

	FieldTableName         = "table_name"
	FieldAction            = "action"
	FieldIsStrongOverwrite = "is_strong_overwrite"
)

// Document is the parsed SOP payload. It is immutable once returned by Parse
// and safe for concurrent reads.
type Document struct {
	fields  map[string]any
	records []Record
}

// Parse interprets decoded payload bytes as a UTF-8 JSON object.
//
// Errors:
//   - *errs.EncodingError (errs.ErrEncoding) if the bytes are not valid UTF-8
//   - *errs.MalformedDocumentError (errs.ErrMalformedDocument) if the text is not
//     exactly one JSON value
//   - errs.ErrUnexpectedShape if that value is not an object
func Parse(decoded []byte) (*Document, error) {
	if off := invalidUTF8Offset(decoded); off >= 0 {
		return nil, &errs.EncodingError{Offset: off}
	}

	dec := json.NewDecoder(bytes.NewReader(decoded))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, malformed(err, dec.InputOffset(), len(decoded))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}

		return nil, malformed(err, dec.InputOffset(), len(decoded))
	}

	fields, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", errs.ErrUnexpectedShape, kindOf(root))
	}

	doc := &Document{fields: fields}
	if raw, ok := fields[FieldRecords].([]any); ok {
		doc.records = make([]Record, len(raw))
		for i, r := range raw {
			obj, _ := r.(map[string]any)
			doc.records[i] = Record{fields: obj}
		}
	}

	return doc, nil
}

// Name returns the package name, or Unknown.
func (d *Document) Name() string {
	return textField(d.fields, FieldName)
}

// PackApplicationID returns the producing application id, or Unknown.
func (d *Document) PackApplicationID() string {
	return textField(d.fields, FieldPackApplicationID)
}

// Timestamp returns the timestamp exactly as written in the payload. It is nil
// when the field is absent or null.
func (d *Document) Timestamp() *string {
	v, ok := d.fields[FieldTimestamp]
	if !ok || v == nil {
		return nil
	}
	s := textOf(v)

	return &s
}

// Version returns the payload format version, or Unknown.
func (d *Document) Version() string {
	return textField(d.fields, FieldVersion)
}

// Records returns the records in payload order. A missing or non-array
// records field yields an empty slice.
func (d *Document) Records() []Record {
	return slices.Clone(d.records)
}

// Len returns the number of records.
func (d *Document) Len() int {
	return len(d.records)
}

// Field returns a raw top-level field. Numbers are json.Number values.
func (d *Document) Field(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Record is one table mutation entry. The zero Record, and a record built from
// a non-object array element, answers every accessor with its default.
type Record struct {
	fields map[string]any
}

// TableName returns the target table, or Unknown.
func (r Record) TableName() string {
	return textField(r.fields, FieldTableName)
}

// Action returns the mutation kind, or Unknown.
func (r Record) Action() string {
	return textField(r.fields, FieldAction)
}

// IsStrongOverwrite reports whether is_strong_overwrite is the JSON literal true.
// Truthy strings or numbers do not count.
func (r Record) IsStrongOverwrite() bool {
	v, ok := r.fields[FieldIsStrongOverwrite].(bool)
	return ok && v
}

// Field returns a raw record field.
func (r Record) Field(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// textField returns a string field verbatim, Unknown when the key is absent and
// the compact JSON text of any other value.
func textField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return Unknown
	}

	return textOf(v)
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func invalidUTF8Offset(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}

	for off := 0; off < len(b); {
		r, size := utf8.DecodeRune(b[off:])
		if r == utf8.RuneError && size <= 1 {
			return off
		}
		off += size
	}

	return -1
}

func malformed(err error, offset int64, size int) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		offset = int64(size)
	}

	return &errs.MalformedDocumentError{Offset: offset, Err: err}
}
