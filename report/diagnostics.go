package report

import (
	"encoding/hex"

	"github.com/arloliu/sopkit/format"
	"github.com/arloliu/sopkit/internal/hash"
)

// Diagnostics is the raw-data view of a SOP container, used to troubleshoot
// payloads that fail to decode. It never depends on decompression succeeding.
//
// When the container itself cannot be read, Error is set and only the fields
// gathered before the failure are filled in.
type Diagnostics struct {
	DataEntry    string   `json:"data_entry,omitempty" yaml:"data_entry,omitempty"`
	DataFileSize int      `json:"data_file_size" yaml:"data_file_size"`
	FirstBytes   string   `json:"first_10_bytes" yaml:"first_10_bytes"`
	LastBytes    string   `json:"last_10_bytes" yaml:"last_10_bytes"`
	Fingerprint  string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Files        []string `json:"files_in_archive" yaml:"files_in_archive"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the diagnostics could not be gathered.
func (d Diagnostics) Failed() bool {
	return d.Error != ""
}

// DescribeRaw fills the byte-level fields from the raw data entry.
func DescribeRaw(name string, raw []byte, files []string) Diagnostics {
	edge := min(format.DiagnosticEdgeBytes, len(raw))

	return Diagnostics{
		DataEntry:    name,
		DataFileSize: len(raw),
		FirstBytes:   hex.EncodeToString(raw[:edge]),
		LastBytes:    hex.EncodeToString(raw[len(raw)-edge:]),
		Fingerprint:  hash.FingerprintHex(raw),
		Files:        append([]string(nil), files...),
	}
}
