// Package fixture builds SOP packages for tests and demos.
package fixture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/arloliu/sopkit/compress"
	"github.com/arloliu/sopkit/format"
)

// SamplePayload is a four-record document covering every metadata field.
const SamplePayload = `{
  "name": "test_package",
  "pack_application_id": "test_app_123",
  "timestamp": "2024-01-15T10:30:00Z",
  "version": "1.0",
  "records": [
    {"table_name": "users", "action": "insert", "is_strong_overwrite": false},
    {"table_name": "users", "action": "delete", "is_strong_overwrite": false},
    {"table_name": "products", "action": "update", "is_strong_overwrite": true},
    {"table_name": "orders", "action": "insert", "is_strong_overwrite": false}
  ]
}`

// DataEntryName is the data entry name used by Package.
const DataEntryName = "package.data"

// Entry is one archive member.
type Entry struct {
	Name string
	Data []byte
}

// Archive returns a zip archive holding entries in order. Members are deflated
// at the zip level, as SOP producers do.
func Archive(entries ...Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return buf.Bytes(), nil
}

// Package compresses payload with c and stores it as the data entry of a new
// archive, next to a small manifest entry.
func Package(c compress.Compressor, payload []byte) ([]byte, error) {
	data, err := c.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	return Archive(
		Entry{Name: "manifest.json", Data: []byte(`{"format":"sop"}`)},
		Entry{Name: DataEntryName, Data: data},
	)
}

// PackageOf is Package using the built-in codec for framing.
func PackageOf(framing format.CompressionType, payload []byte) ([]byte, error) {
	codec, err := compress.GetCodec(framing)
	if err != nil {
		return nil, err
	}

	return Package(codec, payload)
}

// WriteFile writes archive to dir/name and returns the full path.
func WriteFile(dir, name string, archive []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, archive, 0o600); err != nil {
		return "", err
	}

	return path, nil
}
