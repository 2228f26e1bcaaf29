// Package container locates and reads the payload-bearing entry of a SOP package.
//
// A SOP package is a zip archive. The data entry is the first entry, in archive
// listing order, whose name ends with format.DataEntrySuffix. Further matching
// entries are ignored.
package container

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/arloliu/sopkit/errs"
	"github.com/arloliu/sopkit/format"
	"github.com/arloliu/sopkit/report"
)

// DataEntry is the data entry of a SOP container.
type DataEntry struct {
	// Name is the entry's path inside the archive.
	Name string
	// Data is the entry content after zip-level decompression. It is still in
	// whatever framing the producer used and goes to the adaptive decompressor next.
	Data []byte
	// Files lists every entry name in archive order.
	Files []string
}

// FindDataEntry returns the index of the first name ending with
// format.DataEntrySuffix. The match is case-sensitive.
func FindDataEntry(names []string) (int, bool) {
	for i, name := range names {
		if strings.HasSuffix(name, format.DataEntrySuffix) {
			return i, true
		}
	}

	return -1, false
}

// OpenDataEntry opens the archive at path, reads its data entry and closes the
// archive before returning.
//
// Errors match errs.ErrNotFound, errs.ErrCorruptContainer or errs.ErrMissingDataEntry.
func OpenDataEntry(path string) (*DataEntry, error) {
	var entry *DataEntry
	err := withArchive(path, func(zr *zip.Reader) error {
		var err error
		entry, err = readEntry(zr)

		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ReadDataEntry reads the data entry of an archive held in r.
func ReadDataEntry(r io.ReaderAt, size int64) (*DataEntry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptContainer, err)
	}

	return readEntry(zr)
}

// Inspect gathers the raw-data diagnostics of the package at path without
// decompressing the payload. Failures are reported in Diagnostics.Error.
func Inspect(path string) report.Diagnostics {
	var diag report.Diagnostics
	err := withArchive(path, func(zr *zip.Reader) error {
		diag.Files = entryNames(zr)

		entry, err := readEntry(zr)
		if err != nil {
			return err
		}
		diag = report.DescribeRaw(entry.Name, entry.Data, entry.Files)

		return nil
	})
	if err != nil {
		diag.Error = err.Error()
	}

	return diag
}

func withArchive(path string, fn func(zr *zip.Reader) error) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", errs.ErrNotFound, path)
		}

		return fmt.Errorf("stat %s: %w", path, err)
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrCorruptContainer, path, err)
	}
	defer rc.Close()

	return fn(&rc.Reader)
}

func entryNames(zr *zip.Reader) []string {
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}

	return names
}

func readEntry(zr *zip.Reader) (*DataEntry, error) {
	names := entryNames(zr)
	idx, ok := FindDataEntry(names)
	if !ok {
		return nil, fmt.Errorf("%w: archive has %d entries", errs.ErrMissingDataEntry, len(names))
	}

	f := zr.File[idx]
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errs.ErrCorruptContainer, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errs.ErrCorruptContainer, f.Name, err)
	}

	return &DataEntry{Name: f.Name, Data: data, Files: names}, nil
}
