// Package bundle turns an ordered list of named byte blobs into a single
// zip archive for download.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one file inside the archive, named by its relative path.
type Entry struct {
	Path string
	Data []byte
}

// Archive writes all entries, in order, into one zip archive.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", entry.Path, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", entry.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
