package bundle

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchive(t *testing.T) {
	entries := []Entry{
		{Path: "logs/a.txt", Data: []byte("log a")},
		{Path: "images/a.png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}

	data, err := Archive(entries)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading archive back: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive has %d files, want 2", len(zr.File))
	}

	for i, entry := range entries {
		f := zr.File[i]
		if f.Name != entry.Path {
			t.Errorf("file[%d] = %q, want %q", i, f.Name, entry.Path)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		got, _ := io.ReadAll(rc)
		rc.Close()
		if !bytes.Equal(got, entry.Data) {
			t.Errorf("content of %s = %q, want %q", f.Name, got, entry.Data)
		}
	}
}

func TestArchive_Empty(t *testing.T) {
	data, err := Archive(nil)
	if err != nil {
		t.Fatalf("Archive(nil) error = %v", err)
	}
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Errorf("empty archive is not readable: %v", err)
	}
}
