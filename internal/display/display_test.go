package display

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/juan1coder/nanostudio/pkg/artifact"
)

func TestDisplayer_Preview(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	handle := artifact.DataURI("image/png", []byte("test image data"))
	if err := d.Preview(handle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "\x1b_G") {
		t.Error("output should contain kitty escape sequence")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("test image data"))
	if !strings.Contains(output, encoded) {
		t.Error("output should contain base64 encoded image bytes")
	}
}

func TestDisplayer_Preview_BadHandle(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	if err := d.Preview("data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for undecodable handle")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output on failure, got %q", buf.String())
	}
}

func TestDisplayer_PreviewBytes(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	if err := d.PreviewBytes([]byte("raw bytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b_G") {
		t.Error("output should contain kitty escape sequence")
	}
}

func TestIsTerminalSupported(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{
			name: "kitty via TERM_PROGRAM",
			env:  map[string]string{"TERM_PROGRAM": "kitty"},
			want: true,
		},
		{
			name: "ghostty via TERM_PROGRAM",
			env:  map[string]string{"TERM_PROGRAM": "Ghostty"},
			want: true,
		},
		{
			name: "kitty window id",
			env:  map[string]string{"KITTY_WINDOW_ID": "1"},
			want: true,
		},
		{
			name: "iterm session",
			env:  map[string]string{"ITERM_SESSION_ID": "w0t0p0"},
			want: true,
		},
		{
			name: "kitty via TERM",
			env:  map[string]string{"TERM": "xterm-kitty"},
			want: true,
		},
		{
			name: "plain xterm",
			env:  map[string]string{"TERM": "xterm-256color"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TERM_PROGRAM", "KITTY_WINDOW_ID", "ITERM_SESSION_ID", "TERM"} {
				t.Setenv(key, "")
			}
			for key, val := range tt.env {
				t.Setenv(key, val)
			}
			if got := IsTerminalSupported(); got != tt.want {
				t.Errorf("IsTerminalSupported() = %v, want %v", got, tt.want)
			}
		})
	}
}
