// Package display renders image previews inline in terminals that speak the
// kitty graphics protocol.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juan1coder/nanostudio/pkg/artifact"
)

type Displayer struct {
	out io.Writer
}

func New(out io.Writer) *Displayer {
	return &Displayer{out: out}
}

// Preview decodes an image handle and writes it to the terminal inline.
func (d *Displayer) Preview(imageURL string) error {
	_, data, err := artifact.DecodeDataURI(imageURL)
	if err != nil {
		return fmt.Errorf("decode image handle: %w", err)
	}
	if err := encodeKitty(d.out, data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	fmt.Fprintln(d.out)
	return nil
}

// PreviewBytes writes raw image bytes to the terminal inline.
func (d *Displayer) PreviewBytes(data []byte) error {
	if err := encodeKitty(d.out, data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	fmt.Fprintln(d.out)
	return nil
}

// IsTerminalSupported reports whether the current terminal is known to speak
// the kitty graphics protocol.
func IsTerminalSupported() bool {
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	supportedPrograms := []string{"kitty", "ghostty", "iterm.app", "wezterm"}

	for _, prog := range supportedPrograms {
		if termProgram == prog {
			return true
		}
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
