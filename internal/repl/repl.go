// Package repl implements the interactive studio shell: reference loading,
// style analysis, rendering, the conversational edit mode and exports.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/internal/display"
	"github.com/juan1coder/nanostudio/internal/editor"
	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/internal/studio"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

type REPL struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	studio    *studio.Studio
	svc       provider.StyleService
	displayer *display.Displayer
	logger    zerolog.Logger
	commands  map[string]Command
	modifiers []string
	edit      *editor.Session
	preview   bool
	running   bool

	// Hooks for tests.
	writeFile func(path string, data []byte) error
	now       func() time.Time
}

type Config struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Studio    *studio.Studio
	Service   provider.StyleService
	Displayer *display.Displayer
	Logger    zerolog.Logger
	Preview   bool
}

func New(cfg *Config) *REPL {
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		errOut:    cfg.Err,
		studio:    cfg.Studio,
		svc:       cfg.Service,
		displayer: cfg.Displayer,
		logger:    cfg.Logger,
		commands:  make(map[string]Command),
		preview:   cfg.Preview,
		writeFile: func(path string, data []byte) error {
			return os.WriteFile(path, data, 0644)
		},
		now: time.Now,
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
		}
	}

	if r.edit != nil {
		r.edit.Close()
		r.edit = nil
	}
	return scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	if r.edit != nil {
		return r.executeEdit(ctx, line)
	}

	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "nanostudio interactive mode")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	if r.edit != nil {
		fmt.Fprintf(r.out, "edit [%s]> ", r.edit.ArtifactID())
		return
	}
	if n := len(r.studio.History()); n > 0 {
		fmt.Fprintf(r.out, "studio (%d)> ", n)
		return
	}
	fmt.Fprint(r.out, "studio> ")
}

func (r *REPL) previewImage(imageURL string) {
	if !r.preview || r.displayer == nil {
		return
	}
	if err := r.displayer.Preview(imageURL); err != nil {
		fmt.Fprintf(r.errOut, "Warning: failed to display: %v\n", err)
	}
}

// findArtifact resolves an artifact by exact id or unique id prefix.
func (r *REPL) findArtifact(id string) (*artifact.Artifact, error) {
	if a, ok := r.studio.Find(id); ok {
		return a, nil
	}
	var match *artifact.Artifact
	for _, a := range r.studio.History() {
		if strings.HasPrefix(a.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous id: %s", id)
			}
			match = a
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no render with id: %s", id)
	}
	return match, nil
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
