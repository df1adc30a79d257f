package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/juan1coder/nanostudio/internal/export"
	"github.com/juan1coder/nanostudio/internal/security"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

// executeEdit handles input while an edit session is active. A handful of
// reserved words control the session; any other line is sent to the model as
// a refinement instruction.
func (r *REPL) executeEdit(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	switch strings.ToLower(parts[0]) {
	case "done", "back", "q":
		r.edit.Close()
		r.edit = nil
		fmt.Fprintln(r.out, "Left edit mode.")
		return nil
	case "versions", "v":
		return r.editVersions()
	case "use":
		if len(parts) < 2 {
			return fmt.Errorf("usage: use <version-id>")
		}
		return r.editUse(parts[1])
	case "show":
		r.previewImage(r.edit.CurrentImage())
		return nil
	case "save":
		path := ""
		if len(parts) > 1 {
			path = parts[1]
		}
		return r.editSave(path)
	default:
		return r.editSubmit(ctx, line)
	}
}

func (r *REPL) editSubmit(ctx context.Context, instruction string) error {
	fmt.Fprintln(r.out, "Applying edit...")
	if !r.edit.Submit(ctx, instruction) {
		fmt.Fprintln(r.out, "Still working on the previous edit.")
		return nil
	}

	msgs := r.edit.Messages()
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]
	if last.Role != artifact.RoleModel {
		return nil
	}

	if last.ImageURL == "" {
		fmt.Fprintln(r.out, last.Text)
		return nil
	}

	fmt.Fprintf(r.out, "Applied (version %s)\n", last.ID)
	r.previewImage(last.ImageURL)
	return nil
}

func (r *REPL) editVersions() error {
	msgs := r.edit.Messages()
	current := r.edit.CurrentVersion()

	marker := "  "
	if current == "" {
		marker = "> "
	}
	fmt.Fprintf(r.out, "%soriginal\n", marker)

	for _, m := range msgs {
		if m.Role != artifact.RoleModel || m.ImageURL == "" {
			continue
		}
		marker = "  "
		if m.ID == current {
			marker = "> "
		}
		fmt.Fprintf(r.out, "%s%s  %q\n", marker, m.ID, truncate(m.ExecutedPrompt, 50))
	}
	return nil
}

func (r *REPL) editUse(id string) error {
	if strings.EqualFold(id, "original") {
		if !r.edit.SelectVersion("") {
			return fmt.Errorf("cannot select the original right now")
		}
		fmt.Fprintln(r.out, "Using the original image.")
		return nil
	}

	// Allow unique id prefixes, matching render history lookups.
	var fullID string
	for _, m := range r.edit.Messages() {
		if m.Role != artifact.RoleModel || m.ImageURL == "" {
			continue
		}
		if strings.HasPrefix(m.ID, id) {
			if fullID != "" {
				return fmt.Errorf("ambiguous version id: %s", id)
			}
			fullID = m.ID
		}
	}
	if fullID == "" || !r.edit.SelectVersion(fullID) {
		return fmt.Errorf("no version with id: %s", id)
	}

	fmt.Fprintf(r.out, "Using version %s\n", fullID)
	r.previewImage(r.edit.CurrentImage())
	return nil
}

func (r *REPL) editSave(path string) error {
	_, data, err := artifact.DecodeDataURI(r.edit.CurrentImage())
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	if path == "" {
		path = export.EditFilename(r.now())
	}
	if err := security.ValidateSavePath(path); err != nil {
		return fmt.Errorf("invalid save path: %w", err)
	}
	if err := r.writeFile(path, data); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	fmt.Fprintf(r.out, "Saved: %s\n", path)
	return nil
}
