package repl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/juan1coder/nanostudio/internal/editor"
	"github.com/juan1coder/nanostudio/internal/export"
	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/internal/security"
	"github.com/juan1coder/nanostudio/internal/studio"
	"github.com/juan1coder/nanostudio/pkg/artifact"
	"github.com/juan1coder/nanostudio/pkg/bundle"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func (r *REPL) registerCommands() {
	for _, cmd := range allCommands() {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

func allCommands() []Command {
	return []Command{
		&LoadCommand{},
		&AnalyzeCommand{},
		&TagsCommand{},
		&StyleCommand{},
		&RenderCommand{},
		&HistoryCommand{},
		&ShowCommand{},
		&EditCommand{},
		&ExportCommand{},
		&SaveCommand{},
		&BundleCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}
}

// LoadCommand loads a reference image from disk.
type LoadCommand struct{}

func (c *LoadCommand) Name() string        { return "load" }
func (c *LoadCommand) Aliases() []string   { return []string{"ref", "l"} }
func (c *LoadCommand) Description() string { return "Load a reference image to analyze" }
func (c *LoadCommand) Usage() string       { return "load <image-path>" }

func (c *LoadCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read reference image: %w", err)
	}

	r.studio.SetReference(data, mimeFromPath(path))
	fmt.Fprintf(r.out, "Reference loaded: %s (%d bytes)\n", filepath.Base(path), len(data))
	fmt.Fprintln(r.out, "Run 'analyze' to extract its style.")
	return nil
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// AnalyzeCommand runs style analysis on the loaded reference.
type AnalyzeCommand struct{}

func (c *AnalyzeCommand) Name() string      { return "analyze" }
func (c *AnalyzeCommand) Aliases() []string { return []string{"a"} }
func (c *AnalyzeCommand) Description() string {
	return "Analyze the reference image's style (intensity 1=subtle, 2=poetic, 3=maximal)"
}
func (c *AnalyzeCommand) Usage() string { return "analyze [1|2|3]" }

func (c *AnalyzeCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	intensity := provider.IntensitySubtle
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		intensity = provider.Intensity(n)
	}

	fmt.Fprintln(r.out, "Analyzing reference style...")
	analysis, err := r.studio.Analyze(ctx, intensity)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Style:      %s\n", analysis.Style)
	fmt.Fprintf(r.out, "Artist:     %s\n", analysis.Artist)
	fmt.Fprintf(r.out, "Mood:       %s\n", analysis.Mood)
	fmt.Fprintf(r.out, "Techniques: %s\n", strings.Join(analysis.Techniques, ", "))
	fmt.Fprintf(r.out, "Palette:    %s\n", strings.Join(analysis.ColorPalette, ", "))
	if analysis.CreativePrompt != "" {
		fmt.Fprintf(r.out, "\n%q\n", analysis.CreativePrompt)
	}
	return nil
}

// TagsCommand extracts grouped style tags from the current analysis.
type TagsCommand struct{}

func (c *TagsCommand) Name() string        { return "tags" }
func (c *TagsCommand) Aliases() []string   { return []string{"t"} }
func (c *TagsCommand) Description() string { return "Extract grouped style tags from the analysis" }
func (c *TagsCommand) Usage() string       { return "tags" }

func (c *TagsCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	analysis := r.studio.Analysis()
	if analysis == nil {
		return fmt.Errorf("no analysis yet, use 'analyze' first")
	}

	text := analysis.CreativePrompt
	if text == "" {
		text = studio.StyleContext(analysis)
	}

	tags, err := r.svc.ExtractStyleTags(ctx, text)
	if err != nil {
		return err
	}
	if tags.IsEmpty() {
		fmt.Fprintln(r.out, "No tags detected.")
		return nil
	}

	printTagGroup(r, "Lighting", tags.Lighting)
	printTagGroup(r, "Medium", tags.Medium)
	printTagGroup(r, "Textures", tags.Textures)
	printTagGroup(r, "Techniques", tags.Techniques)
	printTagGroup(r, "Vibe", tags.Vibe)
	return nil
}

func printTagGroup(r *REPL, label string, tags []string) {
	if len(tags) == 0 {
		return
	}
	fmt.Fprintf(r.out, "%-11s %s\n", label+":", strings.Join(tags, ", "))
}

// StyleCommand manages the active style modifiers applied to renders.
type StyleCommand struct{}

func (c *StyleCommand) Name() string        { return "style" }
func (c *StyleCommand) Aliases() []string   { return []string{"styles"} }
func (c *StyleCommand) Description() string { return "Manage active style modifiers" }
func (c *StyleCommand) Usage() string       { return "style <add|remove|list|clear> [name]" }

func (c *StyleCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return c.list(r)
	}

	subCmd := strings.ToLower(args[0])
	switch subCmd {
	case "list", "ls":
		return c.list(r)
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: style add <name>")
		}
		name := strings.Join(args[1:], " ")
		if slices.Contains(r.modifiers, name) {
			fmt.Fprintf(r.out, "Style already active: %s\n", name)
			return nil
		}
		r.modifiers = append(r.modifiers, name)
		fmt.Fprintf(r.out, "Style added: %s\n", name)
		return nil
	case "remove", "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: style remove <name>")
		}
		name := strings.Join(args[1:], " ")
		idx := slices.Index(r.modifiers, name)
		if idx < 0 {
			return fmt.Errorf("style not active: %s", name)
		}
		r.modifiers = slices.Delete(r.modifiers, idx, idx+1)
		fmt.Fprintf(r.out, "Style removed: %s\n", name)
		return nil
	case "clear":
		r.modifiers = nil
		fmt.Fprintln(r.out, "Styles cleared.")
		return nil
	default:
		return fmt.Errorf("unknown style command: %s", subCmd)
	}
}

func (c *StyleCommand) list(r *REPL) error {
	if len(r.modifiers) == 0 {
		fmt.Fprintln(r.out, "No active styles.")
		return nil
	}
	fmt.Fprintf(r.out, "Active styles: %s\n", strings.Join(r.modifiers, ", "))
	return nil
}

// RenderCommand renders a new image from an idea plus the active styles.
type RenderCommand struct{}

func (c *RenderCommand) Name() string        { return "render" }
func (c *RenderCommand) Aliases() []string   { return []string{"r", "gen"} }
func (c *RenderCommand) Description() string { return "Render a styled image from an idea" }
func (c *RenderCommand) Usage() string       { return "render <idea>" }

func (c *RenderCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	idea := strings.Join(args, " ")
	fmt.Fprintln(r.out, "Rendering...")

	art, err := r.studio.Render(ctx, idea, r.modifiers)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "[%s] %s\n", art.ID, art.Title)
	r.previewImage(art.ImageURL)
	return nil
}

// HistoryCommand lists rendered artifacts, most recent first.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "hist"} }
func (c *HistoryCommand) Description() string { return "Show render history" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	history := r.studio.History()
	if len(history) == 0 {
		fmt.Fprintln(r.out, "No history yet")
		return nil
	}

	for _, a := range history {
		styles := ""
		if len(a.Modifiers) > 0 {
			styles = fmt.Sprintf(" [%s]", strings.Join(a.Modifiers, ", "))
		}
		fmt.Fprintf(r.out, "[%s] %s  %s: %q%s\n",
			a.ID,
			a.Timestamp.Format("2006-01-02 15:04"),
			a.Title,
			truncate(a.Prompt, 50),
			styles)
	}
	return nil
}

// ShowCommand previews a rendered artifact inline.
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"view"} }
func (c *ShowCommand) Description() string { return "Display a rendered image (latest by default)" }
func (c *ShowCommand) Usage() string       { return "show [id]" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, args []string) error {
	art, err := pickArtifact(r, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "[%s] %s\n", art.ID, art.Title)
	r.previewImage(art.ImageURL)
	return nil
}

func pickArtifact(r *REPL, args []string) (*artifact.Artifact, error) {
	history := r.studio.History()
	if len(history) == 0 {
		return nil, fmt.Errorf("no renders yet, use 'render' first")
	}
	if len(args) == 0 {
		return history[0], nil
	}
	return r.findArtifact(args[0])
}

// EditCommand enters the conversational edit mode for one artifact.
type EditCommand struct{}

func (c *EditCommand) Name() string        { return "edit" }
func (c *EditCommand) Aliases() []string   { return []string{"e"} }
func (c *EditCommand) Description() string { return "Refine a render conversationally" }
func (c *EditCommand) Usage() string       { return "edit [id]" }

func (c *EditCommand) Execute(_ context.Context, r *REPL, args []string) error {
	art, err := pickArtifact(r, args)
	if err != nil {
		return err
	}

	r.edit = editor.NewSession(art, r.svc, r.logger)
	fmt.Fprintf(r.out, "Editing [%s] %s\n", art.ID, art.Title)
	fmt.Fprintln(r.out, "Type an instruction to refine the image.")
	fmt.Fprintln(r.out, "Commands: versions, use <id>, show, save [path], done")
	r.previewImage(art.ImageURL)
	return nil
}

// ExportCommand serializes the current analysis to text, JSON or TOML.
type ExportCommand struct{}

func (c *ExportCommand) Name() string        { return "export" }
func (c *ExportCommand) Aliases() []string   { return []string{"x"} }
func (c *ExportCommand) Description() string { return "Export the style analysis" }
func (c *ExportCommand) Usage() string       { return "export <text|json|toml> [path]" }

func (c *ExportCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	analysis := r.studio.Analysis()
	if analysis == nil {
		return fmt.Errorf("no analysis yet, use 'analyze' first")
	}

	format := export.Format(strings.ToLower(args[0]))
	content, err := export.Serialize(analysis, format)
	if err != nil {
		return err
	}

	if len(args) < 2 {
		fmt.Fprint(r.out, content)
		return nil
	}

	path := args[1]
	if err := security.ValidateSavePath(path); err != nil {
		return fmt.Errorf("invalid save path: %w", err)
	}
	if err := r.writeFile(path, []byte(content)); err != nil {
		return fmt.Errorf("failed to save export: %w", err)
	}
	fmt.Fprintf(r.out, "Saved: %s\n", path)
	return nil
}

// SaveCommand writes a rendered image to disk.
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s"} }
func (c *SaveCommand) Description() string { return "Save a rendered image to a file" }
func (c *SaveCommand) Usage() string       { return "save [id] [path]" }

func (c *SaveCommand) Execute(_ context.Context, r *REPL, args []string) error {
	// One argument is a destination for the latest render; two arguments
	// name a specific render first.
	var idArgs []string
	if len(args) > 1 {
		idArgs = args[:1]
	}
	art, err := pickArtifact(r, idArgs)
	if err != nil {
		return err
	}

	destPath := export.RenderFilename(art.ID)
	if len(args) == 1 {
		destPath = args[0]
	} else if len(args) > 1 {
		destPath = args[1]
	}
	if err := security.ValidateSavePath(destPath); err != nil {
		return fmt.Errorf("invalid save path: %w", err)
	}

	_, data, err := artifact.DecodeDataURI(art.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if err := r.writeFile(destPath, data); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	fmt.Fprintf(r.out, "Saved: %s\n", destPath)
	return nil
}

// BundleCommand archives the whole history into one zip download.
type BundleCommand struct{}

func (c *BundleCommand) Name() string        { return "bundle" }
func (c *BundleCommand) Aliases() []string   { return []string{"zip"} }
func (c *BundleCommand) Description() string { return "Save the full history as a zip archive" }
func (c *BundleCommand) Usage() string       { return "bundle [path]" }

func (c *BundleCommand) Execute(_ context.Context, r *REPL, args []string) error {
	history := r.studio.History()
	if len(history) == 0 {
		return fmt.Errorf("no renders to bundle")
	}

	// Oldest first inside the archive.
	items := make([]*artifact.Artifact, len(history))
	for i, a := range history {
		items[len(history)-1-i] = a
	}

	entries := export.NewAssembler(r.logger).BuildBundle(items)
	data, err := bundle.Archive(entries)
	if err != nil {
		return err
	}

	destPath := export.BundleFilename(r.now())
	if len(args) > 0 {
		destPath = args[0]
	}
	if err := security.ValidateSavePath(destPath); err != nil {
		return fmt.Errorf("invalid save path: %w", err)
	}
	if err := r.writeFile(destPath, data); err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}

	fmt.Fprintf(r.out, "Saved: %s (%d files)\n", destPath, len(entries))
	return nil
}

// HelpCommand shows available commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out)

	for _, cmd := range allCommands() {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(r.out, "  %-14s%s\n", cmd.Name()+aliases, cmd.Description())
		fmt.Fprintf(r.out, "                 Usage: %s\n", cmd.Usage())
	}

	return nil
}

// QuitCommand exits the REPL
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}
