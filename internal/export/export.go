// Package export serializes artifacts and style analyses into the
// user-facing download formats: plain text, JSON, TOML-like config text,
// per-item log files and the full-history archive bundle.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/pkg/artifact"
	"github.com/juan1coder/nanostudio/pkg/bundle"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var ErrUnknownFormat = fmt.Errorf("unknown export format")

// Extension returns the download file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatTOML:
		return ".toml"
	default:
		return ".txt"
	}
}

// Serialize renders a style analysis in the requested format. Both schema
// variants are supported: when the creative description is absent, the text
// form falls back to a sentence synthesized from the structured fields.
func Serialize(a *artifact.StyleAnalysis, format Format) (string, error) {
	switch format {
	case FormatText:
		return serializeText(a), nil
	case FormatJSON:
		return serializeJSON(a)
	case FormatTOML:
		return serializeTOML(a), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func serializeText(a *artifact.StyleAnalysis) string {
	if a.CreativePrompt != "" {
		return fmt.Sprintf("%q\n\nStyle: %s\nArtist: %s\nTechniques: %s\nMood: %s\n",
			a.CreativePrompt, a.Style, a.Artist, strings.Join(a.Techniques, ", "), a.Mood)
	}
	return fmt.Sprintf(
		"A %s style image, in the style of %s. Featuring %s tones, with a color palette of %s. Key techniques include %s. Composition: %s.\n",
		a.Style, a.Artist, strings.ToLower(a.Mood),
		strings.Join(a.ColorPalette, ", "), strings.Join(a.Techniques, ", "),
		strings.Join(a.Composition, ", "))
}

// serializeJSON is a compatibility contract: field order follows the data
// model declaration and indentation is exactly two spaces, so the output is
// byte-stable for anything that parses it back.
func serializeJSON(a *artifact.StyleAnalysis) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}
	return string(data), nil
}

func serializeTOML(a *artifact.StyleAnalysis) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "style = %q\n", a.Style)
	fmt.Fprintf(sb, "artist = %q\n", a.Artist)
	fmt.Fprintf(sb, "mood = %q\n", a.Mood)
	fmt.Fprintf(sb, "techniques = %s\n", tomlArray(a.Techniques))
	fmt.Fprintf(sb, "colorPalette = %s\n", tomlArray(a.ColorPalette))
	fmt.Fprintf(sb, "composition = %s\n", tomlArray(a.Composition))
	if a.CreativePrompt != "" {
		// Triple-quoted so embedded newlines survive.
		fmt.Fprintf(sb, "creativePrompt = \"\"\"\n%s\n\"\"\"\n", a.CreativePrompt)
	}
	return sb.String()
}

func tomlArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// logTimeLayout is the human-readable timestamp used in per-item logs.
const logTimeLayout = "January 2, 2006 3:04 PM"

// SerializeLog renders the fixed per-artifact log template.
func SerializeLog(a *artifact.Artifact) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s\n", a.Title)
	fmt.Fprintf(sb, "%s\n\n", a.Timestamp.Format(logTimeLayout))
	fmt.Fprintf(sb, "Prompt:\n%s\n\n", a.Prompt)
	styles := "None"
	if len(a.Modifiers) > 0 {
		styles = strings.Join(a.Modifiers, ", ")
	}
	fmt.Fprintf(sb, "Styles:\n%s\n", styles)
	if a.StyleContext != "" {
		fmt.Fprintf(sb, "\nStyle Context:\n%s\n", a.StyleContext)
	}
	return sb.String()
}

// Assembler builds multi-file export bundles. Per-item failures are logged
// and skipped, never fatal to the rest of the bundle.
type Assembler struct {
	logger zerolog.Logger
}

func NewAssembler(logger zerolog.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// BuildBundle emits, for every artifact, a log file under logs/ and its
// image bytes under images/. An item whose image handle cannot be decoded
// loses only its image file; its log is still written and the remaining
// items are untouched.
func (b *Assembler) BuildBundle(items []*artifact.Artifact) []bundle.Entry {
	var entries []bundle.Entry
	used := make(map[string]bool)

	for _, item := range items {
		base := fmt.Sprintf("%s_%s", sanitizeTitle(item.Title), item.ID)

		logPath := uniquePath(used, "logs/"+base+".txt")
		entries = append(entries, bundle.Entry{Path: logPath, Data: []byte(SerializeLog(item))})

		_, data, err := artifact.DecodeDataURI(item.ImageURL)
		if err != nil {
			b.logger.Warn().Err(err).Str("id", item.ID).Str("title", item.Title).Msg("export: skipping image with undecodable handle")
			continue
		}
		imagePath := uniquePath(used, "images/"+base+".png")
		entries = append(entries, bundle.Entry{Path: imagePath, Data: data})
	}

	return entries
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

func sanitizeTitle(title string) string {
	return whitespaceRuns.ReplaceAllString(title, "_")
}

// uniquePath disambiguates path collisions with a numeric suffix. Ids make
// collisions unlikely, but identical titles with hand-crafted ids could
// still clash.
func uniquePath(used map[string]bool, path string) string {
	candidate := path
	for n := 2; used[candidate]; n++ {
		if idx := strings.LastIndex(path, "."); idx >= 0 {
			candidate = fmt.Sprintf("%s_%d%s", path[:idx], n, path[idx:])
		} else {
			candidate = fmt.Sprintf("%s_%d", path, n)
		}
	}
	used[candidate] = true
	return candidate
}

// RenderFilename names a single rendered image download.
func RenderFilename(id string) string {
	return "nano-render-" + id + ".png"
}

// EditFilename names an image saved out of an edit session.
func EditFilename(t time.Time) string {
	return fmt.Sprintf("nano-edit-%d.png", t.UnixMilli())
}

// BundleFilename names the full-history archive download.
func BundleFilename(t time.Time) string {
	return fmt.Sprintf("nano_banana_history_%d.zip", t.UnixMilli())
}
