package gemini

import (
	"fmt"
	"strings"

	"github.com/juan1coder/nanostudio/internal/provider"
)

const analysisSchema = `{"style":string,"artist":string,"mood":string,"techniques":string[],"colorPalette":string[],"composition":string[],"creativePrompt":string}`

const tagSchema = `{"lighting":string[],"medium":string[],"textures":string[],"techniques":string[],"vibe":string[]}`

// analysisInstruction builds the outbound analysis prompt. Intensity changes
// what the model is asked to emphasize, not the response schema.
func analysisInstruction(intensity provider.Intensity) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an art historian. Analyze the artistic style of this image. ")
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(analysisSchema)
	sb.WriteString(". ")

	switch intensity {
	case provider.IntensityPoetic:
		sb.WriteString("Be interpretive and poetic: embellish the mood and creativePrompt with evocative, figurative language.")
	case provider.IntensityMaximal:
		sb.WriteString("Go all in: invent plausible technical specifications (pigments, lenses, print processes) for the techniques field, and name a specific well-known artist whose work this most resembles in the artist field. Never answer with a generic label like 'unknown'.")
	default:
		sb.WriteString("Emphasize atmosphere and lighting in your description.")
	}

	return sb.String()
}

// renderInstruction concatenates the user prompt, a clause naming the
// modifiers when present, and the fixed composition-preserving directive.
// This exact string is what gets recorded as the executed prompt.
func renderInstruction(prompt string, modifiers []string) string {
	sb := &strings.Builder{}
	if p := strings.TrimSpace(prompt); p != "" {
		sb.WriteString(p)
	}
	if len(modifiers) > 0 {
		if sb.Len() > 0 {
			sb.WriteString(". ")
		}
		sb.WriteString("Apply the following styles: ")
		sb.WriteString(strings.Join(modifiers, ", "))
	}
	if sb.Len() > 0 {
		sb.WriteString(". ")
	}
	sb.WriteString("Preserve the composition of the source image while transforming it according to this description.")
	return sb.String()
}

func tagExtractionInstruction(promptText string) string {
	return fmt.Sprintf(
		"Decompose the following image description into reusable style tags. Respond strictly with JSON matching this schema: %s. Keep each tag short (1-3 words). Description: %q",
		tagSchema, promptText)
}

func titleInstruction(prompt string, modifiers []string) string {
	sb := &strings.Builder{}
	sb.WriteString("Invent a short, evocative gallery title (at most five words) for an artwork. ")
	fmt.Fprintf(sb, "It was generated from the idea %q", prompt)
	if len(modifiers) > 0 {
		fmt.Fprintf(sb, " in the styles: %s", strings.Join(modifiers, ", "))
	}
	sb.WriteString(". Reply with the title only, no quotes or punctuation around it.")
	return sb.String()
}
