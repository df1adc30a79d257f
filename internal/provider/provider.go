package provider

import (
	"context"
	"errors"

	"github.com/juan1coder/nanostudio/pkg/artifact"
)

var (
	ErrAPIKeyRequired  = errors.New("API key is required")
	ErrServiceResponse = errors.New("service returned an unusable response")
	ErrNoImageProduced = errors.New("no image produced")
)

// DefaultTitle is the fallback label used whenever the model returns a blank
// title. Part of the service contract, not an implementation detail.
const DefaultTitle = "Untitled Masterpiece"

// Intensity controls how elaborate the remote style analysis is asked to be.
// It changes only the outbound instruction, never the response schema.
type Intensity int

const (
	// IntensitySubtle asks for atmosphere and lighting emphasis.
	IntensitySubtle Intensity = 1
	// IntensityPoetic asks for interpretive, poetic embellishment.
	IntensityPoetic Intensity = 2
	// IntensityMaximal asks for invented technical specs and an explicit
	// named-artist inference.
	IntensityMaximal Intensity = 3
)

func (i Intensity) Valid() bool {
	return i >= IntensitySubtle && i <= IntensityMaximal
}

// GeneratedImage is the raw image payload returned by a generation call.
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// StyleService is the contract with the remote generative model. Every
// operation is a single blocking remote call with no internal retry.
type StyleService interface {
	// AnalyzeStyle describes the reference image as structured style
	// metadata. Fails with ErrServiceResponse when the reply cannot be
	// parsed as the expected schema.
	AnalyzeStyle(ctx context.Context, image artifact.ReferenceImage, intensity Intensity) (*artifact.StyleAnalysis, error)

	// GenerateImage transforms the image per the prompt and modifiers.
	// Returns the generated image and the exact instruction that was sent.
	// Fails with ErrNoImageProduced when the reply carries no image payload.
	GenerateImage(ctx context.Context, image artifact.ReferenceImage, prompt string, modifiers []string) (*GeneratedImage, string, error)

	// ExtractStyleTags decomposes free text into style DNA. Best-effort:
	// an unparsable reply yields an empty tag set, never an error.
	ExtractStyleTags(ctx context.Context, promptText string) (artifact.StyleTagSet, error)

	// GenerateTitle names an artifact from its prompt and modifiers,
	// falling back to a fixed default when the reply is blank.
	GenerateTitle(ctx context.Context, prompt string, modifiers []string) (string, error)
}

// Config carries the settings shared by service implementations.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TimeoutSec int
	Verbose    bool
}
