package artifact

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrNoImage          = errors.New("no image")
	ErrEmptyRender      = errors.New("an idea or at least one style modifier is required")
	ErrInvalidIntensity = errors.New("intensity must be 1, 2 or 3")
)

// ReferenceImage is the uploaded source image a session works from. It is
// never mutated, only read by the pipelines.
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

func (r *ReferenceImage) IsZero() bool {
	return r == nil || len(r.Data) == 0
}

// StyleAnalysis is the structured description of a reference image produced
// by the remote style service. CreativePrompt is absent in early schema
// variants; consumers must treat an empty string as "not present".
type StyleAnalysis struct {
	Style          string   `json:"style"`
	Artist         string   `json:"artist"`
	Mood           string   `json:"mood"`
	Techniques     []string `json:"techniques"`
	ColorPalette   []string `json:"colorPalette"`
	Composition    []string `json:"composition"`
	CreativePrompt string   `json:"creativePrompt,omitempty"`
}

// StyleTagSet decomposes a free-text prompt into reusable style DNA. Each
// field is order-preserving and de-duplicated by exact string match.
type StyleTagSet struct {
	Lighting   []string `json:"lighting"`
	Medium     []string `json:"medium"`
	Textures   []string `json:"textures"`
	Techniques []string `json:"techniques"`
	Vibe       []string `json:"vibe"`
}

func (s StyleTagSet) IsEmpty() bool {
	return len(s.Lighting) == 0 && len(s.Medium) == 0 && len(s.Textures) == 0 &&
		len(s.Techniques) == 0 && len(s.Vibe) == 0
}

// Normalize returns the tag set with duplicates removed from every field,
// keeping first-seen order.
func (s StyleTagSet) Normalize() StyleTagSet {
	return StyleTagSet{
		Lighting:   Dedupe(s.Lighting),
		Medium:     Dedupe(s.Medium),
		Textures:   Dedupe(s.Textures),
		Techniques: Dedupe(s.Techniques),
		Vibe:       Dedupe(s.Vibe),
	}
}

// Artifact is one generated image plus its provenance metadata. Entries in
// the top-level history are immutable after creation; edit sessions work on
// their own version chain and never write back into the history entry.
type Artifact struct {
	ID           string
	ImageURL     string
	Title        string
	Prompt       string
	Modifiers    []string
	StyleContext string
	Timestamp    time.Time
}

// AddModifier appends a style tag, preserving insertion order. Adding a tag
// that is already present is a no-op.
func (a *Artifact) AddModifier(tag string) {
	if slices.Contains(a.Modifiers, tag) {
		return
	}
	a.Modifiers = append(a.Modifiers, tag)
}

// Role identifies the author of a chat message in an edit session.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one step of an edit session. The log it lives in is
// append-only: messages are never deleted or reordered. A model message with
// an ImageURL is a new candidate version of the artifact; a model message
// without one is a failure notice.
type ChatMessage struct {
	ID             string
	Role           Role
	Text           string
	ImageURL       string
	ExecutedPrompt string
	Timestamp      time.Time
}

// Dedupe removes duplicate strings, keeping first-seen order.
func Dedupe(tags []string) []string {
	var out []string
	for _, t := range tags {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
