// Package studio orchestrates the analysis and render pipelines over one
// reference image and keeps the resulting artifact history for the lifetime
// of the process.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

// ErrGenerationFailed wraps any failure of the image-generation step. No
// partial artifact exists when it is returned.
var ErrGenerationFailed = errors.New("image generation failed")

type Studio struct {
	svc    provider.StyleService
	logger zerolog.Logger
	ids    idGenerator

	mu        sync.Mutex
	reference artifact.ReferenceImage
	analysis  *artifact.StyleAnalysis
	history   []*artifact.Artifact
}

func New(svc provider.StyleService, logger zerolog.Logger) *Studio {
	return &Studio{svc: svc, logger: logger}
}

// SetReference installs a new reference image and discards the analysis of
// the previous one. History is kept: it belongs to the session, not to one
// reference.
func (s *Studio) SetReference(data []byte, mimeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = artifact.ReferenceImage{Data: data, MimeType: mimeType}
	s.analysis = nil
}

func (s *Studio) Reference() artifact.ReferenceImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

func (s *Studio) HasReference() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.reference.IsZero()
}

// Analyze runs the analysis pipeline: validate, delegate, remember the
// result. Service failures propagate unchanged; there are no retries.
func (s *Studio) Analyze(ctx context.Context, intensity provider.Intensity) (*artifact.StyleAnalysis, error) {
	if intensity == 0 {
		intensity = provider.IntensitySubtle
	}
	if !intensity.Valid() {
		return nil, artifact.ErrInvalidIntensity
	}

	s.mu.Lock()
	ref := s.reference
	s.mu.Unlock()
	if ref.IsZero() {
		return nil, artifact.ErrNoImage
	}

	analysis, err := s.svc.AnalyzeStyle(ctx, ref, intensity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.analysis = analysis
	s.mu.Unlock()
	return analysis, nil
}

func (s *Studio) Analysis() *artifact.StyleAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Render runs the render pipeline. The order is fixed: generate the image
// first (aborting the whole operation on failure, before any title call),
// then derive the title, then assemble and prepend the artifact. History is
// only touched once every step has succeeded.
func (s *Studio) Render(ctx context.Context, idea string, modifiers []string) (*artifact.Artifact, error) {
	s.mu.Lock()
	ref := s.reference
	analysis := s.analysis
	s.mu.Unlock()

	if ref.IsZero() {
		return nil, artifact.ErrNoImage
	}
	idea = strings.TrimSpace(idea)
	modifiers = artifact.Dedupe(modifiers)
	if idea == "" && len(modifiers) == 0 {
		return nil, artifact.ErrEmptyRender
	}

	img, executedPrompt, err := s.svc.GenerateImage(ctx, ref, idea, modifiers)
	if err != nil {
		s.logger.Debug().Err(err).Msg("studio: render aborted before title step")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	title, err := s.svc.GenerateTitle(ctx, idea, modifiers)
	if err != nil || strings.TrimSpace(title) == "" {
		s.logger.Debug().Err(err).Msg("studio: title generation failed, using default")
		title = provider.DefaultTitle
	}

	art := &artifact.Artifact{
		ID:        s.ids.next(),
		ImageURL:  artifact.DataURI(img.MimeType, img.Data),
		Title:     title,
		Prompt:    idea,
		Modifiers: modifiers,
		Timestamp: time.Now(),
	}
	if analysis != nil {
		art.StyleContext = StyleContext(analysis)
	}

	s.logger.Debug().Str("id", art.ID).Str("executed_prompt", executedPrompt).Msg("studio: rendered artifact")

	s.mu.Lock()
	s.history = append([]*artifact.Artifact{art}, s.history...)
	s.mu.Unlock()
	return art, nil
}

// History returns the artifact list, most recent first.
func (s *Studio) History() []*artifact.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*artifact.Artifact, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Studio) Find(id string) (*artifact.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.history {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// StyleContext renders a style analysis into the human-readable synthesis
// frozen onto artifacts at creation time. Only mood is lowercased; the exact
// punctuation is part of the output format.
func StyleContext(a *artifact.StyleAnalysis) string {
	return fmt.Sprintf(
		"A %s style image, in the style of %s. Featuring %s tones, with a color palette of %s. Key techniques include %s.",
		a.Style, a.Artist, strings.ToLower(a.Mood),
		strings.Join(a.ColorPalette, ", "), strings.Join(a.Techniques, ", "))
}

// Artifact ids are time-based and strictly increasing; two renders within the
// same millisecond get consecutive values.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	return fmt.Sprintf("%d", now)
}
