// Package editor implements the conversational refinement loop over one
// artifact. Each accepted instruction produces a new image version in an
// append-only chat log; the active version can be rewound to any prior one
// without discarding history.
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

// FailureNotice is the fixed text recorded when an edit fails. The previous
// active image stays in place and the session remains usable.
const FailureNotice = "That edit didn't work out. The current image is untouched, try rephrasing the instruction."

// Session is the per-artifact edit conversation. It works on its own version
// chain; the artifact in the top-level history is never written back.
// One request may be outstanding at a time; a Submit while one is in flight
// is ignored, not queued.
type Session struct {
	svc    provider.StyleService
	logger zerolog.Logger

	artifactID  string
	originalURL string

	mu        sync.Mutex
	messages  []artifact.ChatMessage
	currentID string // "" means the artifact's original image
	awaiting  bool
	closed    bool
}

func NewSession(art *artifact.Artifact, svc provider.StyleService, logger zerolog.Logger) *Session {
	return &Session{
		svc:         svc,
		logger:      logger,
		artifactID:  art.ID,
		originalURL: art.ImageURL,
	}
}

func (s *Session) ArtifactID() string {
	return s.artifactID
}

// CurrentImage resolves the active image handle: the original, or the handle
// carried by the selected model message.
func (s *Session) CurrentImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentImageLocked()
}

func (s *Session) currentImageLocked() string {
	if s.currentID == "" {
		return s.originalURL
	}
	for _, m := range s.messages {
		if m.ID == s.currentID {
			return m.ImageURL
		}
	}
	// Unreachable while the invariant holds; fall back to the original
	// rather than return a dangling handle.
	return s.originalURL
}

// CurrentVersion returns the id of the selected model message, or "" when
// the original artifact image is active.
func (s *Session) CurrentVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Messages returns a copy of the append-only chat log.
func (s *Session) Messages() []artifact.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]artifact.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Close abandons the session. An edit still in flight completes against the
// remote service but its result is discarded without touching session state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Submit runs one edit turn against the currently active image. It reports
// whether the instruction was accepted: blank instructions, a closed session
// and an in-flight request all make it a no-op. The call blocks until the
// remote service answers; a failed edit is recorded as a failure notice and
// the session returns to idle.
func (s *Session) Submit(ctx context.Context, instruction string) bool {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return false
	}

	s.mu.Lock()
	if s.awaiting || s.closed {
		s.mu.Unlock()
		return false
	}
	s.awaiting = true
	base := s.currentImageLocked()
	s.messages = append(s.messages, artifact.ChatMessage{
		ID:        uuid.New().String(),
		Role:      artifact.RoleUser,
		Text:      instruction,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	// The conversational loop deliberately sends no modifiers: each
	// instruction fully determines the transformation.
	var (
		img      *provider.GeneratedImage
		executed string
	)
	mimeType, data, err := artifact.DecodeDataURI(base)
	if err == nil {
		img, executed, err = s.svc.GenerateImage(ctx, artifact.ReferenceImage{Data: data, MimeType: mimeType}, instruction, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = false

	if s.closed {
		s.logger.Debug().Str("artifact", s.artifactID).Msg("editor: discarding response for closed session")
		return true
	}

	if err != nil {
		s.logger.Debug().Err(err).Str("artifact", s.artifactID).Msg("editor: edit failed")
		s.messages = append(s.messages, artifact.ChatMessage{
			ID:        uuid.New().String(),
			Role:      artifact.RoleModel,
			Text:      FailureNotice,
			Timestamp: time.Now(),
		})
		return true
	}

	msg := artifact.ChatMessage{
		ID:             uuid.New().String(),
		Role:           artifact.RoleModel,
		ImageURL:       artifact.DataURI(img.MimeType, img.Data),
		ExecutedPrompt: executed,
		Timestamp:      time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.currentID = msg.ID
	return true
}

// SelectVersion makes the image carried by the named model message the
// active one. An empty id rewinds to the original artifact image. It is
// idempotent, performs no remote call, and has no effect on a request
// already in flight. Returns false when the message does not exist or
// carries no image.
func (s *Session) SelectVersion(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if messageID == "" {
		s.currentID = ""
		return true
	}
	for _, m := range s.messages {
		if m.ID == messageID && m.ImageURL != "" {
			s.currentID = messageID
			return true
		}
	}
	return false
}
