// Package gemini implements the style service against the Gemini
// generateContent API. Every operation is one blocking HTTP call; retries,
// caching and timeouts beyond the plain client timeout are the caller's
// concern.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image"
	defaultTimeout = 120 * time.Second
)

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the Gemini API. Construct it once at startup and thread it
// through the pipelines; it is safe for use from concurrent sessions.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ provider.StyleService = (*Client)(nil)

// New builds a Gemini-backed style service. A missing API key is fatal:
// nothing can be called without it.
func New(cfg *provider.Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) AnalyzeStyle(ctx context.Context, image artifact.ReferenceImage, intensity provider.Intensity) (*artifact.StyleAnalysis, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: image.MimeType,
					Data:     base64.StdEncoding.EncodeToString(image.Data),
				}},
				{Text: analysisInstruction(intensity)},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	resp, err := c.invoke(ctx, payload)
	if err != nil {
		return nil, err
	}

	text := firstText(resp)
	analysis, err := parsePayload[artifact.StyleAnalysis](text)
	if err != nil {
		c.logger.Debug().Err(err).Str("raw", text).Msg("gemini: analysis payload did not parse")
		return nil, fmt.Errorf("%w: parse style analysis: %v", provider.ErrServiceResponse, err)
	}
	return &analysis, nil
}

func (c *Client) GenerateImage(ctx context.Context, image artifact.ReferenceImage, prompt string, modifiers []string) (*provider.GeneratedImage, string, error) {
	instruction := renderInstruction(prompt, modifiers)

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: image.MimeType,
					Data:     base64.StdEncoding.EncodeToString(image.Data),
				}},
				{Text: instruction},
			},
		}},
	}

	resp, err := c.invoke(ctx, payload)
	if err != nil {
		return nil, "", err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				c.logger.Debug().Err(err).Msg("gemini: inline image data did not decode")
				continue
			}
			mimeType := part.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return &provider.GeneratedImage{Data: data, MimeType: mimeType}, instruction, nil
		}
	}

	return nil, "", provider.ErrNoImageProduced
}

func (c *Client) ExtractStyleTags(ctx context.Context, promptText string) (artifact.StyleTagSet, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: tagExtractionInstruction(promptText)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	resp, err := c.invoke(ctx, payload)
	if err != nil {
		return artifact.StyleTagSet{}, err
	}

	text := firstText(resp)
	tags, err := parsePayload[artifact.StyleTagSet](text)
	if err != nil {
		// Degrade gracefully: tag extraction is an optional decomposition,
		// an empty set is a valid answer.
		c.logger.Debug().Err(err).Str("raw", text).Msg("gemini: tag payload did not parse")
		return artifact.StyleTagSet{}, nil
	}
	return tags.Normalize(), nil
}

func (c *Client) GenerateTitle(ctx context.Context, prompt string, modifiers []string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: titleInstruction(prompt, modifiers)}},
		}},
		GenerationConfig: &geminiGenerationConfig{CandidateCount: 1},
	}

	resp, err := c.invoke(ctx, payload)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(firstText(resp)), `"`))
	if title == "" {
		return provider.DefaultTitle, nil
	}
	return title, nil
}

func (c *Client) invoke(ctx context.Context, payload geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug().Str("model", c.model).Int("request_bytes", len(body)).Msg("gemini: invoking generateContent")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int("response_bytes", len(raw)).Msg("gemini: generateContent returned")

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response body: %v", provider.ErrServiceResponse, err)
	}

	if out.Error != nil && out.Error.Message != "" {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	return &out, nil
}

func firstText(resp *geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}
