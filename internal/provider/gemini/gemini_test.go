package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/pkg/artifact"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(&provider.Config{APIKey: "test-key", BaseURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func textReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
	return string(body)
}

func testImage() artifact.ReferenceImage {
	return artifact.ReferenceImage{Data: []byte("fake-png"), MimeType: "image/png"}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(&provider.Config{}, zerolog.Nop())
	if !errors.Is(err, provider.ErrAPIKeyRequired) {
		t.Errorf("New() error = %v, want ErrAPIKeyRequired", err)
	}
}

func TestAnalyzeStyle(t *testing.T) {
	canned := `{"style":"Ukiyo-e","artist":"Katsushika Hokusai","mood":"Serene","techniques":["woodblock printing"],"colorPalette":["indigo","cream"],"composition":["asymmetry"],"creativePrompt":"Waves of ink"}`

	var gotInstruction string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, part := range req.Contents[0].Parts {
			if part.Text != "" {
				gotInstruction = part.Text
			}
		}
		fmt.Fprint(w, textReply(canned))
	})

	got, err := c.AnalyzeStyle(context.Background(), testImage(), provider.IntensityMaximal)
	if err != nil {
		t.Fatalf("AnalyzeStyle() error = %v", err)
	}
	if got.Artist != "Katsushika Hokusai" {
		t.Errorf("Artist = %q, want pass-through of canned artist", got.Artist)
	}
	if got.Style != "Ukiyo-e" || got.CreativePrompt != "Waves of ink" {
		t.Errorf("unexpected analysis: %+v", got)
	}
	if gotInstruction == "" {
		t.Fatal("no text instruction was sent")
	}
}

func TestAnalyzeStyle_ToleratesMissingCreativePrompt(t *testing.T) {
	// Early schema variant without creativePrompt.
	canned := `{"style":"Noir","artist":"Unknown","mood":"Brooding","techniques":[],"colorPalette":["black"],"composition":["low key"]}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply(canned))
	})

	got, err := c.AnalyzeStyle(context.Background(), testImage(), provider.IntensitySubtle)
	if err != nil {
		t.Fatalf("AnalyzeStyle() error = %v", err)
	}
	if got.CreativePrompt != "" {
		t.Errorf("CreativePrompt = %q, want empty", got.CreativePrompt)
	}
}

func TestAnalyzeStyle_FencedJSON(t *testing.T) {
	canned := "```json\n{\"style\":\"Fauvism\",\"artist\":\"Matisse\",\"mood\":\"Vivid\",\"techniques\":[],\"colorPalette\":[],\"composition\":[]}\n```"
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply(canned))
	})

	got, err := c.AnalyzeStyle(context.Background(), testImage(), provider.IntensityPoetic)
	if err != nil {
		t.Fatalf("AnalyzeStyle() error = %v", err)
	}
	if got.Style != "Fauvism" {
		t.Errorf("Style = %q, want Fauvism", got.Style)
	}
}

func TestAnalyzeStyle_ParseFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply("I cannot describe this image."))
	})

	_, err := c.AnalyzeStyle(context.Background(), testImage(), provider.IntensitySubtle)
	if !errors.Is(err, provider.ErrServiceResponse) {
		t.Errorf("AnalyzeStyle() error = %v, want ErrServiceResponse", err)
	}
}

func TestGenerateImage(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G'}
	var gotInstruction string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, part := range req.Contents[0].Parts {
			if part.Text != "" {
				gotInstruction = part.Text
			}
		}
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(imageBytes),
						},
					}},
				},
			}},
		})
		w.Write(body)
	})

	img, executed, err := c.GenerateImage(context.Background(), testImage(), "a quiet harbor", []string{"Noir", "Ukiyo-e"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if string(img.Data) != string(imageBytes) {
		t.Errorf("image data mismatch")
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q", img.MimeType)
	}
	if executed != gotInstruction {
		t.Errorf("executed prompt %q differs from sent instruction %q", executed, gotInstruction)
	}
}

func TestGenerateImage_NoImageProduced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply("Sorry, I could only produce text."))
	})

	_, _, err := c.GenerateImage(context.Background(), testImage(), "anything", nil)
	if !errors.Is(err, provider.ErrNoImageProduced) {
		t.Errorf("GenerateImage() error = %v, want ErrNoImageProduced", err)
	}
}

func TestExtractStyleTags(t *testing.T) {
	canned := `{"lighting":["rim light","rim light"],"medium":["oil"],"textures":[],"techniques":["impasto"],"vibe":["dreamy"]}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply(canned))
	})

	tags, err := c.ExtractStyleTags(context.Background(), "dreamy oil painting with rim light")
	if err != nil {
		t.Fatalf("ExtractStyleTags() error = %v", err)
	}
	if len(tags.Lighting) != 1 || tags.Lighting[0] != "rim light" {
		t.Errorf("Lighting = %v, want deduplicated [rim light]", tags.Lighting)
	}
	if len(tags.Vibe) != 1 || tags.Vibe[0] != "dreamy" {
		t.Errorf("Vibe = %v", tags.Vibe)
	}
}

func TestExtractStyleTags_DegradesToEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textReply("no tags here"))
	})

	tags, err := c.ExtractStyleTags(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("ExtractStyleTags() error = %v, want graceful degradation", err)
	}
	if !tags.IsEmpty() {
		t.Errorf("tags = %+v, want empty set", tags)
	}
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain title", "Harbor of Shadows", "Harbor of Shadows"},
		{"quoted title", `"Harbor of Shadows"`, "Harbor of Shadows"},
		{"blank reply", "   ", provider.DefaultTitle},
		{"empty reply", "", provider.DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, textReply(tt.reply))
			})

			got, err := c.GenerateTitle(context.Background(), "a quiet harbor", []string{"Noir"})
			if err != nil {
				t.Fatalf("GenerateTitle() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvoke_APIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded"}}`)
	})

	_, err := c.GenerateTitle(context.Background(), "x", nil)
	if err == nil {
		t.Fatal("expected error for API error response")
	}
}
