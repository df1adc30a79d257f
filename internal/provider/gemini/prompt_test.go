package gemini

import (
	"strings"
	"testing"

	"github.com/juan1coder/nanostudio/internal/provider"
)

func TestRenderInstruction(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		modifiers []string
		want      string
	}{
		{
			name:   "prompt only",
			prompt: "a quiet harbor",
			want:   "a quiet harbor. Preserve the composition of the source image while transforming it according to this description.",
		},
		{
			name:      "prompt and modifiers",
			prompt:    "a quiet harbor",
			modifiers: []string{"Noir", "Ukiyo-e"},
			want:      "a quiet harbor. Apply the following styles: Noir, Ukiyo-e. Preserve the composition of the source image while transforming it according to this description.",
		},
		{
			name:      "modifiers only",
			modifiers: []string{"Noir"},
			want:      "Apply the following styles: Noir. Preserve the composition of the source image while transforming it according to this description.",
		},
		{
			name: "empty everything still has directive",
			want: "Preserve the composition of the source image while transforming it according to this description.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderInstruction(tt.prompt, tt.modifiers)
			if got != tt.want {
				t.Errorf("renderInstruction() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalysisInstruction_Intensity(t *testing.T) {
	subtle := analysisInstruction(provider.IntensitySubtle)
	poetic := analysisInstruction(provider.IntensityPoetic)
	maximal := analysisInstruction(provider.IntensityMaximal)

	if !strings.Contains(subtle, "atmosphere and lighting") {
		t.Errorf("subtle instruction missing lighting emphasis: %q", subtle)
	}
	if !strings.Contains(poetic, "poetic") {
		t.Errorf("poetic instruction missing embellishment cue: %q", poetic)
	}
	if !strings.Contains(maximal, "well-known artist") {
		t.Errorf("maximal instruction missing artist inference cue: %q", maximal)
	}

	for _, inst := range []string{subtle, poetic, maximal} {
		if !strings.Contains(inst, analysisSchema) {
			t.Errorf("instruction does not pin the response schema: %q", inst)
		}
	}
}

func TestExtractJSONFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounded by chatter", "Sure! Here you go: {\"a\":1} hope that helps", `{"a":1}`},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONFragment(tt.in); got != tt.want {
				t.Errorf("extractJSONFragment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
