package artifact

import (
	"bytes"
	"testing"
)

func TestArtifact_AddModifier(t *testing.T) {
	a := &Artifact{}
	a.AddModifier("Noir")
	a.AddModifier("Ukiyo-e")
	a.AddModifier("Noir")

	want := []string{"Noir", "Ukiyo-e"}
	if len(a.Modifiers) != len(want) {
		t.Fatalf("Modifiers = %v, want %v", a.Modifiers, want)
	}
	for i := range want {
		if a.Modifiers[i] != want[i] {
			t.Errorf("Modifiers[%d] = %q, want %q", i, a.Modifiers[i], want[i])
		}
	}
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, nil},
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates collapse", []string{"a", "b", "a", "a", "c", "b"}, []string{"a", "b", "c"}},
		{"case sensitive", []string{"Noir", "noir"}, []string{"Noir", "noir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Dedupe(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Dedupe(%v)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStyleTagSet_IsEmpty(t *testing.T) {
	if !(StyleTagSet{}).IsEmpty() {
		t.Error("zero StyleTagSet should be empty")
	}
	if (StyleTagSet{Vibe: []string{"dreamy"}}).IsEmpty() {
		t.Error("tag set with a vibe should not be empty")
	}
}

func TestStyleTagSet_Normalize(t *testing.T) {
	s := StyleTagSet{
		Lighting: []string{"rim light", "rim light", "soft glow"},
		Medium:   []string{"oil", "oil"},
	}
	got := s.Normalize()
	if len(got.Lighting) != 2 || got.Lighting[0] != "rim light" || got.Lighting[1] != "soft glow" {
		t.Errorf("Normalize() Lighting = %v", got.Lighting)
	}
	if len(got.Medium) != 1 {
		t.Errorf("Normalize() Medium = %v", got.Medium)
	}
}

func TestDataURI_RoundTrip(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	uri := DataURI("image/png", data)

	mimeType, decoded, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %q, want image/png", mimeType)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded = %v, want %v", decoded, data)
	}
}

func TestDataURI_DefaultMimeType(t *testing.T) {
	uri := DataURI("", []byte{1})
	mimeType, _, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %q, want image/png", mimeType)
	}
}

func TestDecodeDataURI_Errors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/a.png"},
		{"missing payload", "data:image/png;base64"},
		{"corrupt base64", "data:image/png;base64,!!!not-base64!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeDataURI(tt.uri); err == nil {
				t.Errorf("DecodeDataURI(%q) expected error", tt.uri)
			}
		})
	}
}

func TestReferenceImage_IsZero(t *testing.T) {
	var nilRef *ReferenceImage
	if !nilRef.IsZero() {
		t.Error("nil reference should be zero")
	}
	if !(&ReferenceImage{}).IsZero() {
		t.Error("empty reference should be zero")
	}
	if (&ReferenceImage{Data: []byte{1}, MimeType: "image/png"}).IsZero() {
		t.Error("populated reference should not be zero")
	}
}
