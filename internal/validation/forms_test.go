package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"empty", "", "content"},
		{"whitespace only", "   \t\n ", "content"},
		{"too short", "Hi", "content"},
		{"too short after trim", "  a  ", "content"},
		{"minimum length", "abc", ""},
		{"normal", "Hello world", ""},
		{"maximum length", strings.Repeat("x", 1000), ""},
		{"too long", strings.Repeat("x", 1001), "content"},
		{"multibyte runes counted as characters", strings.Repeat("é", 1000), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := PostInput{Content: tt.content}.Validate()
			if tt.field == "" {
				assert.False(t, errs.Any(), "unexpected errors: %v", errs)
			} else {
				assert.Contains(t, errs, tt.field)
			}
		})
	}
}

func TestCommentInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
	}{
		{"empty", "", false},
		{"two chars", "ok", false},
		{"trimmed below minimum", " ok ", false},
		{"three chars", "oui", true},
		{"maximum", strings.Repeat("y", 1000), true},
		{"too long", strings.Repeat("y", 1001), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CommentInput{Text: tt.text}.Validate()
			assert.Equal(t, tt.valid, !errs.Any(), "errors: %v", errs)
		})
	}
}

func TestPostInput_Normalize(t *testing.T) {
	assert.Equal(t, "Hello", PostInput{Content: "  Hello \n"}.Normalize())
	assert.Equal(t, "ok!", CommentInput{Text: "\tok!  "}.Normalize())
}

func TestValidateImageUpload(t *testing.T) {
	tests := []struct {
		name        string
		size        int64
		contentType string
		valid       bool
	}{
		{"valid jpeg", 1024, "image/jpeg", true},
		{"valid png", MaxImageSize, "image/png", true},
		{"valid gif", 500, "image/gif", true},
		{"too large", MaxImageSize + 1, "image/jpeg", false},
		{"wrong type", 1024, "application/pdf", false},
		{"svg rejected", 1024, "image/svg+xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateImageUpload(tt.size, tt.contentType)
			assert.Equal(t, tt.valid, !errs.Any(), "errors: %v", errs)
		})
	}
}

func TestExtensionForImageType(t *testing.T) {
	ext, ok := ExtensionForImageType("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, "jpg", ext)

	_, ok = ExtensionForImageType("image/webp")
	assert.False(t, ok)
}
