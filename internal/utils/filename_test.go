package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "book.pdf", "book.pdf"},
		{"spaces kept", "My Book.pdf", "My Book.pdf"},
		{"invalid characters removed", `a<b>c:d"e/f\g|h?i*j.pdf`, "abcdefghij.pdf"},
		{"newlines and tabs", "line\none\ttwo.pdf", "line one two.pdf"},
		{"multiple spaces collapsed", "too   many    spaces.pdf", "too many spaces.pdf"},
		{"trimmed", "  padded.pdf  ", "padded.pdf"},
		{"empty becomes download", "", "download"},
		{"only invalid becomes download", `<>:"/\|?*`, "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_LengthCap(t *testing.T) {
	long := strings.Repeat("a", 300)

	result := SanitizeFilename(long)

	assert.Len(t, result, 200)
}
