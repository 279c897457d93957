package summarizer

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"cut inside two-byte rune", "aé", 2, "a"},
		{"cut after two-byte rune", "aéb", 3, "aé"},
		{"cut inside three-byte rune", "ab€", 4, "ab"},
		{"cut inside first rune", "€", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestExtractor_TruncatesOnRuneBoundary(t *testing.T) {
	para := "<p>" + strings.Repeat("La photosynthèse transforme la lumière en énergie chimique. ", 20) + "</p>\n"
	html := "<html><head><title>Lumière</title></head><body><article><h1>Lumière</h1>" +
		strings.Repeat(para, 12) + "</article></body></html>"

	page := newWorker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})

	text, err := NewExtractor(nil, time.Second).Extract(context.Background(), page.URL+"/post")
	require.NoError(t, err)

	assert.NotEmpty(t, text)
	assert.LessOrEqual(t, len(text), maxExtractedText)
	assert.True(t, utf8.ValidString(text))
}

func TestExtractor_RejectsNonHTTP(t *testing.T) {
	_, err := NewExtractor(nil, time.Second).Extract(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}
