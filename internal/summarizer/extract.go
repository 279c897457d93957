package summarizer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

const (
	maxPageBytes     = 2 << 20
	maxExtractedText = 6000
)

// Extractor fetches an article page and reduces it to readable plain text.
type Extractor struct {
	client  *http.Client
	timeout time.Duration
}

func NewExtractor(client *http.Client, timeout time.Duration) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client, timeout: timeout}
}

// Extract returns the main text of the page at rawURL, truncated to a size the
// summarization backend can take as context.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", fmt.Errorf("extract %q: not an http url", rawURL)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	return truncateText(text, maxExtractedText), nil
}

// truncateText cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
