// Package summarizer asks an external text-generation backend for a short
// summary of a bookmark. Every call yields an Outcome; failures are never
// returned as errors.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Outcome statuses.
const (
	StatusOK          = "ok"
	StatusTimeout     = "timeout"
	StatusUnreachable = "unreachable"
	StatusWorkerError = "worker_error"
	StatusEmpty       = "empty"
)

var placeholders = map[string]string{
	StatusTimeout:     "Summary unavailable: the summarization service took too long to respond.",
	StatusUnreachable: "Summary unavailable: the summarization service could not be reached.",
	StatusWorkerError: "Summary unavailable: the summarization service reported an error.",
	StatusEmpty:       "Summary unavailable: no summary was generated for this item.",
}

// Outcome is the result of a single summarization attempt.
type Outcome struct {
	Status string
	Text   string
}

// OK reports whether the backend produced usable text.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// SummaryText returns the text to store with the item: the generated
// summary on success, a fixed placeholder for the failure category otherwise.
func (o Outcome) SummaryText() string {
	if o.OK() {
		return o.Text
	}
	if p, ok := placeholders[o.Status]; ok {
		return p
	}
	return placeholders[StatusWorkerError]
}

// Summarizer requests a summary for one bookmark.
type Summarizer interface {
	RequestSummary(ctx context.Context, title, rawURL, itemType string) Outcome
}

// BuildPrompt renders the one-paragraph instruction sent to the backend.
func BuildPrompt(title, rawURL, itemType, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following %s in one short paragraph.\n", itemType)
	fmt.Fprintf(&b, "Title: %s\n", title)
	if rawURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", rawURL)
	}
	if text != "" {
		fmt.Fprintf(&b, "Content:\n%s\n", text)
	}
	b.WriteString("Summary:")
	return b.String()
}

// transportStatus maps an error from the HTTP round trip to an outcome status.
func transportStatus(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	return StatusUnreachable
}

func okOrEmpty(text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Status: StatusEmpty}
	}
	return Outcome{Status: StatusOK, Text: text}
}
