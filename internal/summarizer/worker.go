package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"readwatch/internal/logger"
	"readwatch/internal/model"
)

// WorkerClient talks to the HTTP summarization worker:
// POST <base>/summarize {title,url,type,prompt[,text]} -> {"summary": "..."}.
type WorkerClient struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	extractor  *Extractor
	log        logger.Logger
}

type workerRequest struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	Text   string `json:"text,omitempty"`
}

type workerResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// NewWorkerClient builds a client with a fixed per-call budget. extractor may
// be nil to send only title, url and type.
func NewWorkerClient(baseURL string, timeout time.Duration, extractor *Extractor, log logger.Logger) *WorkerClient {
	return &WorkerClient{
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/summarize",
		timeout:    timeout,
		httpClient: &http.Client{},
		extractor:  extractor,
		log:        log,
	}
}

// RequestSummary makes exactly one attempt. The caller's cancellation is
// detached; only the client's own budget ends the call early.
func (c *WorkerClient) RequestSummary(ctx context.Context, title, rawURL, itemType string) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	payload := workerRequest{Title: title, URL: rawURL, Type: itemType}
	if c.extractor != nil && itemType == model.ItemTypeArticle && rawURL != "" {
		text, err := c.extractor.Extract(ctx, rawURL)
		if err != nil {
			c.log.Debug("content extraction skipped", logger.String("url", rawURL), logger.Error(err))
		}
		payload.Text = text
	}
	payload.Prompt = BuildPrompt(title, rawURL, itemType, payload.Text)

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Status: StatusWorkerError}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Warn("invalid summarizer endpoint", logger.String("endpoint", c.endpoint), logger.Error(err))
		return Outcome{Status: StatusUnreachable}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status := transportStatus(err)
		c.log.Warn("summarizer request failed", logger.String("status", status), logger.Error(err))
		return Outcome{Status: status}
	}
	defer resp.Body.Close()

	var out workerResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("summarizer returned error status",
			logger.Int("code", resp.StatusCode), logger.String("error", out.Error))
		return Outcome{Status: StatusWorkerError}
	}
	if decodeErr != nil {
		if ctx.Err() != nil {
			return Outcome{Status: StatusTimeout}
		}
		c.log.Warn("summarizer response undecodable", logger.Error(decodeErr))
		return Outcome{Status: StatusWorkerError}
	}

	return okOrEmpty(out.Summary)
}
