package summarizer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"

	"readwatch/internal/logger"
)

// CohereClient asks the Cohere chat API for the summary instead of a local worker.
type CohereClient struct {
	client  *cohereclient.Client
	model   string
	timeout time.Duration
	log     logger.Logger
}

// NewCohereClient builds a Cohere-backed Summarizer. baseURL overrides the
// API host and is empty in production.
func NewCohereClient(apiKey, model, baseURL string, timeout time.Duration, log logger.Logger) *CohereClient {
	opts := []option.RequestOption{
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{}),
		option.WithMaxAttempts(1),
	}
	if baseURL != "" {
		opts = append(opts, cohereclient.WithBaseURL(baseURL))
	}
	return &CohereClient{
		client:  cohereclient.NewClient(opts...),
		model:   model,
		timeout: timeout,
		log:     log,
	}
}

func (c *CohereClient) RequestSummary(ctx context.Context, title, rawURL, itemType string) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: BuildPrompt(title, rawURL, itemType, ""),
		Model:   &c.model,
	})
	if err != nil {
		// API errors carry a status code; only round-trip failures arrive as *url.Error.
		status := StatusWorkerError
		var urlErr *url.Error
		if ctx.Err() != nil {
			status = StatusTimeout
		} else if errors.As(err, &urlErr) {
			status = transportStatus(err)
		}
		c.log.Warn("cohere chat failed", logger.String("status", status), logger.Error(err))
		return Outcome{Status: status}
	}
	if resp == nil {
		return Outcome{Status: StatusEmpty}
	}
	return okOrEmpty(resp.Text)
}
