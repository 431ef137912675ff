package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m4xw311/sleuth/errors"
	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local Ollama server through /api/generate.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates an OllamaClient. An empty baseURL falls back to
// OLLAMA_HOST or the default local address.
func NewOllamaClient(baseURL string, httpClient *http.Client) (*OllamaClient, error) {
	if baseURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create ollama client from environment")
		}
		return &OllamaClient{client: c}, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama url '%s'", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &OllamaClient{client: api.NewClient(u, httpClient)}, nil
}

// Complete sends a non-streaming generate request.
func (o *OllamaClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  opts.Model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"stop":        opts.Stop,
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", unavailable("ollama", err)
	}
	return sb.String(), nil
}
