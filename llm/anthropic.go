package llm

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m4xw311/sleuth/errors"
)

const anthropicMaxTokens = 1024

// AnthropicClient is a client for the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new AnthropicClient.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicClient(ctx context.Context) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{client: &client}, nil
}

// Complete sends the prompt as one user turn and concatenates the text blocks of the reply.
func (a *AnthropicClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	resp, err := a.client.Messages.New(ctx, createAnthropicParams(prompt, opts))
	if err != nil {
		return "", unavailable("anthropic", err)
	}

	var text string
	for _, content := range resp.Content {
		switch c := content.AsAny().(type) {
		case anthropic.TextBlock:
			text += c.Text
		}
	}
	return text, nil
}

func createAnthropicParams(prompt string, opts CompletionOptions) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		StopSequences: opts.Stop,
		Temperature:   anthropic.Float(opts.Temperature),
	}
}
