package llm

import (
	"context"
	"os"

	"github.com/m4xw311/sleuth/errors"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIClient is a client for the OpenAI Chat Completion API. The whole
// prompt is sent as a single user message.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAIClient. It requires the OPENAI_API_KEY environment variable to be set.
// It also supports OPENAI_BASE_URL for OpenAI-compatible endpoints.
func NewOpenAIClient(ctx context.Context) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(options...)
	return &OpenAIClient{client: &c}, nil
}

// Complete sends the prompt and returns the text of the first choice.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, createOpenAIParams(prompt, opts))
	if err != nil {
		return "", unavailable("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", unavailable("openai", errors.New("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// createOpenAIParams builds a chat completion request holding the prompt as
// a single user message.
func createOpenAIParams(prompt string, opts CompletionOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if len(opts.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.Stop}
	}
	return params
}
