package llm

import (
	"context"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/m4xw311/sleuth/errors"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}
	return &GeminiClient{client: client}, nil
}

// Complete generates content for the prompt with the requested sampling settings.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	model := g.client.GenerativeModel(opts.Model)
	applyGeminiOptions(model, opts)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", unavailable("gemini", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", unavailable("gemini", errors.New("received an empty response from Gemini"))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text, nil
}

// applyGeminiOptions sets the sampling temperature and stop sequences on model.
func applyGeminiOptions(model *genai.GenerativeModel, opts CompletionOptions) {
	model.SetTemperature(float32(opts.Temperature))
	model.StopSequences = opts.Stop
}
