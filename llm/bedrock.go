package llm

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m4xw311/sleuth/errors"
)

const bedrockAnthropicVersion = "bedrock-2023-05-31"

// BedrockClient invokes Anthropic models hosted on AWS Bedrock.
type BedrockClient struct {
	client *bedrockruntime.Client
}

// NewBedrockClient creates a new BedrockClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockClient(ctx context.Context) (*BedrockClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &BedrockClient{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// Complete invokes the model with the prompt as a single user message.
func (b *BedrockClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	body, err := createBedrockRequest(prompt, opts)
	if err != nil {
		return "", unavailable("bedrock", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(opts.Model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", unavailable("bedrock", err)
	}

	text, err := processBedrockResponse(resp.Body)
	if err != nil {
		return "", unavailable("bedrock", err)
	}
	return text, nil
}

// createBedrockRequest builds the Anthropic-on-Bedrock request body.
func createBedrockRequest(prompt string, opts CompletionOptions) ([]byte, error) {
	request := map[string]interface{}{
		"anthropic_version": bedrockAnthropicVersion,
		"max_tokens":        anthropicMaxTokens,
		"temperature":       opts.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	if len(opts.Stop) > 0 {
		request["stop_sequences"] = opts.Stop
	}
	return json.Marshal(request)
}

// processBedrockResponse concatenates the text blocks of a Bedrock response.
func processBedrockResponse(body []byte) (string, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return "", errors.New("Bedrock API error: %v", errMsg)
	}

	content, ok := response["content"]
	if !ok {
		return "", nil
	}
	contentArray, ok := content.([]interface{})
	if !ok {
		return "", errors.New("unexpected content format in Bedrock response")
	}

	var text string
	for _, item := range contentArray {
		block, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if block["type"] == "text" {
			if s, ok := block["text"].(string); ok {
				text += s
			}
		}
	}
	return text, nil
}
