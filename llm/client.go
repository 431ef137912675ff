package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m4xw311/sleuth/errors"
)

// CompletionOptions configures a single completion request.
type CompletionOptions struct {
	Model       string
	Stop        []string
	Temperature float64
}

// Completer sends a prompt to a language model backend and returns the raw
// text completion. Failures are reported as *ModelUnavailableError.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// ModelUnavailableError wraps any failure to obtain a completion from the backend.
type ModelUnavailableError struct {
	Backend string
	Err     error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

func unavailable(backend string, err error) error {
	return &ModelUnavailableError{Backend: backend, Err: err}
}

// NewClient builds the Completer for the named backend.
func NewClient(ctx context.Context, backend, ollamaURL string) (Completer, error) {
	switch backend {
	case "", "ollama":
		return NewOllamaClient(ollamaURL, nil)
	case "openai":
		return NewOpenAIClient(ctx)
	case "anthropic":
		return NewAnthropicClient(ctx)
	case "gemini":
		return NewGeminiClient(ctx)
	case "bedrock":
		return NewBedrockClient(ctx)
	case "mock":
		return &MockClient{}, nil
	default:
		return nil, errors.New("unknown llm backend '%s'", backend)
	}
}

// MockClient replays scripted completions. It records every prompt it
// receives so tests can inspect what the model was shown.
type MockClient struct {
	Responses []string
	Err       error

	mu      sync.Mutex
	prompts []string
	options []CompletionOptions
}

func (m *MockClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)

	if m.Err != nil {
		return "", unavailable("mock", m.Err)
	}
	if m.Responses == nil {
		// Unscripted: behave like a model that answers immediately.
		lines := strings.Split(strings.TrimSpace(prompt), "\n")
		return fmt.Sprintf(" I am a mock model.\nFinal Answer: you said %q", lines[len(lines)-1]), nil
	}
	idx := len(m.prompts) - 1
	if idx >= len(m.Responses) {
		return "", unavailable("mock", errors.New("no scripted response for call %d", idx+1))
	}
	return m.Responses[idx], nil
}

// Prompts returns the prompts received so far, in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Options returns the options received so far, in call order.
func (m *MockClient) Options() []CompletionOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionOptions, len(m.options))
	copy(out, m.options)
	return out
}
