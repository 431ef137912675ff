package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/m4xw311/sleuth/errors"
)

// Tool defines the interface for any action the agent can take. Input is the
// raw text the model supplied on its "Action Input:" line.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input string) (string, error)
}

// ExecuteFunc is the signature of a tool body.
type ExecuteFunc func(ctx context.Context, input string) (string, error)

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	name        string
	description string
	fn          ExecuteFunc
}

func NewFuncTool(name, description string, fn ExecuteFunc) *FuncTool {
	return &FuncTool{name: name, description: description, fn: fn}
}

func (t *FuncTool) Name() string        { return t.name }
func (t *FuncTool) Description() string { return t.description }
func (t *FuncTool) Execute(ctx context.Context, input string) (string, error) {
	return t.fn(ctx, input)
}

// ToolRegistry holds the tools available to the agent, in registration order.
// The same registry is used to describe tools in the prompt and to dispatch
// actions, so the two sets never diverge.
type ToolRegistry struct {
	order []string
	tools map[string]Tool
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique.
func (r *ToolRegistry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return errors.New("tool name must not be empty")
	}
	if _, exists := r.tools[name]; exists {
		return errors.New("tool '%s' is already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// RegisterFunc registers a function-backed tool.
func (r *ToolRegistry) RegisterFunc(name, description string, fn ExecuteFunc) error {
	return r.Register(NewFuncTool(name, description, fn))
}

func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe returns one "name: description" line per tool, in registration order.
func (r *ToolRegistry) Describe() []string {
	lines := make([]string, 0, len(r.order))
	for _, name := range r.order {
		lines = append(lines, fmt.Sprintf("%s: %s", name, r.tools[name].Description()))
	}
	return lines
}

// Invoke runs the named tool. An unregistered name yields *UnknownToolError,
// a failing tool yields *ToolExecutionError wrapping the tool's own error.
func (r *ToolRegistry) Invoke(ctx context.Context, name, input string) (string, error) {
	name = strings.TrimSpace(name)
	t, ok := r.tools[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}

	start := time.Now()
	result, err := t.Execute(ctx, input)
	log.Debug("tool executed", "tool", name, "duration_ms", time.Since(start).Milliseconds(), "is_error", err != nil)
	if err != nil {
		return "", &ToolExecutionError{ToolName: name, Cause: err}
	}
	return result, nil
}

// Filter returns a new registry holding only the tools whose names match at
// least one of the glob patterns, keeping registration order.
func (r *ToolRegistry) Filter(patterns []string) (*ToolRegistry, error) {
	filtered := NewToolRegistry()
	for _, name := range r.order {
		match, err := isNameMatched(name, patterns)
		if err != nil {
			return nil, err
		}
		if match {
			filtered.tools[name] = r.tools[name]
			filtered.order = append(filtered.order, name)
		}
	}
	return filtered, nil
}

// isNameMatched checks if a tool name matches any of the glob patterns.
func isNameMatched(name string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
