package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/m4xw311/sleuth/llm"
	"github.com/m4xw311/sleuth/prompt"
	"github.com/m4xw311/sleuth/tools"
)

// ObservationPrefix starts every observation line. It is also the stop
// marker, so the model halts before inventing an observation of its own.
const ObservationPrefix = "Observation:"

type ToolVerbosity string

const (
	ToolVerbosityNone ToolVerbosity = "none"
	ToolVerbosityInfo ToolVerbosity = "info"
	ToolVerbosityAll  ToolVerbosity = "all"
)

// Options holds the sampling configuration and the turn bound.
type Options struct {
	Model       string
	Temperature float64
	// MaxTurns bounds the number of model calls per episode. Zero means unbounded.
	MaxTurns int
}

// MaxTurnsExceededError is returned when an episode reaches Options.MaxTurns
// model calls without a final answer.
type MaxTurnsExceededError struct {
	MaxTurns int
}

func (e *MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("no final answer after %d turns", e.MaxTurns)
}

// ProcessCallbacks lets the caller observe an episode as it runs. Any field may be nil.
type ProcessCallbacks struct {
	OnCompletion  func(completion string)
	OnAction      func(action Action)
	OnObservation func(action Action, observation string)
}

type Agent struct {
	LLMClient llm.Completer
	Tools     *tools.ToolRegistry
	Prompts   *prompt.Renderer
	Options   Options
	Verbosity ToolVerbosity
}

func New(client llm.Completer, registry *tools.ToolRegistry, renderer *prompt.Renderer, opts Options, verbosity ToolVerbosity) *Agent {
	return &Agent{
		LLMClient: client,
		Tools:     registry,
		Prompts:   renderer,
		Options:   opts,
		Verbosity: verbosity,
	}
}

func (a *Agent) completionOptions() llm.CompletionOptions {
	return llm.CompletionOptions{
		Model:       a.Options.Model,
		Stop:        []string{ObservationPrefix},
		Temperature: a.Options.Temperature,
	}
}

// Answer runs one reason/act/observe episode for question and returns the
// model's final answer. Every error is fatal to the episode.
func (a *Agent) Answer(ctx context.Context, question string, callbacks ProcessCallbacks) (string, error) {
	logger := log.With("episode", uuid.NewString())
	state := NewPromptState(a.Prompts.Render(question, a.Tools.Describe()))

	for turn := 1; ; turn++ {
		if a.Options.MaxTurns > 0 && turn > a.Options.MaxTurns {
			err := &MaxTurnsExceededError{MaxTurns: a.Options.MaxTurns}
			logger.Error("episode aborted", "op", "answer", "err", err)
			return "", err
		}

		completion, err := a.LLMClient.Complete(ctx, state.String(), a.completionOptions())
		if err != nil {
			logger.Error("model call failed", "op", "complete", "turn", turn, "err", err)
			return "", err
		}
		// Recorded before parsing so the buffer is a faithful transcript.
		state.Append(completion)
		if callbacks.OnCompletion != nil {
			callbacks.OnCompletion(completion)
		}

		directive, err := ParseDirective(completion)
		if err != nil {
			logger.Error("unusable completion", "op", "parse", "turn", turn, "err", err)
			return "", err
		}

		switch d := directive.(type) {
		case FinalAnswer:
			logger.Debug("final answer", "turns", turn)
			return d.Text, nil
		case Action:
			if callbacks.OnAction != nil {
				callbacks.OnAction(d)
			}
			observation, err := a.Tools.Invoke(ctx, d.Name, d.Input)
			if err != nil {
				logger.Error("tool dispatch failed", "op", "invoke", "tool", d.Name, "turn", turn, "err", err)
				return "", err
			}
			if callbacks.OnObservation != nil {
				callbacks.OnObservation(d, observation)
			}
			if !state.EndsWithNewline() {
				state.Append("\n")
			}
			state.Append(fmt.Sprintf("%s %s\n", ObservationPrefix, observation))
		}
	}
}

// MergeQuestion asks the model to rewrite question as a standalone question
// given the rendered conversation history.
func (a *Agent) MergeQuestion(ctx context.Context, question, history string) (string, error) {
	merged, err := a.LLMClient.Complete(ctx, a.Prompts.RenderMerge(question, history), a.completionOptions())
	if err != nil {
		log.Error("merge round failed", "op", "merge", "err", err)
		return "", err
	}
	merged = strings.TrimSpace(merged)
	if merged == "" {
		return question, nil
	}
	return merged, nil
}
