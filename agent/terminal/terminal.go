package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/m4xw311/sleuth/agent"
	"github.com/m4xw311/sleuth/session"
)

// InputPrompt is written before every operator question.
const InputPrompt = "How can I assist you? "

var (
	answerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	toolStyle   = lipgloss.NewStyle().Faint(true)
)

// Terminal handles the console interaction mode for the agent
type Terminal struct {
	agent       *agent.Agent
	transcript  *session.Transcript
	in          io.Reader
	out         io.Writer
	exitOnError bool
}

// New creates a new Terminal reading questions from in and writing answers to out.
// A nil transcript starts an empty one.
func New(a *agent.Agent, transcript *session.Transcript, in io.Reader, out io.Writer, exitOnError bool) *Terminal {
	if transcript == nil {
		transcript = session.New()
	}
	return &Terminal{
		agent:       a,
		transcript:  transcript,
		in:          in,
		out:         out,
		exitOnError: exitOnError,
	}
}

// Transcript returns the exchanges recorded so far.
func (t *Terminal) Transcript() *session.Transcript {
	return t.transcript
}

// Run starts the interactive session. It returns nil on EOF or an exit
// command and ctx.Err() once ctx is cancelled, even while waiting for input.
// A failed question ends the session only when exitOnError is set.
func (t *Terminal) Run(ctx context.Context, initialQuestion string) error {
	if initialQuestion = strings.TrimSpace(initialQuestion); initialQuestion != "" {
		if err := t.handle(ctx, initialQuestion); err != nil {
			return err
		}
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := t.readLines(readCtx)

	for {
		fmt.Fprint(t.out, InputPrompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(t.out)
				return <-readErr
			}
			line = l
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if question == "/quit" || question == "/exit" {
			return nil
		}

		if err := t.handle(ctx, question); err != nil {
			return err
		}
	}
}

// readLines scans t.in on its own goroutine so that a blocked read never
// delays cancellation. lines is closed at EOF, after the scan error (or nil)
// is sent on the returned error channel.
func (t *Terminal) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()
	return lines, readErr
}

// handle answers one question. It only returns an error when the session
// should stop.
func (t *Terminal) handle(ctx context.Context, question string) error {
	err := t.processTurn(ctx, question)
	if err == nil {
		return nil
	}
	if t.exitOnError || ctx.Err() != nil {
		return err
	}
	log.Error("question failed, waiting for the next one", "op", "turn", "err", err)
	fmt.Fprintf(t.out, "Error: %v\n", err)
	return nil
}

// processTurn merges the question with earlier exchanges, runs the agent and
// records the exchange.
func (t *Terminal) processTurn(ctx context.Context, question string) error {
	if !t.transcript.Empty() {
		merged, err := t.agent.MergeQuestion(ctx, question, t.transcript.String())
		if err != nil {
			return err
		}
		log.Debug("merged question", "original", question, "merged", merged)
		question = merged
	}

	answer, err := t.agent.Answer(ctx, question, t.callbacks())
	if err != nil {
		return err
	}

	fmt.Fprintln(t.out, answerStyle.Render(answer))
	t.transcript.Add(question, answer)
	return nil
}

func (t *Terminal) callbacks() agent.ProcessCallbacks {
	return agent.ProcessCallbacks{
		OnAction: func(action agent.Action) {
			switch t.agent.Verbosity {
			case agent.ToolVerbosityAll:
				fmt.Fprintln(t.out, toolStyle.Render(fmt.Sprintf("Calling tool `%s` with input: %s", action.Name, action.Input)))
			case agent.ToolVerbosityInfo:
				fmt.Fprintln(t.out, toolStyle.Render(fmt.Sprintf("Calling tool `%s`", action.Name)))
			}
		},
		OnObservation: func(action agent.Action, observation string) {
			if t.agent.Verbosity == agent.ToolVerbosityAll {
				fmt.Fprintln(t.out, toolStyle.Render(fmt.Sprintf("Tool `%s` output: %s", action.Name, observation)))
			}
		},
	}
}
