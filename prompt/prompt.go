// Package prompt loads the prompt templates and fills in their placeholders.
//
// Substitution is a literal, single-shot replacement of the first occurrence
// of each placeholder. A placeholder that appears twice keeps its second
// occurrence verbatim.
package prompt

import (
	"fmt"
	"os"
	"strings"
)

const (
	QuestionPlaceholder = "${question}"
	ToolsPlaceholder    = "${tools}"
	HistoryPlaceholder  = "${history}"
)

// TemplateError reports a template file that could not be loaded.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("cannot load prompt template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Renderer holds the primary and merge templates.
type Renderer struct {
	primary string
	merge   string
}

// NewRenderer creates a renderer from template text already in memory.
func NewRenderer(primary, merge string) *Renderer {
	return &Renderer{primary: primary, merge: merge}
}

// Load reads both templates from disk. A missing or unreadable file is
// returned as a *TemplateError.
func Load(primaryPath, mergePath string) (*Renderer, error) {
	primary, err := os.ReadFile(primaryPath)
	if err != nil {
		return nil, &TemplateError{Path: primaryPath, Err: err}
	}
	merge, err := os.ReadFile(mergePath)
	if err != nil {
		return nil, &TemplateError{Path: mergePath, Err: err}
	}
	return NewRenderer(string(primary), string(merge)), nil
}

// Render produces the initial prompt for a new agent episode.
func (r *Renderer) Render(question string, toolDescriptions []string) string {
	out := strings.Replace(r.primary, QuestionPlaceholder, question, 1)
	return strings.Replace(out, ToolsPlaceholder, strings.Join(toolDescriptions, "\n"), 1)
}

// RenderMerge produces the prompt asking the model to rewrite question in
// light of the conversation history.
func (r *Renderer) RenderMerge(question, history string) string {
	out := strings.Replace(r.merge, QuestionPlaceholder, question, 1)
	return strings.Replace(out, HistoryPlaceholder, history, 1)
}
