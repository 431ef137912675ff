package agent

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	actionRe      = regexp.MustCompile(`Action: (.*)`)
	actionInputRe = regexp.MustCompile(`Action Input: (.*)`)
	finalAnswerRe = regexp.MustCompile(`Final Answer: (.*)`)
)

// Directive is what a single completion asks the loop to do next: either an
// Action or a FinalAnswer.
type Directive interface {
	isDirective()
}

// Action asks the loop to run a tool.
type Action struct {
	Name  string
	Input string
}

// FinalAnswer ends the episode.
type FinalAnswer struct {
	Text string
}

func (Action) isDirective()      {}
func (FinalAnswer) isDirective() {}

// MissingActionInputError is returned when a completion names an action but
// carries no usable "Action Input:" line.
type MissingActionInputError struct {
	Action string
}

func (e *MissingActionInputError) Error() string {
	return fmt.Sprintf("action '%s' has no action input", e.Action)
}

// MissingFinalAnswerError is returned when a completion holds neither an
// action nor a final answer.
type MissingFinalAnswerError struct {
	Completion string
}

func (e *MissingFinalAnswerError) Error() string {
	return fmt.Sprintf("completion contains neither an action nor a final answer: %q", e.Completion)
}

// ParseDirective extracts the directive from a model completion. An action
// line takes precedence over a final answer line.
func ParseDirective(completion string) (Directive, error) {
	if m := actionRe.FindStringSubmatch(completion); m != nil {
		name := strings.TrimSpace(m[1])
		im := actionInputRe.FindStringSubmatch(completion)
		if im == nil {
			return nil, &MissingActionInputError{Action: name}
		}
		input := unquote(strings.TrimSpace(im[1]))
		if input == "" {
			return nil, &MissingActionInputError{Action: name}
		}
		return Action{Name: name, Input: input}, nil
	}

	if m := finalAnswerRe.FindStringSubmatch(completion); m != nil {
		if answer := strings.TrimSpace(m[1]); answer != "" {
			return FinalAnswer{Text: answer}, nil
		}
	}
	return nil, &MissingFinalAnswerError{Completion: completion}
}

// unquote strips a leading and a trailing double quote when present.
func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
