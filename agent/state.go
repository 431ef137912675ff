package agent

import "strings"

// PromptState is the text buffer of one in-flight episode. It is seeded with
// the rendered prompt and only ever appended to.
type PromptState struct {
	buf strings.Builder
}

func NewPromptState(seed string) *PromptState {
	s := &PromptState{}
	s.buf.WriteString(seed)
	return s
}

func (s *PromptState) Append(text string) {
	s.buf.WriteString(text)
}

// EndsWithNewline reports whether the buffer currently ends a line.
func (s *PromptState) EndsWithNewline() bool {
	return strings.HasSuffix(s.buf.String(), "\n")
}

func (s *PromptState) String() string {
	return s.buf.String()
}
