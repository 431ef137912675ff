package session

import (
	"fmt"
	"strings"
)

// Exchange is one answered question.
type Exchange struct {
	Question string
	Answer   string
}

// Transcript is the in-memory conversation history for the lifetime of the
// process. Exchanges are only ever appended.
type Transcript struct {
	exchanges []Exchange
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Add appends a completed exchange to the transcript.
func (t *Transcript) Add(question, answer string) {
	t.exchanges = append(t.exchanges, Exchange{Question: question, Answer: answer})
}

// Len returns the number of recorded exchanges.
func (t *Transcript) Len() int {
	return len(t.exchanges)
}

// Empty reports whether nothing has been answered yet.
func (t *Transcript) Empty() bool {
	return len(t.exchanges) == 0
}

// Exchanges returns a copy of the recorded exchanges in insertion order.
func (t *Transcript) Exchanges() []Exchange {
	out := make([]Exchange, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

// String renders the transcript as interleaved "Q: ...\nA: ..." lines.
func (t *Transcript) String() string {
	var sb strings.Builder
	for _, ex := range t.exchanges {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
	}
	return sb.String()
}
