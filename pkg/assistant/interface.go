package assistant

import (
	"context"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a single-turn completion: an optional system instruction and
// one user prompt, with fixed generation parameters.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Messages renders the request as a chat transcript.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, 2)
	if r.System != "" {
		msgs = append(msgs, Message{Role: SYSTEM, Content: r.System})
	}
	return append(msgs, Message{Role: USER, Content: r.Prompt})
}

type Completion struct {
	ID      string
	Model   string
	Choices []string
}

// Completer sends exactly one request to a completion engine. It never retries.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
