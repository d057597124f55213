package assistant

import (
	"context"
	"strings"
	"time"
)

// DefaultSystemPrompt is used when a caller does not bring its own instruction.
const DefaultSystemPrompt = "You are a helpful AI assistant."

const DefaultFallback = "No response generated."

// CompletionError keeps the short message shown to clients apart from the
// engine's full diagnostic text.
type CompletionError struct {
	Message string
	Detail  string
	Err     error
}

func (e *CompletionError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *CompletionError) Unwrap() error { return e.Err }

type Generation struct {
	Temperature float64
	MaxTokens   int
}

type ClientOptions struct {
	System     string
	Generation Generation
	Fallback   string
	Timeout    time.Duration
}

// Client wraps a Completer with the fixed parameters of this service and the
// fallback reply for empty answers.
type Client struct {
	completer Completer
	opts      ClientOptions
}

func NewClient(c Completer, opts ClientOptions) *Client {
	if opts.System == "" {
		opts.System = DefaultSystemPrompt
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	return &Client{completer: c, opts: opts}
}

// Reply sends prompt with the default system instruction.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	return c.ReplyWithSystem(ctx, c.opts.System, prompt)
}

func (c *Client) ReplyWithSystem(ctx context.Context, system, prompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	completion, err := c.completer.Complete(ctx, Request{
		System:      system,
		Prompt:      prompt,
		Temperature: c.opts.Generation.Temperature,
		MaxTokens:   c.opts.Generation.MaxTokens,
	})
	if err != nil {
		return "", &CompletionError{Message: "completion request failed", Detail: err.Error(), Err: err}
	}
	if completion == nil || len(completion.Choices) == 0 {
		return c.opts.Fallback, nil
	}
	if strings.TrimSpace(completion.Choices[0]) == "" {
		return c.opts.Fallback, nil
	}
	return completion.Choices[0], nil
}
