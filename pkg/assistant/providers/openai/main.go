package openai

import (
	"context"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

// Provider targets the public OpenAI API or any compatible base URL.
type Provider struct {
	client *goopenai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Provider{client: goopenai.NewClientWithConfig(cfg), model: model}
}

// Complete implements assistant.Completer.
func (p *Provider) Complete(ctx context.Context, req assistant.Request) (*assistant.Completion, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	for _, m := range req.Messages() {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	out := &assistant.Completion{ID: resp.ID, Model: resp.Model}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, choice.Message.Content)
	}
	return out, nil
}
