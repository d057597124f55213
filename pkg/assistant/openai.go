package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

type AzureConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
}

// azureCompleter talks to an Azure OpenAI chat deployment.
type azureCompleter struct {
	client     openai.Client
	deployment string
}

func NewAzureCompleter(cfg AzureConfig) (Completer, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, errors.New("azure openai endpoint, key and deployment are required")
	}
	return &azureCompleter{
		client: openai.NewClient(
			azure.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/"), cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		),
		deployment: cfg.Deployment,
	}, nil
}

// Complete implements Completer.
func (a *azureCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.deployment),
		Messages: convertToOpenaiMsgs(req.Messages()),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	chatCompletion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	out := &Completion{ID: chatCompletion.ID, Model: chatCompletion.Model}
	for _, choice := range chatCompletion.Choices {
		out.Choices = append(out.Choices, choice.Message.Content)
	}
	return out, nil
}

func convertToOpenaiMsgs(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case ASSISTANT:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		case SYSTEM:
			converted = append(converted, openai.SystemMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}
	return converted
}
