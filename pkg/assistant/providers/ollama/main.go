package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

var ErrNoServer = errors.New("no ollama server online")

// OllamaProvider spreads requests over every registered ollama server and
// uses the first one that is online.
type OllamaProvider struct {
	farm   *ollamafarm.Farm
	model  string
	logger *Logger.Logger
}

func New(urls []string, model string, logger *Logger.Logger) (*OllamaProvider, error) {
	if model == "" {
		return nil, errors.New("ollama model is required")
	}
	farm := ollamafarm.New()
	registered := 0
	for _, u := range urls {
		if err := farm.RegisterURL(u, nil); err != nil {
			logger.Warnf("ollama: skipping %s: %v", u, err)
			continue
		}
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("no usable ollama url in %v", urls)
	}
	return &OllamaProvider{farm: farm, model: model, logger: logger}, nil
}

// Complete implements assistant.Completer.
func (o *OllamaProvider) Complete(ctx context.Context, req assistant.Request) (*assistant.Completion, error) {
	server := o.farm.First(&ollamafarm.Where{Offline: false})
	if server == nil {
		return nil, ErrNoServer
	}

	msgs := make([]api.Message, 0, 2)
	for _, m := range req.Messages() {
		msgs = append(msgs, api.Message{Role: string(m.Role), Content: m.Content})
	}

	stream := false
	options := map[string]interface{}{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var reply strings.Builder
	err := server.Client().Chat(ctx, &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	out := &assistant.Completion{Model: o.model}
	if reply.Len() > 0 {
		out.Choices = []string{reply.String()}
	}
	return out, nil
}
