package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cumulus-classroom/cumulus/internal/config"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/assistant"
	"github.com/cumulus-classroom/cumulus/pkg/assistant/providers/gemini"
	"github.com/cumulus-classroom/cumulus/pkg/assistant/providers/ollama"
	"github.com/cumulus-classroom/cumulus/pkg/assistant/providers/openai"
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// LLMFactory builds the completion engine named by completion.provider.
type LLMFactory struct {
	config config.CompletionConfig
	logger *Logger.Logger
}

func NewLLMFactory(cfg config.CompletionConfig, logger *Logger.Logger) *LLMFactory {
	return &LLMFactory{config: cfg, logger: logger}
}

// CreateCompleter returns the engine and, for providers holding a
// connection, a closer the caller must run on shutdown.
func (f *LLMFactory) CreateCompleter(ctx context.Context) (assistant.Completer, io.Closer, error) {
	provider := strings.ToLower(f.config.Provider)
	switch provider {
	case "", ProviderAzure:
		c, err := assistant.NewAzureCompleter(assistant.AzureConfig{
			Endpoint:   f.config.Endpoint,
			APIKey:     f.config.APIKey,
			APIVersion: f.config.APIVersion,
			Deployment: f.config.Deployment,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create azure completer: %w", err)
		}
		f.logger.Infof("completion provider: azure deployment %s", f.config.Deployment)
		return c, nil, nil

	case ProviderOpenAI:
		if f.config.APIKey == "" {
			return nil, nil, fmt.Errorf("openai completer requires completion.api_key")
		}
		f.logger.Infof("completion provider: openai model %s", f.config.Deployment)
		return openai.New(f.config.APIKey, f.config.Endpoint, f.config.Deployment), nil, nil

	case ProviderOllama:
		p, err := ollama.New(f.config.OllamaURLs, f.config.Deployment, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create ollama completer: %w", err)
		}
		f.logger.Infof("completion provider: ollama (%d servers)", len(f.config.OllamaURLs))
		return p, nil, nil

	case ProviderGemini:
		p, err := gemini.New(ctx, f.config.APIKey, f.config.Deployment)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini completer: %w", err)
		}
		f.logger.Infof("completion provider: gemini model %s", f.config.Deployment)
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("unknown completion provider %q", f.config.Provider)
	}
}

// CreateClient wraps the engine with the service's generation parameters.
func (f *LLMFactory) CreateClient(completer assistant.Completer, talk config.TalkConfig) *assistant.Client {
	return assistant.NewClient(completer, assistant.ClientOptions{
		Generation: assistant.Generation{
			Temperature: f.config.Temperature,
			MaxTokens:   f.config.MaxTokens,
		},
		Fallback: f.config.Fallback,
		Timeout:  talk.CompletionTimeout,
	})
}
