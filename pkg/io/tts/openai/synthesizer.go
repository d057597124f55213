package openai

import (
	"context"
	"fmt"
	"io"
	"os"

	goopenai "github.com/sashabaranov/go-openai"
)

// Synthesizer uses the OpenAI speech endpoint, which can answer in MP3 directly.
type Synthesizer struct {
	client *goopenai.Client
	model  goopenai.SpeechModel
}

func NewSynthesizer(apiKey, baseURL, model string) *Synthesizer {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(goopenai.TTSModel1)
	}
	return &Synthesizer{client: goopenai.NewClientWithConfig(cfg), model: goopenai.SpeechModel(model)}
}

func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, voice, path string) error {
	if voice == "" {
		voice = string(goopenai.VoiceAlloy)
	}
	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp); err != nil {
		return fmt.Errorf("write mp3: %w", err)
	}
	return nil
}
