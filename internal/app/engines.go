package app

import (
	"fmt"
	"strings"

	"github.com/cumulus-classroom/cumulus/internal/config"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/audio/ffmpeg"
	"github.com/cumulus-classroom/cumulus/pkg/io/ocr/azurevision"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
	azurestt "github.com/cumulus-classroom/cumulus/pkg/io/stt/azure"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt/whisper"
	"github.com/cumulus-classroom/cumulus/pkg/io/tts"
	azuretts "github.com/cumulus-classroom/cumulus/pkg/io/tts/azure"
	openaitts "github.com/cumulus-classroom/cumulus/pkg/io/tts/openai"
	"github.com/cumulus-classroom/cumulus/pkg/io/tts/piper"
)

// Engines holds the audio and vision collaborators of the talk pipeline.
type Engines struct {
	Transcoder  *ffmpeg.FFmpeg
	Recognizer  stt.Recognizer
	Synthesizer tts.Synthesizer
	OCR         *azurevision.Client
}

func NewEngines(cfg *config.Settings, logger *Logger.Logger) (*Engines, error) {
	transcoder, err := ffmpeg.New(cfg.Transcoder.FFmpegPath)
	if err != nil {
		return nil, err
	}
	logger.Infof("transcoder: %s", transcoder.Path())

	recognizer, err := newRecognizer(cfg.Speech, logger)
	if err != nil {
		return nil, err
	}

	synthesizer, err := newSynthesizer(cfg, transcoder, logger)
	if err != nil {
		return nil, err
	}

	ocr := azurevision.New(cfg.Vision.Endpoint, cfg.Vision.Key, azurevision.Options{
		PollAttempts: cfg.Vision.PollAttempts,
		PollInterval: cfg.Vision.PollInterval,
	}, logger)
	if !ocr.Configured() {
		logger.Warn("vision endpoint or key missing, /api/ocr will fail")
	}

	return &Engines{
		Transcoder:  transcoder,
		Recognizer:  recognizer,
		Synthesizer: synthesizer,
		OCR:         ocr,
	}, nil
}

func newRecognizer(cfg config.SpeechConfig, logger *Logger.Logger) (stt.Recognizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "azure":
		r, err := azurestt.NewRecognizer(cfg.Key, cfg.Region, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure recognizer: %w", err)
		}
		logger.Infof("speech recognizer: azure (%s)", cfg.Region)
		return r, nil
	case "whisper":
		logger.Infof("speech recognizer: whisper at %s", cfg.WhisperURL)
		return whisper.NewRecognizer(whisper.NewWhisperClient(cfg.WhisperURL, logger), logger), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}

func newSynthesizer(cfg *config.Settings, encoder piper.MP3Encoder, logger *Logger.Logger) (tts.Synthesizer, error) {
	voice := cfg.Voice
	switch strings.ToLower(voice.Provider) {
	case "", "azure":
		s, err := azuretts.NewSynthesizer(cfg.Speech.Key, cfg.Speech.Region, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure synthesizer: %w", err)
		}
		logger.Infof("speech synthesizer: azure voice %s", voice.Name)
		return s, nil
	case "piper":
		logger.Infof("speech synthesizer: piper at %s", voice.PiperURL)
		return piper.New(voice.PiperURL, voice.Name, encoder, logger), nil
	case "openai":
		if cfg.Completion.APIKey == "" {
			return nil, fmt.Errorf("openai synthesizer requires completion.api_key")
		}
		logger.Infof("speech synthesizer: openai %s voice %s", voice.OpenAIModel, voice.Name)
		return openaitts.NewSynthesizer(cfg.Completion.APIKey, cfg.Completion.Endpoint, voice.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown voice provider %q", voice.Provider)
	}
}
