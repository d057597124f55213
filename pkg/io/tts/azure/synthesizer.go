// Package azure renders speech with the Azure Speech SDK directly into a file.
package azure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

var ErrMissingCredentials = errors.New("azure speech key and region are required")

type Synthesizer struct {
	key    string
	region string
	logger *Logger.Logger
}

func NewSynthesizer(key, region string, logger *Logger.Logger) (*Synthesizer, error) {
	if key == "" || region == "" {
		return nil, ErrMissingCredentials
	}
	return &Synthesizer{key: key, region: region, logger: logger}, nil
}

func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, voice, path string) error {
	speechCfg, err := speech.NewSpeechConfigFromSubscription(s.key, s.region)
	if err != nil {
		return fmt.Errorf("create speech config: %w", err)
	}
	if voice != "" {
		if err := speechCfg.SetSpeechSynthesisVoiceName(voice); err != nil {
			speechCfg.Close()
			return fmt.Errorf("set voice: %w", err)
		}
	}
	if err := speechCfg.SetSpeechSynthesisOutputFormat(common.Audio16Khz32KBitRateMonoMp3); err != nil {
		speechCfg.Close()
		return fmt.Errorf("set output format: %w", err)
	}

	audioCfg, err := audio.NewAudioConfigFromWavFileOutput(path)
	if err != nil {
		speechCfg.Close()
		return fmt.Errorf("create file output: %w", err)
	}

	synth, err := speech.NewSpeechSynthesizerFromConfig(speechCfg, audioCfg)
	if err != nil {
		audioCfg.Close()
		speechCfg.Close()
		return fmt.Errorf("create synthesizer: %w", err)
	}

	release := func() {
		synth.Close()
		audioCfg.Close()
		speechCfg.Close()
	}

	task := synth.SpeakTextAsync(text)
	select {
	case outcome := <-task:
		defer release()
		defer outcome.Close()
		return checkOutcome(outcome)
	case <-ctx.Done():
		// the SDK still owns the request; release once it reports back
		go func() {
			outcome := <-task
			outcome.Close()
			release()
		}()
		return ctx.Err()
	}
}

func checkOutcome(outcome speech.SpeechSynthesisOutcome) error {
	if outcome.Error != nil {
		return outcome.Error
	}
	if outcome.Result.Reason == common.SynthesizingAudioCompleted {
		return nil
	}
	details, err := speech.NewCancellationDetailsFromSpeechSynthesisResult(outcome.Result)
	if err != nil {
		return fmt.Errorf("synthesis ended with reason %d", int(outcome.Result.Reason))
	}
	return errors.New(details.ErrorDetails)
}
