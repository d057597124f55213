package talk

import (
	"context"
	"errors"
	"time"

	"github.com/cumulus-classroom/cumulus/pkg/io/tts"
)

type SpeechRenderer struct {
	synth   tts.Synthesizer
	voice   string
	timeout time.Duration
}

func NewSpeechRenderer(s tts.Synthesizer, voice string, timeout time.Duration) *SpeechRenderer {
	return &SpeechRenderer{synth: s, voice: voice, timeout: timeout}
}

// Render synthesizes text into path. Any outcome other than a completed
// synthesis is a SynthesisError carrying the engine's detail.
func (r *SpeechRenderer) Render(ctx context.Context, text, path string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.synth.SynthesizeToFile(ctx, text, r.voice, path); err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "synthesis timed out after " + formatSeconds(r.timeout)
		}
		return &SynthesisError{Details: detail, Err: err}
	}
	return nil
}
