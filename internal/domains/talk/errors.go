package talk

import (
	"errors"
	"fmt"
	"time"

	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

var (
	// ErrNoAudio means the request carried no audio to work on.
	ErrNoAudio = errors.New("no audio file provided")
	// ErrNoSpeechDetected means recognition finished without a single segment.
	ErrNoSpeechDetected = errors.New("no speech recognized")
)

// ConversionError wraps the transcoder's own diagnostic text.
type ConversionError struct {
	Diagnostic string
	Err        error
}

func (e *ConversionError) Error() string {
	return "FFmpeg error: " + e.Diagnostic
}

func (e *ConversionError) Unwrap() error { return e.Err }

// RecognitionError is a recognition session canceled for any reason other
// than reaching the end of the audio.
type RecognitionError struct {
	Reason  string
	Code    string
	Details string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("Speech recognition canceled: %s, Code: %s, Details: %s", e.Reason, e.Code, e.Details)
}

// RecognitionTimeoutError is returned when no terminal recognition event
// arrives within the configured bound.
type RecognitionTimeoutError struct {
	After time.Duration
}

func (e *RecognitionTimeoutError) Error() string {
	return fmt.Sprintf("Recognition timed out after %s", formatSeconds(e.After))
}

func (e *RecognitionTimeoutError) Is(target error) bool {
	return target == ErrRecognitionTimeout
}

var ErrRecognitionTimeout = errors.New("recognition timed out")

// CompletionError is shared with the assistant client so callers can match it
// with errors.As regardless of which package produced it.
type CompletionError = assistant.CompletionError

type SynthesisError struct {
	Details string
	Err     error
}

func (e *SynthesisError) Error() string {
	return "TTS failed: " + e.Details
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
	return d.String()
}
