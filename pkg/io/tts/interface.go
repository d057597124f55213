package tts

import "context"

// Synthesizer renders text as MP3 audio into the file at path. Engine
// resources are released before it returns, on success and on failure.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, voice, path string) error
}
