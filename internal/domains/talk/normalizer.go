package talk

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/audio/ffmpeg"
)

// Normalizer turns an upload of any container/codec into the mono 16 kHz
// PCM WAV the recognizer expects.
type Normalizer struct {
	transcoder ffmpeg.Transcoder
	probe      bool
	logger     *Logger.Logger
}

func NewNormalizer(t ffmpeg.Transcoder, probe bool, logger *Logger.Logger) *Normalizer {
	return &Normalizer{transcoder: t, probe: probe, logger: logger}
}

// Normalize returns the path of the converted file. The upload copy is
// removed as soon as conversion succeeds.
func (n *Normalizer) Normalize(ctx context.Context, audio io.Reader, sc *scratch) (string, error) {
	input := sc.path("input.webm")
	if err := writeFile(input, audio); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	output := sc.path("stt.wav")
	if err := n.transcoder.Convert(ctx, input, output, ffmpeg.SpeechPCM); err != nil {
		// ffmpeg.Error renders as ffmpeg's own stderr
		return "", &ConversionError{Diagnostic: err.Error(), Err: err}
	}
	sc.remove(input)

	if n.probe {
		if info, err := n.transcoder.Probe(ctx, output); err != nil {
			n.logger.Debugf("probe of %s failed: %v", output, err)
		} else {
			n.logger.Debugf("normalized audio: %s", info)
		}
	}
	return output, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
