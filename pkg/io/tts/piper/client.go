package piper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// MP3Encoder turns the WAV stream piper produces into MP3.
type MP3Encoder interface {
	EncodeMP3(ctx context.Context, r io.Reader, inputFormat string, w io.Writer) error
}

type Piper struct {
	BaseURL string
	Client  *http.Client
	Voice   string
	Timeout time.Duration

	encoder MP3Encoder
	logger  *Logger.Logger
}

func New(baseURL, voice string, encoder MP3Encoder, logger *Logger.Logger) *Piper {
	return &Piper{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Voice:   voice,
		encoder: encoder,
		logger:  logger,
	}
}

// DoTTS calls GET /api/text-to-speech and returns the audio body and its content type.
// The caller must close the body.
func (p *Piper) DoTTS(ctx context.Context, text string, optVoice string) (io.ReadCloser, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("empty text")
	}
	voice := p.Voice
	if optVoice != "" {
		voice = optVoice
	}

	u, err := url.Parse(p.BaseURL + "/api/text-to-speech")
	if err != nil {
		return nil, "", err
	}
	q := u.Query()
	q.Set("text", text)
	if voice != "" {
		q.Set("voice", voice)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "audio/wav")

	hc := p.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tts http request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, "", fmt.Errorf("tts http %d: %s (dur=%s)", resp.StatusCode, strings.TrimSpace(string(b)), time.Since(start))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// SynthesizeToFile implements tts.Synthesizer.
func (p *Piper) SynthesizeToFile(ctx context.Context, text, voice, path string) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	body, contentType, err := p.DoTTS(ctx, text, voice)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if isMP3(contentType) {
		if _, err := io.Copy(out, body); err != nil {
			return fmt.Errorf("write mp3: %w", err)
		}
		return nil
	}

	p.logger.Debugf("piper returned %q, encoding to mp3", contentType)
	if err := p.encoder.EncodeMP3(ctx, body, "wav", out); err != nil {
		return fmt.Errorf("conversion to mp3 error: %w", err)
	}
	return nil
}

func isMP3(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "audio/mpeg") || strings.HasPrefix(ct, "audio/mp3")
}
