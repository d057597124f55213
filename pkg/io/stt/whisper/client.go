package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// TranscriptionResponse is the JSON body returned by the whisper ASR webservice.
type TranscriptionResponse struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Segments []TranscriptionSegment `json:"segments,omitempty"`
}

type TranscriptionSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	ID    int     `json:"id"`
}

// ServiceError is a non-200 answer from the ASR service.
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("whisper service returned status %d: %s", e.Status, e.Body)
}

type WhisperClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *Logger.Logger
}

func NewWhisperClient(baseURL string, logger *Logger.Logger) *WhisperClient {
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Transcribe posts a complete WAV file to /asr and returns the decoded result.
func (w *WhisperClient) Transcribe(ctx context.Context, wav []byte, language string) (*TranscriptionResponse, error) {
	if len(wav) == 0 {
		return nil, fmt.Errorf("no audio provided")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	q := url.Values{}
	q.Set("encode", "true")
	q.Set("task", "transcribe")
	q.Set("output", "json")
	if lang := baseLanguage(language); lang != "" {
		q.Set("language", lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/asr?"+q.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		w.logger.Errorf("Whisper service error (status %d): %s", resp.StatusCode, string(responseBody))
		return nil, &ServiceError{Status: resp.StatusCode, Body: string(responseBody)}
	}

	var transcription TranscriptionResponse
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		// some deployments answer output=json with plain text
		text := strings.TrimSpace(string(responseBody))
		if text == "" {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		w.logger.Debugf("Treating whisper response as plain text (%d bytes)", len(text))
		return &TranscriptionResponse{Text: text, Language: baseLanguage(language)}, nil
	}

	w.logger.Debugf("Whisper transcription: %q (language: %s, segments: %d)",
		transcription.Text, transcription.Language, len(transcription.Segments))
	return &transcription, nil
}

// baseLanguage turns a BCP-47 tag such as en-US into the bare code whisper expects.
func baseLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}

const (
	pcmSampleRate    = 16000
	pcmChannels      = 1
	pcmBitsPerSample = 16
)

// ensureWAV wraps raw 16 kHz mono PCM in a WAV header; input that already
// starts with a RIFF header is returned unchanged.
func ensureWAV(audio []byte) []byte {
	if len(audio) >= 12 && string(audio[0:4]) == "RIFF" && string(audio[8:12]) == "WAVE" {
		return audio
	}

	byteRate := pcmSampleRate * pcmChannels * pcmBitsPerSample / 8
	blockAlign := pcmChannels * pcmBitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	writeUint32LE(header[4:8], uint32(36+len(audio)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	writeUint32LE(header[16:20], 16)
	writeUint16LE(header[20:22], 1)
	writeUint16LE(header[22:24], pcmChannels)
	writeUint32LE(header[24:28], pcmSampleRate)
	writeUint32LE(header[28:32], uint32(byteRate))
	writeUint16LE(header[32:34], uint16(blockAlign))
	writeUint16LE(header[34:36], pcmBitsPerSample)
	copy(header[36:40], "data")
	writeUint32LE(header[40:44], uint32(len(audio)))

	return append(header, audio...)
}

func writeUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func writeUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
