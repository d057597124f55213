package whisper

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/smallnest/ringbuffer"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

const pushBufferSize = 256 << 10

var errSessionClosed = errors.New("whisper session closed")

// Recognizer adapts the batch whisper endpoint to the push-stream session
// model: audio is buffered until input is closed, then transcribed once.
type Recognizer struct {
	client *WhisperClient
	logger *Logger.Logger
}

func NewRecognizer(client *WhisperClient, logger *Logger.Logger) *Recognizer {
	return &Recognizer{client: client, logger: logger}
}

func (r *Recognizer) Start(ctx context.Context, cfg stt.SessionConfig) (stt.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		client:   r.client,
		logger:   r.logger,
		language: cfg.Language,
		buf:      ringbuffer.New(pushBufferSize).SetBlocking(true),
		events:   make(chan stt.Event, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	context.AfterFunc(ctx, func() { s.buf.CloseWithError(errSessionClosed) })
	go s.run(ctx)
	return s, nil
}

type session struct {
	client   *WhisperClient
	logger   *Logger.Logger
	language string

	buf    *ringbuffer.RingBuffer
	events chan stt.Event

	cancel    context.CancelFunc
	done      chan struct{}
	inputOnce sync.Once
	closeOnce sync.Once
}

func (s *session) Write(p []byte) error {
	_, err := s.buf.Write(p)
	return err
}

func (s *session) CloseInput() error {
	s.inputOnce.Do(s.buf.CloseWriter)
	return nil
}

func (s *session) Events() <-chan stt.Event {
	return s.events
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.buf.CloseWithError(errSessionClosed)
		<-s.done
	})
	return nil
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	var audio bytes.Buffer
	if _, err := audio.ReadFrom(s.buf); err != nil {
		if errors.Is(err, errSessionClosed) || ctx.Err() != nil {
			return
		}
		s.emit(ctx, stt.Event{Kind: stt.Canceled, Reason: stt.ReasonError, ErrorCode: "StreamError", ErrorDetails: err.Error()})
		return
	}

	if audio.Len() == 0 {
		s.emit(ctx, stt.Event{Kind: stt.Canceled, Reason: stt.ReasonEndOfStream})
		return
	}

	result, err := s.client.Transcribe(ctx, ensureWAV(audio.Bytes()), s.language)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		code := "ServiceUnavailable"
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			code = "HTTP" + strconv.Itoa(svcErr.Status)
		}
		s.emit(ctx, stt.Event{Kind: stt.Canceled, Reason: stt.ReasonError, ErrorCode: code, ErrorDetails: err.Error()})
		return
	}

	for _, text := range segmentTexts(result) {
		if !s.emit(ctx, stt.Event{Kind: stt.Recognized, Text: text}) {
			return
		}
	}
	s.emit(ctx, stt.Event{Kind: stt.SessionStopped})
}

func (s *session) emit(ctx context.Context, ev stt.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func segmentTexts(r *TranscriptionResponse) []string {
	var out []string
	for _, seg := range r.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		if t := strings.TrimSpace(r.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
