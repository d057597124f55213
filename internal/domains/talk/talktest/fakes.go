// Package talktest provides scripted stand-ins for the engines behind the
// talk pipeline so it can be exercised without ffmpeg or cloud services.
package talktest

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/cumulus-classroom/cumulus/internal/domains/classroom"
	"github.com/cumulus-classroom/cumulus/pkg/io/audio/ffmpeg"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

// Transcoder copies the input to the output unless Stderr is set, in which
// case it fails the way ffmpeg does.
type Transcoder struct {
	Stderr   string
	ProbeErr error

	mu     sync.Mutex
	Inputs []string
	Specs  []ffmpeg.Spec
}

func (t *Transcoder) Convert(_ context.Context, in, out string, spec ffmpeg.Spec) error {
	t.mu.Lock()
	t.Inputs = append(t.Inputs, in)
	t.Specs = append(t.Specs, spec)
	t.mu.Unlock()

	if t.Stderr != "" {
		return &ffmpeg.Error{Stderr: t.Stderr}
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o600)
}

func (t *Transcoder) Probe(_ context.Context, path string) (string, error) {
	if t.ProbeErr != nil {
		return "", t.ProbeErr
	}
	return "Stream #0:0: Audio: pcm_s16le, 16000 Hz, mono", nil
}

// Recognizer replays Script once the caller closes the input. With Hang set
// it never emits anything, which lets tests drive the timeout path.
type Recognizer struct {
	Script   []stt.Event
	Hang     bool
	StartErr error

	mu       sync.Mutex
	Sessions []*Session
}

func (r *Recognizer) Start(_ context.Context, cfg stt.SessionConfig) (stt.Session, error) {
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	s := &Session{
		Config: cfg,
		script: r.Script,
		hang:   r.Hang,
		events: make(chan stt.Event, len(r.Script)+1),
	}
	r.mu.Lock()
	r.Sessions = append(r.Sessions, s)
	r.mu.Unlock()
	return s, nil
}

func (r *Recognizer) LastSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sessions) == 0 {
		return nil
	}
	return r.Sessions[len(r.Sessions)-1]
}

type Session struct {
	Config stt.SessionConfig

	script []stt.Event
	hang   bool
	events chan stt.Event

	mu          sync.Mutex
	received    bytes.Buffer
	inputClosed bool
	closed      bool
}

func (s *Session) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received.Write(p)
	return nil
}

func (s *Session) CloseInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputClosed || s.closed {
		s.inputClosed = true
		return nil
	}
	s.inputClosed = true
	if !s.hang {
		for _, ev := range s.script {
			s.events <- ev
		}
	}
	return nil
}

func (s *Session) Events() <-chan stt.Event { return s.events }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Session) Received() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.received.Bytes()...)
}

func (s *Session) InputClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputClosed
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Synthesizer writes Audio to the requested path, or fails with Err.
type Synthesizer struct {
	Audio []byte
	Err   error

	mu     sync.Mutex
	Texts  []string
	Voices []string
}

func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, voice, path string) error {
	s.mu.Lock()
	s.Texts = append(s.Texts, text)
	s.Voices = append(s.Voices, voice)
	s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	audio := s.Audio
	if audio == nil {
		audio = []byte("ID3\x04\x00fake-mp3-frames")
	}
	return os.WriteFile(path, audio, 0o600)
}

// Replier answers every prompt with Answer, or fails with Err.
type Replier struct {
	Answer string
	Err    error

	mu      sync.Mutex
	Prompts []string
}

func (r *Replier) Reply(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.Prompts = append(r.Prompts, prompt)
	r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	return r.Answer, nil
}

// StaticContext serves a fixed classroom snapshot.
type StaticContext struct {
	OCR        string
	Transcript string
	Err        error
}

func (s StaticContext) Snapshot(context.Context) (classroom.Snapshot, error) {
	return classroom.Snapshot{OCRText: s.OCR, Transcript: s.Transcript}, s.Err
}

// Upload returns a reader over a tiny fake recording.
func Upload() io.Reader {
	return bytes.NewReader([]byte("\x1aE\xdf\xa3fake-webm-opus-payload"))
}
