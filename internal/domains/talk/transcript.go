package talk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

const (
	StateIdle      = "idle"
	StateStreaming = "streaming"
	StateCompleted = "completed"
	StateCanceled  = "canceled"
	StateTimedOut  = "timed_out"

	eventStart    = "start"
	eventComplete = "complete"
	eventCancel   = "cancel"
	eventTimeout  = "timeout"
)

const defaultChunkSize = 32 << 10

// Acquisition is the outcome of one recognition session.
type Acquisition struct {
	Transcript string
	Segments   int
	State      string
}

// TranscriptAcquirer streams a normalized file into a recognition session
// and collects the recognized text.
type TranscriptAcquirer struct {
	recognizer stt.Recognizer
	language   string
	timeout    time.Duration
	chunkSize  int
	logger     *Logger.Logger
}

func NewTranscriptAcquirer(r stt.Recognizer, language string, timeout time.Duration, logger *Logger.Logger) *TranscriptAcquirer {
	return &TranscriptAcquirer{
		recognizer: r,
		language:   language,
		timeout:    timeout,
		chunkSize:  defaultChunkSize,
		logger:     logger,
	}
}

func (a *TranscriptAcquirer) newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle}, Dst: StateStreaming},
			{Name: eventComplete, Src: []string{StateStreaming}, Dst: StateCompleted},
			{Name: eventCancel, Src: []string{StateStreaming}, Dst: StateCanceled},
			{Name: eventTimeout, Src: []string{StateStreaming}, Dst: StateTimedOut},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				a.logger.Debugf("recognition %s -> %s", e.Src, e.Dst)
			},
		},
	)
}

// Acquire never deletes wavPath; the caller owns it.
func (a *TranscriptAcquirer) Acquire(ctx context.Context, wavPath string) (*Acquisition, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open normalized audio: %w", err)
	}
	defer f.Close()

	lifecycle := a.newLifecycle()
	transition := func(event string) string {
		if err := lifecycle.Event(context.Background(), event); err != nil {
			a.logger.Warnf("recognition lifecycle: %v", err)
		}
		return lifecycle.Current()
	}

	runCtx, cancel := withBound(ctx, a.timeout)
	defer cancel()

	session, err := a.recognizer.Start(runCtx, stt.SessionConfig{Language: a.language})
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return nil, &RecognitionTimeoutError{After: a.timeout}
		}
		return nil, fmt.Errorf("start recognition: %w", err)
	}
	transition(eventStart)

	var feeder sync.WaitGroup
	defer func() {
		// stop the feeder before tearing the session down under it
		cancel()
		feeder.Wait()
		if err := session.Close(); err != nil {
			a.logger.Warnf("close recognition session: %v", err)
		}
	}()

	feeder.Add(1)
	go func() {
		defer feeder.Done()
		a.feed(runCtx, f, session)
	}()

	var (
		transcript strings.Builder
		segments   int
	)
	result := func(state string) *Acquisition {
		return &Acquisition{Transcript: transcript.String(), Segments: segments, State: state}
	}

	for {
		select {
		case ev, ok := <-session.Events():
			if !ok {
				// engine went away without a terminal event; keep what we have
				return result(transition(eventComplete)), nil
			}
			switch ev.Kind {
			case stt.Recognized:
				if strings.TrimSpace(ev.Text) == "" {
					continue
				}
				if segments > 0 {
					transcript.WriteByte('\n')
				}
				transcript.WriteString(ev.Text)
				segments++
				a.logger.Debugf("recognized segment %d (%d characters)", segments, len(ev.Text))
			case stt.Canceled:
				if ev.Reason == stt.ReasonEndOfStream {
					return result(transition(eventComplete)), nil
				}
				transition(eventCancel)
				return nil, &RecognitionError{Reason: string(ev.Reason), Code: ev.ErrorCode, Details: ev.ErrorDetails}
			case stt.SessionStopped:
				return result(transition(eventComplete)), nil
			}
		case <-runCtx.Done():
			if ctx.Err() != nil {
				transition(eventCancel)
				return nil, ctx.Err()
			}
			transition(eventTimeout)
			return nil, &RecognitionTimeoutError{After: a.timeout}
		}
	}
}

// feed pushes the file into the session chunk by chunk and always closes
// the input side, even when reading fails part way.
func (a *TranscriptAcquirer) feed(ctx context.Context, r io.Reader, s stt.Session) {
	defer func() {
		if err := s.CloseInput(); err != nil {
			a.logger.Warnf("close recognition input: %v", err)
		}
	}()

	buf := make([]byte, a.chunkSize)
	total := 0
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := s.Write(buf[:n]); werr != nil {
				a.logger.Warnf("push audio after %d bytes: %v", total, werr)
				return
			}
			total += n
		}
		if errors.Is(err, io.EOF) {
			a.logger.Debugf("pushed %d bytes of audio", total)
			return
		}
		if err != nil {
			a.logger.Errorf("read normalized audio after %d bytes: %v", total, err)
			return
		}
	}
}
