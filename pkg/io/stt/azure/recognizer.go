// Package azure adapts the Azure Speech SDK continuous recognizer to stt.Recognizer.
// It links against the native Speech SDK through cgo.
package azure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

const stopTimeout = 5 * time.Second

var ErrMissingCredentials = errors.New("azure speech key and region are required")

type Recognizer struct {
	key    string
	region string
	logger *Logger.Logger
}

func NewRecognizer(key, region string, logger *Logger.Logger) (*Recognizer, error) {
	if key == "" || region == "" {
		return nil, ErrMissingCredentials
	}
	return &Recognizer{key: key, region: region, logger: logger}, nil
}

func (r *Recognizer) Start(ctx context.Context, cfg stt.SessionConfig) (stt.Session, error) {
	s := &session{
		logger: r.logger,
		events: make(chan stt.Event, 32),
		done:   make(chan struct{}),
	}

	var err error
	if s.stream, err = audio.CreatePushAudioInputStream(); err != nil {
		return nil, fmt.Errorf("create push stream: %w", err)
	}
	if s.audioCfg, err = audio.NewAudioConfigFromStreamInput(s.stream); err != nil {
		s.release()
		return nil, fmt.Errorf("create audio config: %w", err)
	}
	if s.speechCfg, err = speech.NewSpeechConfigFromSubscription(r.key, r.region); err != nil {
		s.release()
		return nil, fmt.Errorf("create speech config: %w", err)
	}
	if cfg.Language != "" {
		if err = s.speechCfg.SetSpeechRecognitionLanguage(cfg.Language); err != nil {
			s.release()
			return nil, fmt.Errorf("set recognition language: %w", err)
		}
	}
	if s.recognizer, err = speech.NewSpeechRecognizerFromConfig(s.speechCfg, s.audioCfg); err != nil {
		s.release()
		return nil, fmt.Errorf("create recognizer: %w", err)
	}

	s.recognizer.Recognized(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		if e.Result.Reason == common.RecognizedSpeech {
			s.emit(stt.Event{Kind: stt.Recognized, Text: e.Result.Text})
		}
	})
	s.recognizer.Canceled(func(e speech.SpeechRecognitionCanceledEventArgs) {
		defer e.Close()
		s.emit(stt.Event{
			Kind:         stt.Canceled,
			Reason:       cancelReason(e.Reason),
			ErrorCode:    fmt.Sprintf("%d", int(e.ErrorCode)),
			ErrorDetails: e.ErrorDetails,
		})
	})
	s.recognizer.SessionStopped(func(e speech.SessionEventArgs) {
		defer e.Close()
		s.emit(stt.Event{Kind: stt.SessionStopped})
	})

	select {
	case err = <-s.recognizer.StartContinuousRecognitionAsync():
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		s.release()
		return nil, fmt.Errorf("start continuous recognition: %w", err)
	}
	s.started = true
	return s, nil
}

func cancelReason(r common.CancellationReason) stt.CancelReason {
	switch r {
	case common.EndOfStream:
		return stt.ReasonEndOfStream
	case common.Error:
		return stt.ReasonError
	default:
		return stt.ReasonCancelledByUser
	}
}

type session struct {
	logger *Logger.Logger

	stream     *audio.PushAudioInputStream
	audioCfg   *audio.AudioConfig
	speechCfg  *speech.SpeechConfig
	recognizer *speech.SpeechRecognizer
	started    bool

	events    chan stt.Event
	done      chan struct{}
	inputOnce sync.Once
	closeOnce sync.Once
}

func (s *session) emit(ev stt.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

var errClosed = errors.New("recognition session closed")

func (s *session) Write(p []byte) error {
	select {
	case <-s.done:
		return errClosed
	default:
	}
	return s.stream.Write(p)
}

func (s *session) CloseInput() error {
	s.inputOnce.Do(func() {
		select {
		case <-s.done:
		default:
			s.stream.CloseStream()
		}
	})
	return nil
}

func (s *session) Events() <-chan stt.Event {
	return s.events
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.started {
			select {
			case err := <-s.recognizer.StopContinuousRecognitionAsync():
				if err != nil {
					s.logger.Warnf("azure recognizer stop: %v", err)
				}
			case <-time.After(stopTimeout):
				s.logger.Warnf("azure recognizer did not stop within %s", stopTimeout)
			}
		}
		s.release()
	})
	return nil
}

func (s *session) release() {
	if s.recognizer != nil {
		s.recognizer.Close()
	}
	if s.speechCfg != nil {
		s.speechCfg.Close()
	}
	if s.audioCfg != nil {
		s.audioCfg.Close()
	}
	if s.stream != nil {
		s.stream.Close()
	}
}
