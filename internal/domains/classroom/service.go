package classroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

type Service struct {
	store  Store
	logger *Logger.Logger
}

func NewService(store Store, logger *Logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) SaveOCR(ctx context.Context, text string) error {
	if err := s.store.SaveOCR(ctx, text); err != nil {
		return fmt.Errorf("save ocr: %w", err)
	}
	return nil
}

func (s *Service) LatestOCR(ctx context.Context) (string, error) {
	return s.store.LatestOCR(ctx)
}

// RecordSpeech appends text to the teacher log only once it forms a complete
// sentence (ends with a period). It reports whether anything was appended.
func (s *Service) RecordSpeech(ctx context.Context, text string) (bool, error) {
	line := strings.TrimSpace(text)
	if line == "" || !strings.HasSuffix(line, ".") {
		return false, nil
	}
	if err := s.store.AppendSpeech(ctx, line+"\n"); err != nil {
		return false, fmt.Errorf("append speech: %w", err)
	}
	return true, nil
}

func (s *Service) SpeechLog(ctx context.Context) (string, error) {
	return s.store.SpeechLog(ctx)
}

// Snapshot reads both halves of the context. A failing half is logged and
// left empty so a question can still be answered without it.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.OCRText, err = s.store.LatestOCR(ctx); err != nil {
		s.logger.Warnf("classroom snapshot: ocr unavailable: %v", err)
		snap.OCRText = ""
	}
	if snap.Transcript, err = s.store.SpeechLog(ctx); err != nil {
		s.logger.Warnf("classroom snapshot: speech log unavailable: %v", err)
		snap.Transcript = ""
	}
	return snap, nil
}
