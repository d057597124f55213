package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

var (
	ErrInvalidNoteData     = errors.New("text is required and must be a string")
	ErrInvalidDate         = errors.New("date must be formatted YYYY-MM-DD")
	ErrNoNotes             = errors.New("no notes for this date")
	ErrUnsupportedLanguage = errors.New("language must be english or indonesian")
)

// Summarizer asks the assistant for an answer under a custom instruction.
type Summarizer interface {
	ReplyWithSystem(ctx context.Context, system, prompt string) (string, error)
}

type NoteService interface {
	Create(ctx context.Context, userID string, req CreateNoteRequest) (*Note, error)
	List(ctx context.Context, userID, date string) ([]Note, error)
	Clear(ctx context.Context, userID, date string) (int64, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Summarize(ctx context.Context, userID string, req SummaryRequest) (string, error)
}

type noteService struct {
	repository NoteRepository
	summarizer Summarizer
	logger     *Logger.Logger
	now        func() time.Time
}

func NewNoteService(repository NoteRepository, summarizer Summarizer, logger *Logger.Logger) NoteService {
	return &noteService{
		repository: repository,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Create stores a note for userID. The caller resolves which account a
// device belongs to.
func (s *noteService) Create(ctx context.Context, userID string, req CreateNoteRequest) (*Note, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrInvalidNoteData
	}

	n := NewNote(userID, strings.TrimSpace(req.DeviceID), text, s.now())
	if err := s.repository.Create(ctx, n); err != nil {
		s.logger.Errorf("error creating note: %v", err)
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	s.logger.Infof("note %s saved for user %s from %s", n.ID, userID, n.DeviceID)
	return n, nil
}

func (s *noteService) List(ctx context.Context, userID, date string) ([]Note, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return nil, err
	}
	notes, err := s.repository.ListByDate(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (s *noteService) Clear(ctx context.Context, userID, date string) (int64, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return 0, err
	}
	n, err := s.repository.DeleteByDate(ctx, userID, key)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notes: %w", err)
	}
	s.logger.Infof("cleared %d notes of %s for user %s", n, key, userID)
	return n, nil
}

func (s *noteService) Dates(ctx context.Context, userID string) ([]string, error) {
	dates, err := s.repository.Dates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list note dates: %w", err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// Summarize condenses one day of notes in the requested language.
func (s *noteService) Summarize(ctx context.Context, userID string, req SummaryRequest) (string, error) {
	language := req.Language
	if language == "" {
		language = "english"
	}
	instruction, ok := prompts.SummaryInstruction(language)
	if !ok {
		return "", ErrUnsupportedLanguage
	}

	notes, err := s.List(ctx, userID, req.Date)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "", ErrNoNotes
	}

	return s.summarizer.ReplyWithSystem(ctx, instruction, Digest(notes))
}

// Digest renders notes as "[time] [device] text" paragraphs.
func Digest(notes []Note) string {
	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		line := "[" + n.Timestamp.UTC().Format("2006-01-02 15:04:05") + "] "
		if n.DeviceID != "" {
			line += "[" + n.DeviceID + "] "
		}
		parts = append(parts, line+n.Text)
	}
	return strings.Join(parts, "\n\n")
}

func (s *noteService) dateKey(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().UTC().Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}
