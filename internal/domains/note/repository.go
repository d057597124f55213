package note

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the format of a note's day bucket.
const DateLayout = "2006-01-02"

// UnknownDevice is recorded when a note arrives without a device ID.
const UnknownDevice = "Unknown Device"

// Note is one line of text a classroom device sent on behalf of its owner.
// @Description A note captured by a classroom device
type Note struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string    `json:"userId" example:"550e8400-e29b-41d4-a716-446655440001"`
	DeviceID  string    `json:"deviceId" example:"esp32-classroom-01"`
	Text      string    `json:"text" example:"Photosynthesis happens in the chloroplast."`
	DateKey   string    `json:"dateKey" example:"2024-05-14"`
	Timestamp time.Time `json:"timestamp" example:"2024-05-14T08:15:00Z"`
}

// CreateNoteRequest is the body of POST /api/notes.
// @Description Request body for note ingestion
type CreateNoteRequest struct {
	Text     string `json:"text" example:"Photosynthesis happens in the chloroplast."`
	DeviceID string `json:"deviceId,omitempty" example:"esp32-classroom-01"`
}

// SummaryRequest is the body of POST /api/notes/summary.
// @Description Request body for a day's note summary
type SummaryRequest struct {
	Date     string `json:"date,omitempty" example:"2024-05-14"`
	Language string `json:"language" example:"english" enums:"english,indonesian"`
}

// NewNote stamps text with a fresh ID and the current UTC day.
func NewNote(userID, deviceID, text string, now time.Time) *Note {
	now = now.UTC()
	if deviceID == "" {
		deviceID = UnknownDevice
	}
	return &Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		DeviceID:  deviceID,
		Text:      text,
		DateKey:   now.Format(DateLayout),
		Timestamp: now,
	}
}

type NoteRepository interface {
	Create(ctx context.Context, n *Note) error

	// ListByDate returns a user's notes for one day, newest first.
	ListByDate(ctx context.Context, userID, dateKey string) ([]Note, error)

	DeleteByDate(ctx context.Context, userID, dateKey string) (int64, error)

	// Dates returns every day the user has notes for, newest first.
	Dates(ctx context.Context, userID string) ([]string, error)
}
