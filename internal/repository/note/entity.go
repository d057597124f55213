package note

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
)

// NoteEntity is the notes table row. (user_id, date_key) backs the per-day
// listing and the distinct-dates query.
type NoteEntity struct {
	ID        string    `gorm:"primaryKey;type:char(36);not null"`
	UserID    string    `gorm:"type:char(36);not null;index:idx_notes_user_day,priority:1"`
	DeviceID  string    `gorm:"type:varchar(191);not null"`
	Text      string    `gorm:"type:text;not null"`
	DateKey   string    `gorm:"type:char(10);not null;index:idx_notes_user_day,priority:2"`
	Timestamp time.Time `gorm:"precision:3;not null"`
}

func (NoteEntity) TableName() string {
	return "notes"
}

func (n *NoteEntity) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (n *NoteEntity) ToDomain() note.Note {
	return note.Note{
		ID:        n.ID,
		UserID:    n.UserID,
		DeviceID:  n.DeviceID,
		Text:      n.Text,
		DateKey:   n.DateKey,
		Timestamp: n.Timestamp.UTC(),
	}
}

func NewNoteEntityFromDomain(n *note.Note) *NoteEntity {
	return &NoteEntity{
		ID:        n.ID,
		UserID:    n.UserID,
		DeviceID:  n.DeviceID,
		Text:      n.Text,
		DateKey:   n.DateKey,
		Timestamp: n.Timestamp,
	}
}

type noteDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	DeviceID  string    `bson:"deviceId"`
	Text      string    `bson:"text"`
	DateKey   string    `bson:"dateKey"`
	Timestamp time.Time `bson:"timestamp"`
}

func (d noteDocument) toDomain() note.Note {
	return note.Note{
		ID:        d.ID,
		UserID:    d.UserID,
		DeviceID:  d.DeviceID,
		Text:      d.Text,
		DateKey:   d.DateKey,
		Timestamp: d.Timestamp.UTC(),
	}
}
