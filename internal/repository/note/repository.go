package note

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
)

type GormNoteRepo struct {
	db *gorm.DB
}

func NewGormNoteRepo(db *gorm.DB) note.NoteRepository {
	return &GormNoteRepo{db: db}
}

func (g *GormNoteRepo) Create(ctx context.Context, n *note.Note) error {
	entity := NewNoteEntityFromDomain(n)
	if err := g.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	n.ID = entity.ID
	return nil
}

func (g *GormNoteRepo) ListByDate(ctx context.Context, userID, dateKey string) ([]note.Note, error) {
	var entities []NoteEntity
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		Order("timestamp DESC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]note.Note, len(entities))
	for i := range entities {
		notes[i] = entities[i].ToDomain()
	}
	return notes, nil
}

func (g *GormNoteRepo) DeleteByDate(ctx context.Context, userID, dateKey string) (int64, error) {
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		Delete(&NoteEntity{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (g *GormNoteRepo) Dates(ctx context.Context, userID string) ([]string, error) {
	var dates []string
	err := g.db.WithContext(ctx).Model(&NoteEntity{}).
		Where("user_id = ?", userID).
		Distinct("date_key").
		Order("date_key DESC").
		Pluck("date_key", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list note dates: %w", err)
	}
	return dates, nil
}
