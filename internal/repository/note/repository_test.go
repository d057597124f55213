package note

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
)

func newGormRepo(t *testing.T) note.NoteRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notes.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&NoteEntity{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormNoteRepo(db)
}

func at(day string, hour int) time.Time {
	d, _ := time.Parse(note.DateLayout, day)
	return d.Add(time.Duration(hour) * time.Hour)
}

func seed(t *testing.T, repo note.NoteRepository, userID, text string, ts time.Time) *note.Note {
	t.Helper()
	n := note.NewNote(userID, "esp32-eka", text, ts)
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestGormListByDateNewestFirst(t *testing.T) {
	repo := newGormRepo(t)
	seed(t, repo, "u1", "Fractions", at("2024-05-14", 8))
	seed(t, repo, "u1", "Decimals", at("2024-05-14", 10))
	seed(t, repo, "u1", "Percentages", at("2024-05-14", 9))
	seed(t, repo, "u1", "Yesterday", at("2024-05-13", 11))
	seed(t, repo, "u2", "Someone else", at("2024-05-14", 12))

	notes, err := repo.ListByDate(context.Background(), "u1", "2024-05-14")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "Decimals", notes[0].Text)
	assert.Equal(t, "Percentages", notes[1].Text)
	assert.Equal(t, "Fractions", notes[2].Text)
	for _, n := range notes {
		assert.Equal(t, "u1", n.UserID)
		assert.Equal(t, "esp32-eka", n.DeviceID)
		assert.Equal(t, time.UTC, n.Timestamp.Location())
	}
}

func TestGormListByDateEmpty(t *testing.T) {
	repo := newGormRepo(t)

	notes, err := repo.ListByDate(context.Background(), "u1", "2024-05-14")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestGormDatesDistinctDescending(t *testing.T) {
	repo := newGormRepo(t)
	seed(t, repo, "u1", "a", at("2024-05-13", 8))
	seed(t, repo, "u1", "b", at("2024-05-14", 8))
	seed(t, repo, "u1", "c", at("2024-05-14", 9))
	seed(t, repo, "u1", "d", at("2024-04-30", 8))
	seed(t, repo, "u2", "e", at("2024-06-01", 8))

	dates, err := repo.Dates(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-14", "2024-05-13", "2024-04-30"}, dates)
}

func TestGormDeleteByDateOnlyTouchesThatDay(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	seed(t, repo, "u1", "a", at("2024-05-14", 8))
	seed(t, repo, "u1", "b", at("2024-05-14", 9))
	seed(t, repo, "u1", "c", at("2024-05-13", 8))
	seed(t, repo, "u2", "d", at("2024-05-14", 8))

	deleted, err := repo.DeleteByDate(ctx, "u1", "2024-05-14")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := repo.ListByDate(ctx, "u1", "2024-05-13")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	other, err := repo.ListByDate(ctx, "u2", "2024-05-14")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
