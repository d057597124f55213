package note

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
)

func newMongoRepo(t *testing.T) note.NoteRepository {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("cumulus_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo := NewMongoNoteRepo(db)
	require.NoError(t, repo.(*MongoNoteRepo).EnsureIndexes(ctx))
	return repo
}

func TestMongoListByDateNewestFirst(t *testing.T) {
	repo := newMongoRepo(t)
	seed(t, repo, "u1", "Fractions", at("2024-05-14", 8))
	seed(t, repo, "u1", "Decimals", at("2024-05-14", 10))
	seed(t, repo, "u1", "Yesterday", at("2024-05-13", 11))
	seed(t, repo, "u2", "Someone else", at("2024-05-14", 12))

	notes, err := repo.ListByDate(context.Background(), "u1", "2024-05-14")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Decimals", notes[0].Text)
	assert.Equal(t, "Fractions", notes[1].Text)
}

func TestMongoDatesDistinctDescending(t *testing.T) {
	repo := newMongoRepo(t)
	seed(t, repo, "u1", "a", at("2024-05-13", 8))
	seed(t, repo, "u1", "b", at("2024-05-14", 8))
	seed(t, repo, "u1", "c", at("2024-05-14", 9))
	seed(t, repo, "u2", "d", at("2024-06-01", 8))

	dates, err := repo.Dates(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-14", "2024-05-13"}, dates)

	deleted, err := repo.DeleteByDate(context.Background(), "u1", "2024-05-14")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
