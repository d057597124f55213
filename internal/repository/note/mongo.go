package note

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
)

const notesCollection = "notes"

type MongoNoteRepo struct {
	coll *mongo.Collection
}

func NewMongoNoteRepo(db *mongo.Database) note.NoteRepository {
	return &MongoNoteRepo{coll: db.Collection(notesCollection)}
}

func (m *MongoNoteRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dateKey", Value: -1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create note indexes: %w", err)
	}
	return nil
}

func (m *MongoNoteRepo) Create(ctx context.Context, n *note.Note) error {
	doc := noteDocument{
		ID:        n.ID,
		UserID:    n.UserID,
		DeviceID:  n.DeviceID,
		Text:      n.Text,
		DateKey:   n.DateKey,
		Timestamp: n.Timestamp,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (m *MongoNoteRepo) ListByDate(ctx context.Context, userID, dateKey string) ([]note.Note, error) {
	cur, err := m.coll.Find(ctx,
		bson.M{"userId": userID, "dateKey": dateKey},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer cur.Close(ctx)

	var docs []noteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	notes := make([]note.Note, len(docs))
	for i, d := range docs {
		notes[i] = d.toDomain()
	}
	return notes, nil
}

func (m *MongoNoteRepo) DeleteByDate(ctx context.Context, userID, dateKey string) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.M{"userId": userID, "dateKey": dateKey})
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *MongoNoteRepo) Dates(ctx context.Context, userID string) ([]string, error) {
	raw, err := m.coll.Distinct(ctx, "dateKey", bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list note dates: %w", err)
	}
	dates := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			dates = append(dates, s)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
