package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cumulus-classroom/cumulus/internal/domains/user"
)

const usersCollection = "users"

type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) user.UserRepository {
	return &MongoUserRepo{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email, username and device indexes.
func (m *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "deviceId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (m *MongoUserRepo) Create(ctx context.Context, u *user.User) error {
	if _, err := m.coll.InsertOne(ctx, newUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (m *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := m.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *MongoUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m *MongoUserRepo) GetByDeviceID(ctx context.Context, deviceID string) (*user.User, error) {
	return m.findOne(ctx, bson.M{"deviceId": deviceID})
}

func (m *MongoUserRepo) Exists(ctx context.Context, email, username string) (bool, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

func (m *MongoUserRepo) SetDevice(ctx context.Context, id, deviceID string) error {
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":         bson.M{"deviceId": deviceID},
		"$currentDate": bson.M{"updatedAt": true},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrDeviceLinkedElsewhere
		}
		return fmt.Errorf("failed to link device: %w", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
