package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	noterepo "github.com/cumulus-classroom/cumulus/internal/repository/note"
	userrepo "github.com/cumulus-classroom/cumulus/internal/repository/user"
)

func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&userrepo.UserEntity{}, &noterepo.NoteEntity{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// MigrateMongo creates the collection indexes the repositories rely on.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	users := userrepo.NewMongoUserRepo(db).(*userrepo.MongoUserRepo)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	notes := noterepo.NewMongoNoteRepo(db).(*noterepo.MongoNoteRepo)
	return notes.EnsureIndexes(ctx)
}
