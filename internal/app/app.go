package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/cumulus-classroom/cumulus/internal/config"
	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
	"github.com/cumulus-classroom/cumulus/internal/database"
	"github.com/cumulus-classroom/cumulus/internal/domains/classroom"
	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/internal/domains/talk"
	"github.com/cumulus-classroom/cumulus/internal/domains/user"
	"github.com/cumulus-classroom/cumulus/internal/handlers/websocket"
	"github.com/cumulus-classroom/cumulus/internal/metrics"
	classroomRepo "github.com/cumulus-classroom/cumulus/internal/repository/classroom"
	noteRepo "github.com/cumulus-classroom/cumulus/internal/repository/note"
	userRepo "github.com/cumulus-classroom/cumulus/internal/repository/user"
	"github.com/cumulus-classroom/cumulus/internal/server"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

// App represents the application with all its dependencies
type App struct {
	Config  *config.Settings
	Logger  *Logger.Logger
	Metrics *metrics.Metrics

	DB    *gorm.DB
	Mongo *mongo.Database
	RC    *redis.Client

	Engines   *Engines
	Assistant *assistant.Client
	Pipeline  *talk.Pipeline
	// repos
	UserRepo user.UserRepository
	NoteRepo note.NoteRepository
	// services
	UserService      user.UserService
	NoteService      note.NoteService
	ClassroomService *classroom.Service
	Captions         *websocket.CaptionHandler

	ServerDeps server.Dependencies

	closers []func() error
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewMetrics(),
	}
	if err := a.setupDependencies(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// NewTalkApp wires only what a one-off pipeline run needs: engines, the
// completer and the classroom context. No database is opened.
func NewTalkApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewMetrics(),
	}
	if err := a.setupTalk(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// NewStorageApp opens only the configured database, for schema migrations.
func NewStorageApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.setupStorage(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies(ctx context.Context) error {
	// 1. storage
	if err := a.setupStorage(ctx); err != nil {
		return err
	}
	// 2. engines, classroom context and the talk pipeline
	if err := a.setupTalk(ctx); err != nil {
		return err
	}

	// 3. services
	a.UserService = user.NewUserService(a.UserRepo, a.Logger.Named("user"), a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL)
	a.NoteService = note.NewNoteService(a.NoteRepo, a.Assistant, a.Logger.Named("note"))

	a.Captions = websocket.NewCaptionHandler(
		a.Logger.Named("captions"),
		a.Engines.Recognizer,
		a.ClassroomService,
		func(ctx context.Context, token string) (string, error) {
			claims, err := a.UserService.ValidateToken(ctx, token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		},
		a.Metrics.ActiveCaptionSessions,
		websocket.Options{
			Language:       a.Config.Speech.Language,
			AllowedOrigins: a.Config.Server.CORSOrigins,
			CookieName:     a.Config.Auth.CookieName,
		},
	)
	a.closers = append(a.closers, a.Captions.Close)

	// 4. server deps
	a.ServerDeps = server.NewServerDependencies(
		a.UserService,
		a.NoteService,
		a.ClassroomService,
		a.Pipeline,
		a.Assistant,
		a.Engines.OCR,
		a.Captions,
		a.Metrics,
		a.Logger,
	)
	return nil
}

func (a *App) setupStorage(ctx context.Context) error {
	switch strings.ToLower(a.Config.DB.Driver) {
	case "", "mysql":
		db, err := database.InitDB(a.Config.DB, a.Config.Debug)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		a.UserRepo = userRepo.NewGormUserRepo(db)
		a.NoteRepo = noteRepo.NewGormNoteRepo(db)

	case "mongo":
		client, db, err := database.ConnectMongo(ctx, a.Config.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		a.Mongo = db
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		a.UserRepo = userRepo.NewMongoUserRepo(db)
		a.NoteRepo = noteRepo.NewMongoNoteRepo(db)

	default:
		return fmt.Errorf("unknown database driver %q", a.Config.DB.Driver)
	}
	a.Logger.Infof("storage: %s", a.Config.DB.Driver)
	return nil
}

func (a *App) setupTalk(ctx context.Context) error {
	engines, err := NewEngines(a.Config, a.Logger.Named("engines"))
	if err != nil {
		return err
	}
	a.Engines = engines

	llm := NewLLMFactory(a.Config.Completion, a.Logger.Named("llm"))
	completer, closer, err := llm.CreateCompleter(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		a.closers = append(a.closers, closer.Close)
	}
	a.Assistant = llm.CreateClient(completer, a.Config.Talk)

	store, err := a.classroomStore()
	if err != nil {
		return err
	}
	a.ClassroomService = classroom.NewService(store, a.Logger.Named("classroom"))

	preset, err := prompts.ClassroomPreset(a.Config.Talk.Persona)
	if err != nil {
		return err
	}
	if a.Config.Talk.PersonaText != "" {
		preset = preset.WithPersona(a.Config.Talk.PersonaText)
	}

	a.Pipeline = talk.NewPipeline(talk.Config{
		Language:           a.Config.Speech.Language,
		Voice:              a.Config.Voice.Name,
		Preset:             preset,
		TempDir:            a.Config.Talk.TempDir,
		Probe:              a.Config.Talk.Probe,
		ConversionTimeout:  a.Config.Talk.ConversionTimeout,
		RecognitionTimeout: a.Config.Talk.RecognitionTimeout,
		SynthesisTimeout:   a.Config.Talk.SynthesisTimeout,
	}, talk.Dependencies{
		Transcoder:  engines.Transcoder,
		Recognizer:  engines.Recognizer,
		Synthesizer: engines.Synthesizer,
		Assistant:   a.Assistant,
		Context:     a.ClassroomService,
		Observer:    a.Metrics,
		Logger:      a.Logger.Named("talk"),
	})
	return nil
}

func (a *App) classroomStore() (classroom.Store, error) {
	switch strings.ToLower(a.Config.Classroom.Backend) {
	case "", "file":
		return classroomRepo.NewFileStore(a.Config.Classroom.Dir)
	case "redis":
		rc, err := database.NewRedis(a.Config.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.RC = rc
		a.closers = append(a.closers, rc.Close)
		return classroomRepo.NewRedisStore(rc, a.Config.Classroom.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown classroom backend %q", a.Config.Classroom.Backend)
	}
}

// Migrate creates or updates the schema of the configured database.
func (a *App) Migrate(ctx context.Context) error {
	switch {
	case a.DB != nil:
		return database.MigrateDB(a.DB)
	case a.Mongo != nil:
		return database.MigrateMongo(ctx, a.Mongo)
	default:
		return fmt.Errorf("no database configured")
	}
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
