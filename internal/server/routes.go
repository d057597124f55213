package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cumulus-classroom/cumulus/docs"
	"github.com/cumulus-classroom/cumulus/internal/config"
	"github.com/cumulus-classroom/cumulus/internal/domains/classroom"
	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/internal/domains/user"
	"github.com/cumulus-classroom/cumulus/internal/handlers"
	"github.com/cumulus-classroom/cumulus/internal/handlers/websocket"
	"github.com/cumulus-classroom/cumulus/internal/metrics"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

type Dependencies struct {
	UserService user.UserService
	NoteService note.NoteService
	Classroom   *classroom.Service
	Talk        handlers.TalkRunner
	Assistant   handlers.Replier
	OCR         handlers.TextReader
	// Captions is optional; without it /ws/captions is not served.
	Captions *websocket.CaptionHandler
	Metrics  *metrics.Metrics
	Logger   *Logger.Logger
}

func NewServerDependencies(
	userService user.UserService,
	noteService note.NoteService,
	classroomService *classroom.Service,
	talk handlers.TalkRunner,
	assistant handlers.Replier,
	ocr handlers.TextReader,
	captions *websocket.CaptionHandler,
	m *metrics.Metrics,
	logger *Logger.Logger,
) Dependencies {
	return Dependencies{
		UserService: userService,
		NoteService: noteService,
		Classroom:   classroomService,
		Talk:        talk,
		Assistant:   assistant,
		OCR:         ocr,
		Captions:    captions,
		Metrics:     m,
		Logger:      logger,
	}
}

// NewRouter builds the engine with the shared middleware chain and every route.
func NewRouter(cfg *config.Settings, dep Dependencies) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(handlers.MethodNotAllowed)

	var observer handlers.HTTPObserver
	if dep.Metrics != nil {
		observer = dep.Metrics
	}
	r.Use(
		handlers.ErrorHandlerMiddleware(dep.Logger),
		handlers.RequestLoggerMiddleware(dep.Logger, observer),
		handlers.CORSMiddleware(cfg.Server.CORSOrigins),
	)

	InitializeRoutes(cfg, r, dep)
	return r
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, handlers.HealthResponse{Status: "ok"}) })
	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cookie := handlers.CookieOptions{Name: cfg.Auth.CookieName, Secure: cfg.IsProduction()}
	auth := handlers.AuthMiddleware(dep.UserService, cookie.Name, dep.Logger)
	optionalAuth := handlers.OptionalAuthMiddleware(dep.UserService, cookie.Name)

	talkHandler := handlers.NewTalkHandler(dep.Talk, cfg.Talk.MaxUploadBytes, dep.Logger)
	assistantHandler := handlers.NewAssistantHandler(dep.Assistant, dep.Logger)
	classroomHandler := handlers.NewClassroomHandler(dep.Classroom, dep.OCR, dep.Logger)
	userHandler := handlers.NewUserHandler(dep.UserService, cookie, dep.Logger)
	noteHandler := handlers.NewNoteHandler(dep.NoteService, dep.UserService, dep.Logger)

	api := r.Group("/api")
	{
		api.POST("/cumulus-talk", talkHandler.Talk)
		api.POST("/gpt", assistantHandler.Chat)

		api.POST("/save-ocr", classroomHandler.SaveOCR)
		api.GET("/get-ocr", classroomHandler.GetOCR)
		api.POST("/save-stt", classroomHandler.SaveSTT)
		api.GET("/get-stt", classroomHandler.GetSTT)
		api.POST("/ocr", classroomHandler.OCR)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/login", userHandler.Login)
			authGroup.POST("/logout", userHandler.Logout)
			authGroup.GET("/me", auth, userHandler.Me)
		}

		api.POST("/device/link", auth, userHandler.LinkDevice)

		notes := api.Group("/notes")
		{
			notes.POST("", optionalAuth, noteHandler.CreateNote)
			notes.GET("", auth, noteHandler.GetNotes)
			notes.DELETE("", auth, noteHandler.ClearNotes)
			notes.GET("/dates", auth, noteHandler.GetNoteDates)
			notes.POST("/summary", auth, noteHandler.SummarizeNotes)
		}
	}

	if dep.Captions != nil {
		dep.Captions.RegisterRoutes(r)
	}
}
