package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

// SpeechRecorder stores finished sentences of the teacher's speech.
type SpeechRecorder interface {
	RecordSpeech(ctx context.Context, text string) (bool, error)
}

// TokenValidator resolves a session token to a user ID.
type TokenValidator func(ctx context.Context, token string) (string, error)

type Options struct {
	Language string
	// Drain bounds how long results may still arrive after the client stops.
	Drain time.Duration
	// AllowedOrigins limits browser origins; empty or "*" allows all.
	AllowedOrigins []string
	CookieName     string
}

// CaptionHandler streams microphone audio into a recognizer and pushes the
// recognized text back as live captions.
type CaptionHandler struct {
	logger            *Logger.Logger
	recognizer        stt.Recognizer
	recorder          SpeechRecorder
	validate          TokenValidator
	opts              Options
	connectionManager *ConnectionManager
	upgrader          websocket.Upgrader
}

func NewCaptionHandler(
	logger *Logger.Logger,
	recognizer stt.Recognizer,
	recorder SpeechRecorder,
	validate TokenValidator,
	gauge Gauge,
	opts Options,
) *CaptionHandler {
	if opts.Drain <= 0 {
		opts.Drain = 30 * time.Second
	}
	return &CaptionHandler{
		logger:            logger,
		recognizer:        recognizer,
		recorder:          recorder,
		validate:          validate,
		opts:              opts,
		connectionManager: NewConnectionManager(logger, gauge),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(opts.AllowedOrigins),
			ReadBufferSize:  32 << 10,
			WriteBufferSize: 4 << 10,
		},
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// RegisterRoutes registers WebSocket routes
func (h *CaptionHandler) RegisterRoutes(router gin.IRouter) {
	ws := router.Group("/ws")
	{
		ws.GET("/captions", h.HandleCaptions)
		ws.GET("/stats", h.HandleStats)
	}
}

// HandleCaptions upgrades the connection and runs one recognition session.
// Binary frames are 16 kHz mono 16-bit PCM; a "stop" text frame ends input.
func (h *CaptionHandler) HandleCaptions(c *gin.Context) {
	userID := ""
	token := c.Query("token")
	if token == "" && h.opts.CookieName != "" {
		token, _ = c.Cookie(h.opts.CookieName)
	}
	if token != "" && h.validate != nil {
		id, err := h.validate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		userID = id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("caption websocket upgrade failed: %v", err)
		return
	}

	session := NewSession(userID, conn)
	h.connectionManager.Register(session)
	defer h.connectionManager.Unregister(session)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.recognizer.Start(ctx, stt.SessionConfig{Language: h.opts.Language})
	if err != nil {
		h.logger.Errorf("caption session %s: start recognition: %v", session.SessionID, err)
		_ = session.Send(MessageTypeError, "", err.Error())
		session.Finish("recognition unavailable")
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			h.logger.Warnf("caption session %s: close recognition: %v", session.SessionID, err)
		}
	}()

	_ = session.Send(MessageTypeReady, "", "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.forward(ctx, session, stream)
	}()

	h.readLoop(session, stream)

	if err := stream.CloseInput(); err != nil {
		h.logger.Debugf("caption session %s: close input: %v", session.SessionID, err)
	}
	select {
	case <-done:
	case <-time.After(h.opts.Drain):
		h.logger.Warnf("caption session %s: no terminal event within %s", session.SessionID, h.opts.Drain)
	}
}

// readLoop pumps client frames into the recognizer until the client stops
// sending or disconnects.
func (h *CaptionHandler) readLoop(session *Session, stream stt.Session) {
	inputOpen := true
	for {
		messageType, data, err := session.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnf("caption session %s read error: %v", session.SessionID, err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if !inputOpen {
				continue
			}
			if err := stream.Write(data); err != nil {
				h.logger.Warnf("caption session %s: push audio: %v", session.SessionID, err)
				inputOpen = false
			}
		case websocket.TextMessage:
			if strings.TrimSpace(string(data)) == StopCommand && inputOpen {
				inputOpen = false
				if err := stream.CloseInput(); err != nil {
					h.logger.Debugf("caption session %s: close input: %v", session.SessionID, err)
				}
			}
		}
	}
}

// forward relays recognizer events to the client until a terminal event,
// then closes the socket from the server side.
func (h *CaptionHandler) forward(ctx context.Context, session *Session, stream stt.Session) {
	defer session.Finish("captions finished")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-stream.Events():
			if !ok {
				_ = session.Send(MessageTypeStopped, "", "")
				return
			}
			switch ev.Kind {
			case stt.Recognized:
				if strings.TrimSpace(ev.Text) == "" {
					continue
				}
				if err := session.Send(MessageTypeRecognized, ev.Text, ""); err != nil {
					h.logger.Debugf("caption session %s: send: %v", session.SessionID, err)
				}
				h.record(ctx, ev.Text)
			case stt.Canceled:
				if ev.Reason == stt.ReasonEndOfStream {
					_ = session.Send(MessageTypeStopped, "", "")
				} else {
					_ = session.Send(MessageTypeError, "", ev.ErrorDetails)
				}
				return
			case stt.SessionStopped:
				_ = session.Send(MessageTypeStopped, "", "")
				return
			}
		}
	}
}

func (h *CaptionHandler) record(ctx context.Context, text string) {
	if h.recorder == nil {
		return
	}
	if _, err := h.recorder.RecordSpeech(ctx, text); err != nil {
		h.logger.Warnf("caption not stored in speech log: %v", err)
	}
}

// HandleStats provides connection statistics
func (h *CaptionHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.connectionManager.Stats(),
	})
}

// Close shuts down every open caption session.
func (h *CaptionHandler) Close() error {
	return h.connectionManager.Close()
}
