package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Session is one caption socket. Writes are serialized because the event
// forwarder and the read loop both answer the client.
type Session struct {
	SessionID   uuid.UUID
	UserID      string
	Conn        *websocket.Conn
	ConnectedAt time.Time

	mutex    sync.Mutex
	closed   bool
	segments int
}

func NewSession(userID string, conn *websocket.Conn) *Session {
	return &Session{
		SessionID:   uuid.New(),
		UserID:      userID,
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
}

// Send writes one caption message to the client.
func (s *Session) Send(msgType MessageType, text, message string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return fmt.Errorf("session %s closed", s.SessionID)
	}
	if msgType == MessageTypeRecognized {
		s.segments++
	}
	_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.Conn.WriteJSON(CaptionMessage{
		Type:      msgType,
		Text:      text,
		Message:   message,
		SessionID: s.SessionID.String(),
		Timestamp: time.Now(),
	})
}

// Finish sends a normal close frame so the client's read loop ends.
func (s *Session) Finish(reason string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}
	_ = s.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait))
}

func (s *Session) Segments() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.segments
}

// Close closes the underlying connection once.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Conn.Close()
}
