package websocket

import "time"

// MessageType defines the type of a server-to-client caption message
type MessageType string

const (
	MessageTypeReady      MessageType = "ready"
	MessageTypeRecognized MessageType = "recognized"
	MessageTypeStopped    MessageType = "stopped"
	MessageTypeError      MessageType = "error"
)

// StopCommand is the text frame a client sends once it has no more audio.
const StopCommand = "stop"

// CaptionMessage is every JSON frame the server sends.
type CaptionMessage struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text,omitempty"`
	Message   string      `json:"message,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Stats summarizes the open caption sessions.
type Stats struct {
	ActiveSessions int       `json:"activeSessions"`
	OldestSince    time.Time `json:"oldestSince,omitempty"`
}
