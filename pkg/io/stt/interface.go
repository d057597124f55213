package stt

import (
	"context"
	"fmt"
)

type EventKind int

const (
	// Recognized carries one finalized text segment.
	Recognized EventKind = iota + 1
	// Canceled ends the session; Reason tells a normal end of audio from a failure.
	Canceled
	// SessionStopped ends the session normally.
	SessionStopped
)

func (k EventKind) String() string {
	switch k {
	case Recognized:
		return "recognized"
	case Canceled:
		return "canceled"
	case SessionStopped:
		return "session_stopped"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

type CancelReason string

const (
	ReasonEndOfStream     CancelReason = "EndOfStream"
	ReasonError           CancelReason = "Error"
	ReasonCancelledByUser CancelReason = "CancelledByUser"
)

type Event struct {
	Kind EventKind
	Text string

	Reason       CancelReason
	ErrorCode    string
	ErrorDetails string
}

type SessionConfig struct {
	Language string
}

// Session is one continuous recognition run fed from a push stream.
//
// Write must not retain p after it returns. CloseInput signals end of audio;
// the engine keeps working on what it already has. Close releases every
// engine resource and is safe to call more than once, including before or
// after CloseInput.
type Session interface {
	Write(p []byte) error
	CloseInput() error
	Events() <-chan Event
	Close() error
}

type Recognizer interface {
	Start(ctx context.Context, cfg SessionConfig) (Session, error)
}
