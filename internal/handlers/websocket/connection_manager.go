package websocket

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// Gauge tracks the number of open sessions.
type Gauge interface {
	Inc()
	Dec()
}

// ConnectionManager keeps the open caption sessions.
type ConnectionManager struct {
	logger   *Logger.Logger
	gauge    Gauge
	sessions map[uuid.UUID]*Session
	mutex    sync.RWMutex
}

func NewConnectionManager(logger *Logger.Logger, gauge Gauge) *ConnectionManager {
	return &ConnectionManager{
		logger:   logger,
		gauge:    gauge,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (cm *ConnectionManager) Register(session *Session) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.sessions[session.SessionID] = session
	if cm.gauge != nil {
		cm.gauge.Inc()
	}
	cm.logger.Infof("caption session %s opened (user %q)", session.SessionID, session.UserID)
}

// Unregister drops the session and closes its connection.
func (cm *ConnectionManager) Unregister(session *Session) {
	cm.mutex.Lock()
	_, exists := cm.sessions[session.SessionID]
	delete(cm.sessions, session.SessionID)
	cm.mutex.Unlock()

	if !exists {
		return
	}
	if cm.gauge != nil {
		cm.gauge.Dec()
	}
	if err := session.Close(); err != nil {
		cm.logger.Debugf("closing caption session %s: %v", session.SessionID, err)
	}
	cm.logger.Infof("caption session %s closed after %d segments", session.SessionID, session.Segments())
}

func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.sessions)
}

func (cm *ConnectionManager) Stats() Stats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := Stats{ActiveSessions: len(cm.sessions)}
	for _, s := range cm.sessions {
		if stats.OldestSince.IsZero() || s.ConnectedAt.Before(stats.OldestSince) {
			stats.OldestSince = s.ConnectedAt
		}
	}
	return stats
}

// Close closes every open session.
func (cm *ConnectionManager) Close() error {
	cm.mutex.RLock()
	open := make([]*Session, 0, len(cm.sessions))
	for _, s := range cm.sessions {
		open = append(open, s)
	}
	cm.mutex.RUnlock()

	for _, s := range open {
		cm.Unregister(s)
	}
	return nil
}
