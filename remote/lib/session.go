package lib

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxLogEntries = 50

// ToolRequest is one entry in a session's recent history.
type ToolRequest struct {
	Timestamp time.Time `json:"timestamp"`
	ToolName  string    `json:"tool_name"`
	Arguments any       `json:"arguments,omitempty"`
}

// SessionData holds what the server knows about one MCP client session.
type SessionData struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	LastAccessed time.Time     `json:"last_accessed"`
	RequestCount int64         `json:"request_count"`
	RequestLog   []ToolRequest `json:"request_log,omitempty"`
}

// SessionManager tracks client sessions. The session id is also the caller
// identity used for rate limiting.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
	now      func() time.Time

	// onSweep runs after each cleanup pass.
	onSweep func()
}

// NewSessionManager creates a session manager. onSweep may be nil.
func NewSessionManager(onSweep func()) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*SessionData),
		now:      time.Now,
		onSweep:  onSweep,
	}
}

// Track records a tool call against its session and returns the caller id.
// Calls without a session keep no history and get an empty caller id.
func (sm *SessionManager) Track(sessionID, toolName string, arguments any) string {
	if sessionID == "" {
		log.Debug().Str("tool", toolName).Msg("Tool called (stateless session)")
		return ""
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	session, exists := sm.sessions[sessionID]
	if !exists {
		session = &SessionData{ID: sessionID, CreatedAt: now}
		sm.sessions[sessionID] = session
		log.Info().Str("session", sessionID).Msg("Session created")
	}
	session.LastAccessed = now
	session.RequestCount++

	session.RequestLog = append(session.RequestLog, ToolRequest{
		Timestamp: now,
		ToolName:  toolName,
		Arguments: arguments,
	})
	if len(session.RequestLog) > maxLogEntries {
		session.RequestLog = session.RequestLog[len(session.RequestLog)-maxLogEntries:]
	}

	log.Debug().
		Str("tool", toolName).
		Str("session", sessionID).
		Int64("requests", session.RequestCount).
		Msg("Tool called")
	return sessionID
}

// RemoveSession removes a session from the manager
func (sm *SessionManager) RemoveSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		log.Info().
			Str("session", sessionID).
			Int64("requests", session.RequestCount).
			Dur("duration", sm.now().Sub(session.CreatedAt).Truncate(time.Second)).
			Msg("Session exited")
		delete(sm.sessions, sessionID)
	}
}

// ListSessions returns copies of all active sessions, oldest first.
func (sm *SessionManager) ListSessions() []SessionData {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]SessionData, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		copied := *session
		copied.RequestLog = append([]ToolRequest(nil), session.RequestLog...)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// ClosableSession is the part of an MCP server session Watch needs.
type ClosableSession interface {
	ID() string
	Wait() error
}

// Watch removes the session from the manager once its connection closes.
func (sm *SessionManager) Watch(session ClosableSession) {
	id := session.ID()
	if id == "" {
		return
	}
	go func() {
		if err := session.Wait(); err != nil {
			log.Debug().Err(err).Str("session", id).Msg("Session connection closed with error")
		}
		sm.RemoveSession(id)
	}()
}

func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Expire removes sessions idle for longer than idle and returns how many went.
func (sm *SessionManager) Expire(idle time.Duration) int {
	sm.mu.Lock()
	now := sm.now()
	expired := 0
	for id, session := range sm.sessions {
		if now.Sub(session.LastAccessed) <= idle {
			continue
		}
		log.Info().
			Str("session", id).
			Int64("requests", session.RequestCount).
			Dur("idle", now.Sub(session.LastAccessed).Truncate(time.Second)).
			Msg("Session expired")
		delete(sm.sessions, id)
		expired++
	}
	sm.mu.Unlock()

	if sm.onSweep != nil {
		sm.onSweep()
	}
	if expired > 0 {
		log.Info().Int("count", expired).Msg("Cleaned up expired sessions")
	}
	return expired
}

// RunCleanup expires idle sessions every interval until ctx is done.
func (sm *SessionManager) RunCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.Expire(idle)
		}
	}
}

// SessionsResponse is the body served by SessionsHandler.
type SessionsResponse struct {
	Count    int           `json:"count"`
	Sessions []SessionData `json:"sessions"`
}

func (sm *SessionManager) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	sessions := sm.ListSessions()
	if err := json.NewEncoder(w).Encode(SessionsResponse{Count: len(sessions), Sessions: sessions}); err != nil {
		log.Error().Err(err).Msg("Error encoding sessions response")
	}
}
