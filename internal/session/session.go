// Package session tracks per-conversation message history.
package session

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session ID has no history.
var ErrSessionNotFound = errors.New("session not found")

// Message is a single conversation turn.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp records when the message was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps conversation history keyed by session ID.
type Store interface {
	// Get returns the history for a session, oldest first.
	// Returns ErrSessionNotFound for unknown IDs.
	Get(sessionID string) ([]Message, error)

	// Append adds a message to a session, creating it if needed.
	Append(sessionID string, msg Message) error

	// Clear discards a session's history.
	Clear(sessionID string) error
}

// MemoryStore is an in-memory Store with a sliding window per session.
// History beyond the window is discarded oldest-first. Safe for concurrent
// use.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string][]Message
	maxHistory int
}

// DefaultMaxHistory bounds per-session history when no limit is given.
const DefaultMaxHistory = 20

// NewMemoryStore creates a MemoryStore retaining at most maxHistory
// messages per session. A maxHistory <= 0 uses DefaultMaxHistory.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &MemoryStore{
		sessions:   make(map[string][]Message),
		maxHistory: maxHistory,
	}
}

// Get returns a copy of the session history, oldest first.
func (s *MemoryStore) Get(sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out, nil
}

// Append adds a message to a session, creating it if needed.
func (s *MemoryStore) Append(sessionID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], msg)
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.sessions[sessionID] = history
	return nil
}

// Clear discards a session's history.
func (s *MemoryStore) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
