// Package session keeps per-session conversation history in memory so the
// model can resolve follow-up questions. History is bounded: only the most
// recent exchanges are retained, and nothing survives a process restart.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn.
type Message struct {
	Role    string
	Content string
}

// Store is the history surface the orchestrator depends on.
type Store interface {
	// History returns the session's formatted history, or "" when the
	// session is unknown or empty.
	History(sessionID string) string

	// AddExchange appends a question/answer pair, creating the session on
	// first use and evicting the oldest pair beyond the retention limit.
	AddExchange(sessionID, question, answer string)

	// Clear removes a session's history. Unknown sessions are a no-op.
	Clear(sessionID string)
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// MemoryStore is the in-memory Store implementation.
//
// The mutex protects the map structure. Two concurrent requests for the
// same session can still interleave their read-history / add-exchange
// steps; with per-user sessions and low write rates that is accepted, the
// worst case being one lost or reordered exchange in the history window.
type MemoryStore struct {
	mu         sync.RWMutex
	maxHistory int // retained exchange pairs per session
	sessions   map[string][]Message
}

// NewMemoryStore creates a store retaining maxHistory exchange pairs
// (2*maxHistory messages) per session. With maxHistory 0 every session
// stays empty.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		sessions:   make(map[string][]Message),
	}
}

// History implements Store.
func (s *MemoryStore) History(sessionID string) string {
	s.mu.RLock()
	messages := s.sessions[sessionID]
	s.mu.RUnlock()

	if len(messages) == 0 {
		return ""
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// AddExchange implements Store.
func (s *MemoryStore) AddExchange(sessionID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := append(s.sessions[sessionID],
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer},
	)

	// Evict whole pairs, oldest first.
	if limit := 2 * s.maxHistory; len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	if len(messages) == 0 {
		delete(s.sessions, sessionID)
		return
	}
	s.sessions[sessionID] = messages
}

// Clear implements Store.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func roleLabel(role string) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return role
	}
}
