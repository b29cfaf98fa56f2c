// Package session implements the per-session in-memory state: bounded
// turn history, a compressed summary, the FSM checkpoint, and the
// session-scoped schema correction cache. Sessions are serialised with a
// per-session lock and evicted after an hour of inactivity.
package session

import (
	"sync"
	"time"

	"github.com/procweave/orchestrator/internal/fsm"
	"github.com/procweave/orchestrator/internal/schema"
)

const (
	maxTurns    = 20
	idleTimeout = 1 * time.Hour
)

// Turn is one recorded exchange within a session.
type Turn struct {
	TaskText  string
	Answer    string
	Timestamp time.Time
}

// Session holds everything that must survive across turns within one
// session_id but never leaks into another session.
type Session struct {
	mu sync.Mutex

	ID          string
	Turns       []Turn
	Summary     string
	Checkpoint  fsm.Checkpoint
	SchemaCache schema.Cache
	LastActive  time.Time
}

// Lock serialises operations on this session; callers must Unlock via the
// returned func. This is what prevents two concurrent requests to the same
// session from interleaving FSM-checkpoint writes.
func (s *Session) Lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// RecordTurn appends a turn with FIFO eviction at maxTurns and refreshes
// LastActive. Caller must hold the session lock.
func (s *Session) RecordTurn(taskText, answer string) {
	s.Turns = append(s.Turns, Turn{TaskText: taskText, Answer: answer, Timestamp: time.Now()})
	if len(s.Turns) > maxTurns {
		s.Turns = s.Turns[len(s.Turns)-maxTurns:]
	}
	s.LastActive = time.Now()
}

// Store is the process-wide table of live sessions, keyed by session_id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// New constructs an empty Store.
func New() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// Get returns the session for id, creating it if absent.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		s = &Session{ID: id, SchemaCache: schema.Cache{}, LastActive: time.Now()}
		st.sessions[id] = s
	}
	return s
}

// EvictIdle removes sessions inactive for longer than idleTimeout. Intended
// to be called periodically by a background goroutine in cmd/server.
func (st *Store) EvictIdle(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		stale := now.Sub(s.LastActive) > idleTimeout
		s.mu.Unlock()
		if stale {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions, for health reporting.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
