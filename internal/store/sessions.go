package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/katakuxiko/safety-chat/internal/chat"
)

type session struct {
	view     *chat.View
	lastSeen time.Time
}

// Sessions keeps one chat view per browser session, in memory only.
type Sessions struct {
	newView func() *chat.View
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessions(newView func() *chat.View) *Sessions {
	return &Sessions{
		newView:  newView,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session and returns its id.
func (s *Sessions) Create() (string, *chat.View) {
	id := uuid.NewString()
	v := s.newView()

	s.mu.Lock()
	s.sessions[id] = &session{view: v, lastSeen: s.now()}
	s.mu.Unlock()
	return id, v
}

// Get returns the view of a live session and marks it as seen.
func (s *Sessions) Get(id string) (*chat.View, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.view, true
}

// Delete tears a session down. Requests already in flight still complete
// against the detached view.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
