package repository

import (
	"cmp"
	"slices"
	"sync"

	"github.com/okian/skatepark/internal/domain/session"
)

// SessionStore is the in-memory registry of live and recently ended
// sessions. When full, the session that ended first makes room; if none has
// ended, Put fails with ErrStoreFull.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	max      int
}

// NewSessionStore returns a store holding at most limit sessions; zero or
// less means no limit.
func NewSessionStore(limit int) *SessionStore {
	return &SessionStore{sessions: make(map[string]*session.Session), max: limit}
}

// Put registers a session.
func (s *SessionStore) Put(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	if s.max > 0 && len(s.sessions) >= s.max && !s.evictEndedLocked() {
		return ErrStoreFull
	}
	s.sessions[sess.ID] = sess
	return nil
}

// Get returns a session by id.
func (s *SessionStore) Get(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete drops a session. Deleting an unknown id returns ErrSessionNotFound.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns every session, oldest first.
func (s *SessionStore) List() []*session.Session {
	s.mu.RLock()
	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *session.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) evictEndedLocked() bool {
	var victim *session.Session
	for _, sess := range s.sessions {
		ended := sess.EndedAt()
		if ended.IsZero() {
			continue
		}
		if victim == nil || ended.Before(victim.EndedAt()) {
			victim = sess
		}
	}
	if victim == nil {
		return false
	}
	delete(s.sessions, victim.ID)
	return true
}
