// Package session holds per-call state from session creation until the lead
// result has been fetched (or the session expires).
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// ErrNotFound is returned when an operation references an unknown session id.
var ErrNotFound = errors.New("session not found")

// Session is one caller session: its agent configuration and, after the call
// completed, the lead record. Values returned by the Store are snapshots.
type Session struct {
	ID         string
	Config     business.Config
	Configured bool
	Lead       *lead.Record
	CreatedAt  time.Time

	touchedAt time.Time
}

// Store is a concurrency-safe session map. Sessions expire ttl after their
// last touch; a ttl of zero disables expiry entirely.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a fresh session with an empty configuration and returns a
// snapshot of it.
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		touchedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return snapshot(sess)
}

// Configure replaces the session's agent configuration. Configuration is only
// meaningful before the call starts; the orchestrator copies it at connect.
func (s *Store) Configure(id string, cfg business.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Config = cfg
	sess.Configured = true
	sess.touchedAt = s.now()
	return nil
}

// Get returns a snapshot of the session state.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return snapshot(sess), nil
}

// RecordLead attaches the completed call's lead record for later retrieval.
func (s *Store) RecordLead(id string, rec lead.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	recCopy := rec
	sess.Lead = &recCopy
	sess.touchedAt = s.now()
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartReaper evicts expired sessions every interval until ctx is done.
// It is a no-op when the store has no TTL.
func (s *Store) StartReaper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.reap(s.now()); n > 0 {
					log.Printf("session store: reaped %d expired sessions", n)
				}
			}
		}
	}()
}

func (s *Store) reap(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, sess := range s.sessions {
		if now.Sub(sess.touchedAt) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func snapshot(sess *Session) Session {
	out := *sess
	if sess.Lead != nil {
		leadCopy := *sess.Lead
		out.Lead = &leadCopy
	}
	return out
}
