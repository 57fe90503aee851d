package session

import (
	"sync"
	"time"

	"prepbot/internal/domain"
)

// entry pairs a session with its own mutex so work on one subscriber never
// blocks another.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Store holds every live conversation session, keyed by subscriber address.
// The outer lock guards the map only; each entry serializes its own subscriber.
// Sessions live in memory for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns a copy of the session for the subscriber, if one exists.
func (s *Store) Get(subscriber string) (domain.Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[subscriber]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.session, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Delete removes the subscriber's session, if any.
func (s *Store) Delete(subscriber string) {
	s.mu.Lock()
	delete(s.entries, subscriber)
	s.mu.Unlock()
}

// With runs fn while holding the subscriber's entry lock, creating the session
// on first use. fn receives the live session and may mutate it in place; the
// store stamps UpdatedAt afterwards. Calls for the same subscriber are
// serialized; calls for different subscribers proceed in parallel.
func (s *Store) With(subscriber string, fn func(sess *domain.Session, created bool)) {
	e, created := s.entryFor(subscriber)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session, created)
	e.session.UpdatedAt = s.now()
}

func (s *Store) entryFor(subscriber string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[subscriber]
	s.mu.RUnlock()
	if ok {
		return e, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[subscriber]; ok {
		return e, false
	}
	now := s.now()
	e = &entry{session: &domain.Session{
		Subscriber: subscriber,
		Step:       domain.StepGreeting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
	s.entries[subscriber] = e
	return e, true
}
