package rolecache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	roles   []string
	expires time.Time
}

type InmemStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[string]entry
}

// NewInmemStore keeps entries for ttl; a zero ttl never expires them.
func NewInmemStore(clock clockwork.Clock, ttl time.Duration) *InmemStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InmemStore{clock: clock, ttl: ttl, entries: map[string]entry{}}
}

func (s *InmemStore) Get(_ context.Context, userID string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.clock.Now().Before(e.expires) {
		delete(s.entries, userID)
		return nil, false, nil
	}
	return append([]string(nil), e.roles...), true, nil
}

func (s *InmemStore) Set(_ context.Context, userID string, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{roles: append([]string(nil), roles...)}
	if s.ttl > 0 {
		e.expires = s.clock.Now().Add(s.ttl)
	}
	s.entries[userID] = e
	return nil
}

func (s *InmemStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}
