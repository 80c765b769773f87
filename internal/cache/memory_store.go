package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore implements the RedisStore operations inside one process.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]entry
	subscribers map[chan SessionEvent]struct{}
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     map[string]entry{},
		subscribers: map[chan SessionEvent]struct{}{},
		now:         time.Now,
	}
}

// get returns the live value of key. Callers hold mu.
func (s *MemoryStore) get(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.get(submitGuardPrefix + key); held {
		return "", nil
	}
	token := uuid.NewString()
	s.entries[submitGuardPrefix+key] = entry{value: token, expiresAt: s.now().Add(ttl)}
	return token, nil
}

func (s *MemoryStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, held := s.get(submitGuardPrefix + key); held && v == token {
		delete(s.entries, submitGuardPrefix+key)
	}
	return nil
}

func (s *MemoryStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[blacklistPrefix+jti] = entry{value: "1", expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.get(blacklistPrefix + jti)
	return ok, nil
}

// PublishSessionEvent drops the event for subscribers whose buffer is full.
func (s *MemoryStore) PublishSessionEvent(_ context.Context, ev SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (s *MemoryStore) SubscribeSessionEvents(ctx context.Context) (<-chan SessionEvent, error) {
	ch := make(chan SessionEvent, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}
