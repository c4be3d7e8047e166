package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const inMemoryCap = 500

// InMemoryStore keeps a bounded ring of recent exchanges.
type InMemoryStore struct {
	mu    sync.Mutex
	items []Exchange
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveExchange(_ context.Context, ex Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ex)
	if len(s.items) > inMemoryCap {
		s.items = s.items[len(s.items)-inMemoryCap:]
	}
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.items) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Exchange, len(s.items)-start)
	copy(out, s.items[start:])
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
