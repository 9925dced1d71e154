package memory

import (
	"context"
	"sort"
	"sync"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// BotStore is an in-memory implementation of storage.BotStore.
type BotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bot // keyed by id
}

// NewBotStore creates a new in-memory bot store.
func NewBotStore() *BotStore {
	return &BotStore{
		data: make(map[string]*domain.Bot),
	}
}

// Insert adds a new bot. Returns ErrDuplicateKey if id exists.
func (s *BotStore) Insert(_ context.Context, b *domain.Bot) error {
	if b == nil || b.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	s.data[b.ID] = b.Clone()
	return nil
}

// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(_ context.Context, id string) (*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return b.Clone(), nil
}

// GetAll retrieves all bots, ordered by created_at ASC.
func (s *BotStore) GetAll(_ context.Context) ([]*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Bot, 0, len(s.data))
	for _, b := range s.data {
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.BotStore = (*BotStore)(nil)
