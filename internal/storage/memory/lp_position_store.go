package memory

import (
	"context"
	"sync"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// LpPositionStore is an in-memory implementation of storage.LpPositionStore.
type LpPositionStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.LpPosition // keyed by id
	order []string                      // insertion order
}

// NewLpPositionStore creates a new in-memory LP position store.
func NewLpPositionStore() *LpPositionStore {
	return &LpPositionStore{
		data: make(map[string]*domain.LpPosition),
	}
}

// Insert adds a new position. Returns ErrDuplicateKey if id exists.
func (s *LpPositionStore) Insert(_ context.Context, p *domain.LpPosition) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}

	positionCopy := *p
	s.data[p.ID] = &positionCopy
	s.order = append(s.order, p.ID)
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *LpPositionStore) GetByID(_ context.Context, id string) (*domain.LpPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	positionCopy := *p
	return &positionCopy, nil
}

// GetByBotID retrieves all positions owned by a bot.
func (s *LpPositionStore) GetByBotID(_ context.Context, botID string) ([]*domain.LpPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LpPosition
	for _, id := range s.order {
		if p := s.data[id]; p.BotID == botID {
			positionCopy := *p
			result = append(result, &positionCopy)
		}
	}
	return result, nil
}

// GetAll retrieves all positions in insertion order.
func (s *LpPositionStore) GetAll(_ context.Context) ([]*domain.LpPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LpPosition, 0, len(s.order))
	for _, id := range s.order {
		positionCopy := *s.data[id]
		result = append(result, &positionCopy)
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LpPositionStore = (*LpPositionStore)(nil)
