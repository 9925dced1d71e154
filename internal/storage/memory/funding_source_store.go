package memory

import (
	"context"
	"sync"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// FundingSourceStore is an in-memory implementation of storage.FundingSourceStore.
type FundingSourceStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.FundingSource // keyed by id
	order []string                         // insertion order
}

// NewFundingSourceStore creates a new in-memory funding source store.
func NewFundingSourceStore() *FundingSourceStore {
	return &FundingSourceStore{
		data: make(map[string]*domain.FundingSource),
	}
}

// Insert adds a new funding source. Returns ErrDuplicateKey if id exists.
func (s *FundingSourceStore) Insert(_ context.Context, f *domain.FundingSource) error {
	if f == nil || f.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[f.ID] = f.Clone()
	s.order = append(s.order, f.ID)
	return nil
}

// Update replaces a funding source. Returns ErrNotFound if not exists.
func (s *FundingSourceStore) Update(_ context.Context, f *domain.FundingSource) error {
	if f == nil || f.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[f.ID] = f.Clone()
	return nil
}

// GetByID retrieves a funding source by its ID. Returns ErrNotFound if not exists.
func (s *FundingSourceStore) GetByID(_ context.Context, id string) (*domain.FundingSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return f.Clone(), nil
}

// GetAll retrieves all funding sources in insertion order.
func (s *FundingSourceStore) GetAll(_ context.Context) ([]*domain.FundingSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.FundingSource, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.data[id].Clone())
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.FundingSourceStore = (*FundingSourceStore)(nil)
