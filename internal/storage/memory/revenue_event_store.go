package memory

import (
	"context"
	"sort"
	"sync"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// RevenueEventStore is an in-memory implementation of storage.RevenueEventStore.
// Writes go through Ledger.AppendRevenueEvent.
type RevenueEventStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.RevenueEvent   // keyed by id
	byBot map[string][]*domain.RevenueEvent // keyed by bot_id, append order
}

// NewRevenueEventStore creates a new in-memory revenue event store.
func NewRevenueEventStore() *RevenueEventStore {
	return &RevenueEventStore{
		data:  make(map[string]*domain.RevenueEvent),
		byBot: make(map[string][]*domain.RevenueEvent),
	}
}

// insertLocked adds e. Caller must hold s.mu for writing.
func (s *RevenueEventStore) insertLocked(e *domain.RevenueEvent) error {
	if _, exists := s.data[e.ID]; exists {
		return storage.ErrDuplicateKey
	}
	eventCopy := *e
	s.data[e.ID] = &eventCopy
	s.byBot[e.BotID] = append(s.byBot[e.BotID], &eventCopy)
	return nil
}

// byBotLocked returns sorted copies of a bot's events. Caller must hold s.mu.
func (s *RevenueEventStore) byBotLocked(botID string) []*domain.RevenueEvent {
	events := s.byBot[botID]
	result := make([]*domain.RevenueEvent, 0, len(events))
	for _, e := range events {
		eventCopy := *e
		result = append(result, &eventCopy)
	}
	sortEvents(result)
	return result
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *RevenueEventStore) GetByID(_ context.Context, id string) (*domain.RevenueEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	eventCopy := *e
	return &eventCopy, nil
}

// GetByBotID retrieves all events for a bot, ordered by timestamp ASC.
func (s *RevenueEventStore) GetByBotID(_ context.Context, botID string) ([]*domain.RevenueEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byBotLocked(botID), nil
}

// GetAll retrieves all events, ordered by timestamp ASC.
func (s *RevenueEventStore) GetAll(_ context.Context) ([]*domain.RevenueEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RevenueEvent, 0, len(s.data))
	for _, e := range s.data {
		eventCopy := *e
		result = append(result, &eventCopy)
	}
	sortEvents(result)
	return result, nil
}

// sortEvents orders by timestamp ASC, then id for a stable result.
func sortEvents(events []*domain.RevenueEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// Verify interface compliance at compile time.
var _ storage.RevenueEventStore = (*RevenueEventStore)(nil)
