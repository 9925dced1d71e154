package memory

import (
	"context"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// Ledger is an in-memory implementation of storage.Ledger.
type Ledger struct {
	bots      *BotStore
	events    *RevenueEventStore
	sources   *FundingSourceStore
	positions *LpPositionStore
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		bots:      NewBotStore(),
		events:    NewRevenueEventStore(),
		sources:   NewFundingSourceStore(),
		positions: NewLpPositionStore(),
	}
}

func (l *Ledger) Bots() storage.BotStore                     { return l.bots }
func (l *Ledger) RevenueEvents() storage.RevenueEventStore   { return l.events }
func (l *Ledger) FundingSources() storage.FundingSourceStore { return l.sources }
func (l *Ledger) LpPositions() storage.LpPositionStore       { return l.positions }

// AppendRevenueEvent inserts e and recomputes the owning bot under both store locks.
// Lock order is bots then events.
func (l *Ledger) AppendRevenueEvent(_ context.Context, e *domain.RevenueEvent, recompute storage.RecomputeFunc) (*domain.Bot, error) {
	if e == nil || e.ID == "" || e.BotID == "" {
		return nil, storage.ErrInvalidInput
	}

	l.bots.mu.Lock()
	defer l.bots.mu.Unlock()

	stored, exists := l.bots.data[e.BotID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	l.events.mu.Lock()
	defer l.events.mu.Unlock()

	if err := l.events.insertLocked(e); err != nil {
		return nil, err
	}

	bot := stored.Clone()
	if recompute != nil {
		recompute(bot, l.events.byBotLocked(e.BotID))
	}
	l.bots.data[bot.ID] = bot.Clone()

	return bot, nil
}

// Verify interface compliance at compile time.
var _ storage.Ledger = (*Ledger)(nil)
