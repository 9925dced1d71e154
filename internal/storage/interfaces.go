package storage

import (
	"context"

	"funding-ledger/internal/domain"
)

// BotStore provides access to bots storage.
type BotStore interface {
	// Insert adds a new bot. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, b *domain.Bot) error

	// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Bot, error)

	// GetAll retrieves all bots, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Bot, error)
}

// RevenueEventStore provides read access to revenue_events storage.
// Events are appended only through Ledger.AppendRevenueEvent.
type RevenueEventStore interface {
	// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.RevenueEvent, error)

	// GetByBotID retrieves all events for a bot, ordered by timestamp ASC.
	GetByBotID(ctx context.Context, botID string) ([]*domain.RevenueEvent, error)

	// GetAll retrieves all events, ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.RevenueEvent, error)
}

// FundingSourceStore provides access to funding_sources storage.
type FundingSourceStore interface {
	// Insert adds a new funding source. Returns ErrDuplicateKey if id exists.
	// Wallet addresses are not unique.
	Insert(ctx context.Context, f *domain.FundingSource) error

	// Update replaces a funding source. Returns ErrNotFound if not exists.
	Update(ctx context.Context, f *domain.FundingSource) error

	// GetByID retrieves a funding source by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.FundingSource, error)

	// GetAll retrieves all funding sources in insertion order.
	GetAll(ctx context.Context) ([]*domain.FundingSource, error)
}

// LpPositionStore provides access to lp_positions storage.
type LpPositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, p *domain.LpPosition) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.LpPosition, error)

	// GetByBotID retrieves all positions owned by a bot.
	GetByBotID(ctx context.Context, botID string) ([]*domain.LpPosition, error)

	// GetAll retrieves all positions in insertion order.
	GetAll(ctx context.Context) ([]*domain.LpPosition, error)
}

// RecomputeFunc updates bot totals from the bot's complete event list.
// It runs inside the append transaction; the bot it receives is persisted afterwards.
type RecomputeFunc func(bot *domain.Bot, events []*domain.RevenueEvent)

// Ledger groups the ledger stores and owns the append transaction.
type Ledger interface {
	Bots() BotStore
	RevenueEvents() RevenueEventStore
	FundingSources() FundingSourceStore
	LpPositions() LpPositionStore

	// AppendRevenueEvent inserts e and recomputes the owning bot in one transaction.
	// Returns ErrNotFound if the bot does not exist and ErrDuplicateKey if e.ID exists.
	// Nothing is written when an error is returned.
	AppendRevenueEvent(ctx context.Context, e *domain.RevenueEvent, recompute RecomputeFunc) (*domain.Bot, error)
}
