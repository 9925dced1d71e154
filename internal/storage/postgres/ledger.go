package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// Ledger implements storage.Ledger on a single pool.
type Ledger struct {
	pool      *Pool
	bots      *BotStore
	events    *RevenueEventStore
	sources   *FundingSourceStore
	positions *LpPositionStore
}

// NewLedger creates a Ledger backed by pool.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{
		pool:      pool,
		bots:      NewBotStore(pool),
		events:    NewRevenueEventStore(pool),
		sources:   NewFundingSourceStore(pool),
		positions: NewLpPositionStore(pool),
	}
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

func (l *Ledger) Bots() storage.BotStore                     { return l.bots }
func (l *Ledger) RevenueEvents() storage.RevenueEventStore   { return l.events }
func (l *Ledger) FundingSources() storage.FundingSourceStore { return l.sources }
func (l *Ledger) LpPositions() storage.LpPositionStore       { return l.positions }

// AppendRevenueEvent inserts e and rewrites the bot totals in one transaction.
// The bot row is locked first so concurrent appends for the same bot serialize.
func (l *Ledger) AppendRevenueEvent(ctx context.Context, e *domain.RevenueEvent, recompute storage.RecomputeFunc) (*domain.Bot, error) {
	if e == nil || e.ID == "" || e.BotID == "" {
		return nil, storage.ErrInvalidInput
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bot, err := scanBot(tx.QueryRow(ctx,
		`SELECT `+botColumns+` FROM bots WHERE id = $1 FOR UPDATE`, e.BotID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("lock bot: %w", err)
	}

	if err := insertRevenueEvent(ctx, tx, e); err != nil {
		return nil, err
	}

	events, err := queryRevenueEvents(ctx, tx, e.BotID)
	if err != nil {
		return nil, err
	}

	if recompute != nil {
		recompute(bot, events)
	}

	_, err = tx.Exec(ctx, `
		UPDATE bots SET
			total_revenue = $2::numeric,
			daily_revenue = $3::numeric,
			last_active = $4
		WHERE id = $1
	`, bot.ID, bot.TotalRevenue.String(), bot.DailyRevenue.String(), bot.LastActive)
	if err != nil {
		return nil, fmt.Errorf("update bot totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}
	return bot, nil
}

func insertRevenueEvent(ctx context.Context, tx pgx.Tx, e *domain.RevenueEvent) error {
	query := `
		INSERT INTO revenue_events (
			id, bot_id, transaction_hash, amount, currency, event_type,
			gas_used, gas_price, event_time
		) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7::numeric, $8::numeric, $9)
	`

	_, err := tx.Exec(ctx, query,
		e.ID,
		e.BotID,
		e.TransactionHash,
		e.Amount.String(),
		e.Currency,
		string(e.EventType),
		e.GasUsed.String(),
		e.GasPrice.String(),
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert revenue event: %w", err)
	}
	return nil
}
