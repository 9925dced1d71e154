package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// RevenueEventStore implements storage.RevenueEventStore using PostgreSQL.
type RevenueEventStore struct {
	pool *Pool
}

// NewRevenueEventStore creates a new RevenueEventStore.
func NewRevenueEventStore(pool *Pool) *RevenueEventStore {
	return &RevenueEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RevenueEventStore = (*RevenueEventStore)(nil)

const revenueEventColumns = `
	id, bot_id, transaction_hash, amount::text, currency, event_type,
	gas_used::text, gas_price::text, event_time
`

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *RevenueEventStore) GetByID(ctx context.Context, id string) (*domain.RevenueEvent, error) {
	query := `SELECT ` + revenueEventColumns + ` FROM revenue_events WHERE id = $1`

	e, err := scanRevenueEvent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get revenue event by id: %w", err)
	}
	return e, nil
}

// GetByBotID retrieves all events for a bot, ordered by timestamp ASC.
func (s *RevenueEventStore) GetByBotID(ctx context.Context, botID string) ([]*domain.RevenueEvent, error) {
	return queryRevenueEvents(ctx, s.pool, botID)
}

// GetAll retrieves all events, ordered by timestamp ASC.
func (s *RevenueEventStore) GetAll(ctx context.Context) ([]*domain.RevenueEvent, error) {
	query := `SELECT ` + revenueEventColumns + ` FROM revenue_events ORDER BY event_time ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all revenue events: %w", err)
	}
	defer rows.Close()

	return scanRevenueEvents(rows)
}

// querier is the read side shared by *Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRevenueEvents(ctx context.Context, q querier, botID string) ([]*domain.RevenueEvent, error) {
	query := `
		SELECT ` + revenueEventColumns + `
		FROM revenue_events
		WHERE bot_id = $1
		ORDER BY event_time ASC, id ASC
	`

	rows, err := q.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("get revenue events by bot: %w", err)
	}
	defer rows.Close()

	return scanRevenueEvents(rows)
}

// scanRevenueEvent scans a single row into a RevenueEvent.
func scanRevenueEvent(row pgx.Row) (*domain.RevenueEvent, error) {
	var e domain.RevenueEvent
	var amount, eventType, gasUsed, gasPrice string

	err := row.Scan(
		&e.ID,
		&e.BotID,
		&e.TransactionHash,
		&amount,
		&e.Currency,
		&eventType,
		&gasUsed,
		&gasPrice,
		&e.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	e.EventType = domain.EventType(eventType)
	if e.Amount, err = parseNumeric("amount", amount); err != nil {
		return nil, err
	}
	if e.GasUsed, err = parseNumeric("gas_used", gasUsed); err != nil {
		return nil, err
	}
	if e.GasPrice, err = parseNumeric("gas_price", gasPrice); err != nil {
		return nil, err
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

// scanRevenueEvents scans multiple rows into a slice of RevenueEvent.
func scanRevenueEvents(rows pgx.Rows) ([]*domain.RevenueEvent, error) {
	var events []*domain.RevenueEvent

	for rows.Next() {
		e, err := scanRevenueEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revenue event row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue event rows: %w", err)
	}

	return events, nil
}
