package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// BotStore implements storage.BotStore using PostgreSQL.
type BotStore struct {
	pool *Pool
}

// NewBotStore creates a new BotStore.
func NewBotStore(pool *Pool) *BotStore {
	return &BotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BotStore = (*BotStore)(nil)

const botColumns = `
	id, name, type, status, wallet_address,
	total_revenue::text, daily_revenue::text, config, created_at, last_active
`

// Insert adds a new bot. Returns ErrDuplicateKey if id exists.
func (s *BotStore) Insert(ctx context.Context, b *domain.Bot) error {
	query := `
		INSERT INTO bots (
			id, name, type, status, wallet_address,
			total_revenue, daily_revenue, config, created_at, last_active
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		b.ID,
		b.Name,
		string(b.Type),
		string(b.Status),
		b.WalletAddress,
		b.TotalRevenue.String(),
		b.DailyRevenue.String(),
		b.Config,
		b.CreatedAt,
		b.LastActive,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bot: %w", err)
	}
	return nil
}

// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(ctx context.Context, id string) (*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots WHERE id = $1`

	b, err := scanBot(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bot by id: %w", err)
	}
	return b, nil
}

// GetAll retrieves all bots, ordered by created_at ASC.
func (s *BotStore) GetAll(ctx context.Context) ([]*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all bots: %w", err)
	}
	defer rows.Close()

	var bots []*domain.Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bot row: %w", err)
		}
		bots = append(bots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bot rows: %w", err)
	}
	return bots, nil
}

// scanBot scans a single row into a Bot.
func scanBot(row pgx.Row) (*domain.Bot, error) {
	var b domain.Bot
	var typeStr, statusStr, total, daily string

	err := row.Scan(
		&b.ID,
		&b.Name,
		&typeStr,
		&statusStr,
		&b.WalletAddress,
		&total,
		&daily,
		&b.Config,
		&b.CreatedAt,
		&b.LastActive,
	)
	if err != nil {
		return nil, err
	}

	b.Type = domain.BotType(typeStr)
	b.Status = domain.BotStatus(statusStr)
	if b.TotalRevenue, err = parseNumeric("total_revenue", total); err != nil {
		return nil, err
	}
	if b.DailyRevenue, err = parseNumeric("daily_revenue", daily); err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.LastActive = b.LastActive.UTC()
	return &b, nil
}
