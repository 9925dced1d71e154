package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// LpPositionStore implements storage.LpPositionStore using PostgreSQL.
type LpPositionStore struct {
	pool *Pool
}

// NewLpPositionStore creates a new LpPositionStore.
func NewLpPositionStore(pool *Pool) *LpPositionStore {
	return &LpPositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LpPositionStore = (*LpPositionStore)(nil)

const lpPositionColumns = `
	id, bot_id, wallet_address, token_address, protocol, pair_info,
	balance::text, estimated_value::text, blockchain, is_active, last_updated
`

// Insert adds a new position. Returns ErrDuplicateKey if id exists
// and ErrNotFound if the owning bot does not exist.
func (s *LpPositionStore) Insert(ctx context.Context, p *domain.LpPosition) error {
	query := `
		INSERT INTO lp_positions (
			id, bot_id, wallet_address, token_address, protocol, pair_info,
			balance, estimated_value, blockchain, is_active, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID,
		p.BotID,
		p.WalletAddress,
		p.TokenAddress,
		string(p.Protocol),
		p.PairInfo,
		p.Balance.String(),
		p.EstimatedValue.String(),
		p.Blockchain,
		p.IsActive,
		p.LastUpdated,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert lp position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *LpPositionStore) GetByID(ctx context.Context, id string) (*domain.LpPosition, error) {
	query := `SELECT ` + lpPositionColumns + ` FROM lp_positions WHERE id = $1`

	p, err := scanLpPosition(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get lp position by id: %w", err)
	}
	return p, nil
}

// GetByBotID retrieves all positions owned by a bot.
func (s *LpPositionStore) GetByBotID(ctx context.Context, botID string) ([]*domain.LpPosition, error) {
	query := `SELECT ` + lpPositionColumns + ` FROM lp_positions WHERE bot_id = $1 ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("get lp positions by bot: %w", err)
	}
	defer rows.Close()

	return scanLpPositions(rows)
}

// GetAll retrieves all positions in insertion order.
func (s *LpPositionStore) GetAll(ctx context.Context) ([]*domain.LpPosition, error) {
	query := `SELECT ` + lpPositionColumns + ` FROM lp_positions ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all lp positions: %w", err)
	}
	defer rows.Close()

	return scanLpPositions(rows)
}

// scanLpPosition scans a single row into an LpPosition.
func scanLpPosition(row pgx.Row) (*domain.LpPosition, error) {
	var p domain.LpPosition
	var protocol, balance, estimated string

	err := row.Scan(
		&p.ID,
		&p.BotID,
		&p.WalletAddress,
		&p.TokenAddress,
		&protocol,
		&p.PairInfo,
		&balance,
		&estimated,
		&p.Blockchain,
		&p.IsActive,
		&p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	p.Protocol = domain.Protocol(protocol)
	if p.Balance, err = parseNumeric("balance", balance); err != nil {
		return nil, err
	}
	if p.EstimatedValue, err = parseNumeric("estimated_value", estimated); err != nil {
		return nil, err
	}
	p.LastUpdated = p.LastUpdated.UTC()
	return &p, nil
}

// scanLpPositions scans multiple rows into a slice of LpPosition.
func scanLpPositions(rows pgx.Rows) ([]*domain.LpPosition, error) {
	var positions []*domain.LpPosition
	for rows.Next() {
		p, err := scanLpPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lp position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lp position rows: %w", err)
	}
	return positions, nil
}
