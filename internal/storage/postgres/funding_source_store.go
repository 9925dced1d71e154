package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// FundingSourceStore implements storage.FundingSourceStore using PostgreSQL.
type FundingSourceStore struct {
	pool *Pool
}

// NewFundingSourceStore creates a new FundingSourceStore.
func NewFundingSourceStore(pool *Pool) *FundingSourceStore {
	return &FundingSourceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FundingSourceStore = (*FundingSourceStore)(nil)

const fundingSourceColumns = `
	id, name, type, wallet_address, balance::text, currency,
	estimated_value::text, available_for_liquidation::text,
	liquidation_priority, is_active, last_updated, metadata
`

// Insert adds a new funding source. Returns ErrDuplicateKey if id exists.
func (s *FundingSourceStore) Insert(ctx context.Context, f *domain.FundingSource) error {
	query := `
		INSERT INTO funding_sources (
			id, name, type, wallet_address, balance, currency,
			estimated_value, available_for_liquidation,
			liquidation_priority, is_active, last_updated, metadata
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8::numeric, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		f.ID,
		f.Name,
		string(f.Type),
		f.WalletAddress,
		f.Balance.String(),
		f.Currency,
		f.EstimatedValue.String(),
		f.AvailableForLiquidation.String(),
		f.LiquidationPriority,
		f.IsActive,
		f.LastUpdated,
		f.Metadata,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert funding source: %w", err)
	}
	return nil
}

// Update replaces a funding source. Returns ErrNotFound if not exists.
func (s *FundingSourceStore) Update(ctx context.Context, f *domain.FundingSource) error {
	query := `
		UPDATE funding_sources SET
			name = $2,
			type = $3,
			wallet_address = $4,
			balance = $5::numeric,
			currency = $6,
			estimated_value = $7::numeric,
			available_for_liquidation = $8::numeric,
			liquidation_priority = $9,
			is_active = $10,
			last_updated = $11,
			metadata = $12
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		f.ID,
		f.Name,
		string(f.Type),
		f.WalletAddress,
		f.Balance.String(),
		f.Currency,
		f.EstimatedValue.String(),
		f.AvailableForLiquidation.String(),
		f.LiquidationPriority,
		f.IsActive,
		f.LastUpdated,
		f.Metadata,
	)
	if err != nil {
		return fmt.Errorf("update funding source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a funding source by its ID. Returns ErrNotFound if not exists.
func (s *FundingSourceStore) GetByID(ctx context.Context, id string) (*domain.FundingSource, error) {
	query := `SELECT ` + fundingSourceColumns + ` FROM funding_sources WHERE id = $1`

	f, err := scanFundingSource(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get funding source by id: %w", err)
	}
	return f, nil
}

// GetAll retrieves all funding sources in insertion order.
func (s *FundingSourceStore) GetAll(ctx context.Context) ([]*domain.FundingSource, error) {
	query := `SELECT ` + fundingSourceColumns + ` FROM funding_sources ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all funding sources: %w", err)
	}
	defer rows.Close()

	var sources []*domain.FundingSource
	for rows.Next() {
		f, err := scanFundingSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan funding source row: %w", err)
		}
		sources = append(sources, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funding source rows: %w", err)
	}
	return sources, nil
}

// scanFundingSource scans a single row into a FundingSource.
func scanFundingSource(row pgx.Row) (*domain.FundingSource, error) {
	var f domain.FundingSource
	var typeStr, balance, estimated, available string

	err := row.Scan(
		&f.ID,
		&f.Name,
		&typeStr,
		&f.WalletAddress,
		&balance,
		&f.Currency,
		&estimated,
		&available,
		&f.LiquidationPriority,
		&f.IsActive,
		&f.LastUpdated,
		&f.Metadata,
	)
	if err != nil {
		return nil, err
	}

	f.Type = domain.FundingSourceType(typeStr)
	if f.Balance, err = parseNumeric("balance", balance); err != nil {
		return nil, err
	}
	if f.EstimatedValue, err = parseNumeric("estimated_value", estimated); err != nil {
		return nil, err
	}
	if f.AvailableForLiquidation, err = parseNumeric("available_for_liquidation", available); err != nil {
		return nil, err
	}
	f.LastUpdated = f.LastUpdated.UTC()
	return &f, nil
}
