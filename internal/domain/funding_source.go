package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingSourceType classifies a pool of value.
type FundingSourceType string

const (
	FundingSourceWallet        FundingSourceType = "wallet"
	FundingSourceLiquidityPool FundingSourceType = "liquidity_pool"
	FundingSourceLPToken       FundingSourceType = "lp_token"
	FundingSourceWalletBalance FundingSourceType = "wallet_balance"
	FundingSourceYieldFarming  FundingSourceType = "yield_farming"
)

// String returns the string representation of FundingSourceType.
func (t FundingSourceType) String() string {
	return string(t)
}

// IsValid checks if the funding source type is a valid value.
func (t FundingSourceType) IsValid() bool {
	switch t {
	case FundingSourceWallet, FundingSourceLiquidityPool, FundingSourceLPToken,
		FundingSourceWalletBalance, FundingSourceYieldFarming:
		return true
	}
	return false
}

// Liquidation priority bounds. Higher means liquidate sooner.
const (
	MinLiquidationPriority = 1
	MaxLiquidationPriority = 10
)

// FundingSource is a named pool of value such as a wallet balance or LP token holding.
// Corresponds to funding_sources table in PostgreSQL.
type FundingSource struct {
	ID                      string            `json:"id"` // PRIMARY KEY, uuid
	Name                    string            `json:"name"`
	Type                    FundingSourceType `json:"type"`
	WalletAddress           string            `json:"walletAddress"` // not unique
	Balance                 decimal.Decimal   `json:"balance"`       // native units of Currency
	Currency                string            `json:"currency"`
	EstimatedValue          decimal.Decimal   `json:"estimatedValue"`          // USD
	AvailableForLiquidation decimal.Decimal   `json:"availableForLiquidation"` // USD, <= EstimatedValue
	LiquidationPriority     int               `json:"liquidationPriority"`     // [1, 10]
	IsActive                bool              `json:"isActive"`
	LastUpdated             time.Time         `json:"lastUpdated"`
	Metadata                map[string]any    `json:"metadata,omitempty"`
}

// Clone returns a copy of the funding source that shares no mutable state with f.
func (f *FundingSource) Clone() *FundingSource {
	c := *f
	c.Metadata = cloneMap(f.Metadata)
	return &c
}
