package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Protocol identifies the AMM a liquidity position lives in.
type Protocol string

const (
	ProtocolUniswapV2 Protocol = "uniswap_v2"
	ProtocolUniswapV3 Protocol = "uniswap_v3"
	ProtocolSushiswap Protocol = "sushiswap"
	ProtocolOther     Protocol = "other"
)

// String returns the string representation of Protocol.
func (p Protocol) String() string {
	return string(p)
}

// IsValid checks if the protocol is a valid value.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolUniswapV2, ProtocolUniswapV3, ProtocolSushiswap, ProtocolOther:
		return true
	}
	return false
}

// LpPosition is a bot-owned liquidity position in an external protocol.
// Corresponds to lp_positions table in PostgreSQL.
type LpPosition struct {
	ID             string          `json:"id"`    // PRIMARY KEY, uuid
	BotID          string          `json:"botId"` // owning bot
	WalletAddress  string          `json:"walletAddress"`
	TokenAddress   string          `json:"tokenAddress"` // LP token contract
	Protocol       Protocol        `json:"protocol"`
	PairInfo       string          `json:"pairInfo"` // e.g. ETHG/USDC
	Balance        decimal.Decimal `json:"balance"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"` // USD
	Blockchain     string          `json:"blockchain"`
	IsActive       bool            `json:"isActive"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}
