package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotType classifies the strategy a bot runs.
type BotType string

const (
	BotTypeLiquidityProvider BotType = "liquidity_provider"
	BotTypeArbitrage         BotType = "arbitrage"
	BotTypeOther             BotType = "other"
)

// String returns the string representation of BotType.
func (t BotType) String() string {
	return string(t)
}

// IsValid checks if the bot type is a valid value.
func (t BotType) IsValid() bool {
	switch t {
	case BotTypeLiquidityProvider, BotTypeArbitrage, BotTypeOther:
		return true
	}
	return false
}

// BotStatus is the operational state of a bot.
type BotStatus string

const (
	BotStatusActive   BotStatus = "active"
	BotStatusInactive BotStatus = "inactive"
)

// String returns the string representation of BotStatus.
func (s BotStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s BotStatus) IsValid() bool {
	return s == BotStatusActive || s == BotStatusInactive
}

// Bot is an actor bound to a wallet that accumulates revenue events.
// Corresponds to bots table in PostgreSQL.
type Bot struct {
	ID            string          `json:"id"`            // PRIMARY KEY, uuid
	Name          string          `json:"name"`          // display name
	Type          BotType         `json:"type"`          // liquidity_provider | arbitrage | other
	Status        BotStatus       `json:"status"`        // active | inactive
	WalletAddress string          `json:"walletAddress"` // EIP-55 checksummed
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`  // sum of all event amounts
	DailyRevenue  decimal.Decimal `json:"dailyRevenue"`  // sum over trailing 24h
	Config        map[string]any  `json:"config,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastActive    time.Time       `json:"lastActive"` // max(created_at, latest event)
}

// Clone returns a copy of the bot that shares no mutable state with b.
func (b *Bot) Clone() *Bot {
	c := *b
	c.Config = cloneMap(b.Config)
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
