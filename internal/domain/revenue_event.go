package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies how revenue was earned.
type EventType string

const (
	EventTypeTradingFee EventType = "trading_fee"
	EventTypeArbitrage  EventType = "arbitrage"
	EventTypeOther      EventType = "other"
)

// String returns the string representation of EventType.
func (t EventType) String() string {
	return string(t)
}

// IsValid checks if the event type is a valid value.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeTradingFee, EventTypeArbitrage, EventTypeOther:
		return true
	}
	return false
}

// RevenueEvent is an immutable fact: a bot earned Amount of Currency at Timestamp.
// Corresponds to revenue_events table in PostgreSQL.
type RevenueEvent struct {
	ID              string          `json:"id"`              // PRIMARY KEY, deterministic hash
	BotID           string          `json:"botId"`           // owning bot
	TransactionHash string          `json:"transactionHash"` // opaque chain reference
	Amount          decimal.Decimal `json:"amount"`          // non-negative
	Currency        string          `json:"currency"`        // symbol, e.g. ETH
	EventType       EventType       `json:"eventType"`
	GasUsed         decimal.Decimal `json:"gasUsed"`
	GasPrice        decimal.Decimal `json:"gasPrice"`
	Timestamp       time.Time       `json:"timestamp"`
}
