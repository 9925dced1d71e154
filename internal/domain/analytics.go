package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analytics holds totals derived from the ledger collections. Never stored.
type Analytics struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`     // sum of Bot.TotalRevenue
	TotalValue       decimal.Decimal `json:"totalValue"`       // funding sources + LP positions
	LiquidationValue decimal.Decimal `json:"liquidationValue"` // sum of AvailableForLiquidation
	SourceCount      int             `json:"sourceCount"`
	BotCount         int             `json:"botCount"`
	ActiveBotCount   int             `json:"activeBotCount"`
	LpPositionCount  int             `json:"lpPositionCount"`
	ComputedAt       time.Time       `json:"computedAt"`
}

// BotPerformance summarizes one bot's revenue history.
type BotPerformance struct {
	BotID        string          `json:"botId"`
	Name         string          `json:"name"`
	Status       BotStatus       `json:"status"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	DailyRevenue decimal.Decimal `json:"dailyRevenue"`
	EventCount   int             `json:"eventCount"`
	LastEventAt  *time.Time      `json:"lastEventAt,omitempty"` // nil when the bot has no events
}

// FundingSummary reports funding totals and the order in which active
// sources would be liquidated.
type FundingSummary struct {
	TotalValue        decimal.Decimal  `json:"totalValue"`       // funding sources only
	LiquidationValue  decimal.Decimal  `json:"liquidationValue"` // sum of AvailableForLiquidation
	SourceCount       int              `json:"sourceCount"`
	ActiveSourceCount int              `json:"activeSourceCount"`
	LiquidationQueue  []*FundingSource `json:"liquidationQueue"` // active only, priority DESC
}

// RevenueTotals is the revenue-only view of Analytics.
type RevenueTotals struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	DailyRevenue decimal.Decimal `json:"dailyRevenue"`
	BotCount     int             `json:"botCount"`
	ComputedAt   time.Time       `json:"computedAt"`
}
