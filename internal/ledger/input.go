package ledger

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// BotInput is the payload for CreateBot.
type BotInput struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	WalletAddress string         `json:"walletAddress"`
	Config        map[string]any `json:"config"`
}

// RevenueEventInput is the payload for RecordRevenueEvent.
// Timestamp defaults to the service clock when nil; such events are keyed on
// bot, transaction hash and event type alone.
type RevenueEventInput struct {
	BotID           string     `json:"botId"`
	TransactionHash string     `json:"transactionHash"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	EventType       string     `json:"eventType"`
	GasUsed         string     `json:"gasUsed"`
	GasPrice        string     `json:"gasPrice"`
	Timestamp       *time.Time `json:"timestamp"`
}

// FundingSourceInput is the payload for CreateFundingSource.
type FundingSourceInput struct {
	Name                    string         `json:"name"`
	Type                    string         `json:"type"`
	WalletAddress           string         `json:"walletAddress"`
	Balance                 string         `json:"balance"`
	Currency                string         `json:"currency"`
	EstimatedValue          string         `json:"estimatedValue"`
	AvailableForLiquidation string         `json:"availableForLiquidation"`
	LiquidationPriority     int            `json:"liquidationPriority"`
	IsActive                *bool          `json:"isActive"`
	Metadata                map[string]any `json:"metadata"`
}

// RevalueInput is the payload for RevalueFundingSource.
type RevalueInput struct {
	EstimatedValue          string `json:"estimatedValue"`
	AvailableForLiquidation string `json:"availableForLiquidation"`
	Balance                 string `json:"balance"` // optional, unchanged when empty
}

// LpPositionInput is the payload for CreateLpPosition.
type LpPositionInput struct {
	BotID          string `json:"botId"`
	WalletAddress  string `json:"walletAddress"`
	TokenAddress   string `json:"tokenAddress"`
	Protocol       string `json:"protocol"`
	PairInfo       string `json:"pairInfo"`
	Balance        string `json:"balance"`
	EstimatedValue string `json:"estimatedValue"`
	Blockchain     string `json:"blockchain"`
	IsActive       *bool  `json:"isActive"`
}

// Amount bounds. 18 fractional digits is wei precision.
const (
	maxAmountScale         = 18
	maxAmountIntegerDigits = 60
)

// parseAmount parses a non-negative decimal string. Empty means zero.
// Values with more than maxAmountScale fractional digits or more than
// maxAmountIntegerDigits integer digits are rejected.
func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid(field, "%q is not a decimal", s)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, "must be non-negative, got %s", s)
	}
	// 0e1000000000 is zero but would be expanded on every String call.
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxAmountIntegerDigits {
		return decimal.Zero, invalid(field, "exceeds %d integer digits", maxAmountIntegerDigits)
	}
	if d.Exponent() < -maxAmountScale {
		// The coefficient must end in at least -exp-scale zeros.
		if -int64(d.Exponent())-maxAmountScale >= int64(d.NumDigits()) || !d.Equal(d.Truncate(maxAmountScale)) {
			return decimal.Zero, invalid(field, "has more than %d decimal places", maxAmountScale)
		}
		d = d.Truncate(maxAmountScale)
	}
	return d, nil
}

// parseAddress validates a 0x hex address and returns its EIP-55 form.
func parseAddress(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "is required")
	}
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return "", invalid(field, "%q is not a 0x-prefixed 20-byte hex address", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

func required(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "is required")
	}
	return s, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
