// Package fixtures holds the illustrative payloads served by the discovery
// endpoints and the data used to seed an empty ledger.
package fixtures

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Known addresses used across fixtures.
const (
	FoundationWallet = "0x742d35cc6634c0532925a3b8d295759d4c1d5d5f"
	PortfolioWallet  = "0x058c8fe01e5c9eac6ee19e6673673b549b368843"
	RewardsWallet    = "0x9e5bb1b0a0a1e2d9b2f5b8c3d4e6f7a8b9c0d1e2"
	PairToken        = "0x8894e0a0c962cb723c1976a4421c95949be2d4e3"
	GovernanceToken  = "0xc2b6d375b7d14c9ce73f97ddf565002cce257308"
)

// DiscoveredWallet is one wallet found by the discovery scan.
type DiscoveredWallet struct {
	Address        string          `json:"address"`
	Label          string          `json:"label"`
	Network        string          `json:"network"`
	BalanceEth     decimal.Decimal `json:"balanceEth"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
	TokenCount     int             `json:"tokenCount"`
	DiscoveredVia  string          `json:"discoveredVia"`
}

// Discovery is the discover-wallets payload.
type Discovery struct {
	Success      bool               `json:"success"`
	Wallets      []DiscoveredWallet `json:"wallets"`
	TotalValue   decimal.Decimal    `json:"totalValue"`
	ScannedAt    time.Time          `json:"scannedAt"`
	Illustrative bool               `json:"illustrative"`
}

// DiscoverWallets returns the fixed discovery payload stamped with now.
func DiscoverWallets(now time.Time) *Discovery {
	wallets := []DiscoveredWallet{
		{
			Address:        checksum(FoundationWallet),
			Label:          "Foundation Wallet",
			Network:        "ethereum",
			BalanceEth:     decimal.RequireFromString("14.38"),
			EstimatedValue: decimal.RequireFromString("50324.87"),
			TokenCount:     3,
			DiscoveredVia:  "transaction_history",
		},
		{
			Address:        checksum(PortfolioWallet),
			Label:          "LP Token Portfolio",
			Network:        "ethereum",
			BalanceEth:     decimal.RequireFromString("0.42"),
			EstimatedValue: decimal.RequireFromString("25680.45"),
			TokenCount:     16,
			DiscoveredVia:  "lp_token_scan",
		},
		{
			Address:        checksum(RewardsWallet),
			Label:          "Rewards Wallet",
			Network:        "ethereum",
			BalanceEth:     decimal.RequireFromString("0.05"),
			EstimatedValue: decimal.RequireFromString("175"),
			TokenCount:     1,
			DiscoveredVia:  "contract_interaction",
		},
	}

	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.EstimatedValue)
	}

	return &Discovery{
		Success:      true,
		Wallets:      wallets,
		TotalValue:   total,
		ScannedAt:    now.UTC(),
		Illustrative: true,
	}
}

// Holding is one asset line in the portfolio analysis.
type Holding struct {
	Asset          string          `json:"asset"`
	Wallet         string          `json:"wallet"`
	Category       string          `json:"category"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
	Liquid         bool            `json:"liquid"`
}

// PortfolioAnalysis is the complete-portfolio payload.
type PortfolioAnalysis struct {
	Success         bool            `json:"success"`
	Holdings        []Holding       `json:"holdings"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	LiquidValue     decimal.Decimal `json:"liquidValue"`
	RiskLevel       string          `json:"riskLevel"`
	Recommendations []string        `json:"recommendations"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	Illustrative    bool            `json:"illustrative"`
}

// CompletePortfolio returns the fixed portfolio analysis stamped with now.
func CompletePortfolio(now time.Time) *PortfolioAnalysis {
	holdings := []Holding{
		{Asset: "ETH", Wallet: checksum(FoundationWallet), Category: "wallet_balance", EstimatedValue: decimal.RequireFromString("50324.87"), Liquid: true},
		{Asset: "UNI-V2 LP", Wallet: checksum(PortfolioWallet), Category: "lp_token", EstimatedValue: decimal.RequireFromString("20000.00"), Liquid: true},
		{Asset: "UNI-V2 LP (locked)", Wallet: checksum(PortfolioWallet), Category: "lp_token", EstimatedValue: decimal.RequireFromString("5680.45"), Liquid: false},
		{Asset: "Governance rewards", Wallet: checksum(RewardsWallet), Category: "yield_farming", EstimatedValue: decimal.RequireFromString("175"), Liquid: false},
	}

	total, liquid := decimal.Zero, decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.EstimatedValue)
		if h.Liquid {
			liquid = liquid.Add(h.EstimatedValue)
		}
	}

	return &PortfolioAnalysis{
		Success:     true,
		Holdings:    holdings,
		TotalValue:  total,
		LiquidValue: liquid,
		RiskLevel:   "medium",
		Recommendations: []string{
			"Keep the foundation wallet as the first liquidation source",
			"Unlock LP positions before counting them as liquid",
		},
		GeneratedAt:  now.UTC(),
		Illustrative: true,
	}
}

func checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}
