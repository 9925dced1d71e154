package fixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/ledger"
)

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Seeded         bool `json:"seeded"`
	Bots           int  `json:"bots"`
	FundingSources int  `json:"fundingSources"`
	LpPositions    int  `json:"lpPositions"`
}

// Ledger is the subset of ledger.Service the seeder writes through.
type Ledger interface {
	ListBots(ctx context.Context) ([]*domain.Bot, error)
	ListFundingSources(ctx context.Context) ([]*domain.FundingSource, error)
	ListLpPositions(ctx context.Context) ([]*domain.LpPosition, error)
	CreateBot(ctx context.Context, in ledger.BotInput) (*domain.Bot, error)
	CreateFundingSource(ctx context.Context, in ledger.FundingSourceInput) (*domain.FundingSource, error)
	CreateLpPosition(ctx context.Context, in ledger.LpPositionInput) (*domain.LpPosition, error)
}

// Seeder loads the discovered data into an empty ledger.
type Seeder struct {
	mu     sync.Mutex
	ledger Ledger
	logger logrus.FieldLogger
}

// NewSeeder creates a seeder.
func NewSeeder(l Ledger, logger logrus.FieldLogger) *Seeder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Seeder{ledger: l, logger: logger.WithField("component", "seed")}
}

// Seed writes the fixture bots, funding sources and LP positions.
//
// Records are matched by name (LP positions by owning bot and pair), so a
// seed interrupted by an error is completed by the next call. A ledger holding
// any bot or funding source that is not a fixture is left untouched, and
// Seeded is false when nothing had to be written.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bots, err := s.ledger.ListBots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	sources, err := s.ledger.ListFundingSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list funding sources: %w", err)
	}
	if foreign := foreignRecords(bots, sources); foreign > 0 {
		s.logger.WithFields(logrus.Fields{
			"bots":            len(bots),
			"funding_sources": len(sources),
			"foreign":         foreign,
		}).Info("ledger already has data, skipping seed")
		return &SeedResult{Seeded: false}, nil
	}
	positions, err := s.ledger.ListLpPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lp positions: %w", err)
	}

	botsByName := make(map[string]*domain.Bot, len(bots))
	for _, b := range bots {
		botsByName[b.Name] = b
	}
	sourceNames := make(map[string]bool, len(sources))
	for _, src := range sources {
		sourceNames[src.Name] = true
	}
	positionKeys := make(map[string]bool, len(positions))
	for _, p := range positions {
		positionKeys[p.BotID+"|"+p.PairInfo] = true
	}

	res := &SeedResult{}

	for _, in := range seedBots() {
		if _, ok := botsByName[in.Name]; ok {
			continue
		}
		bot, err := s.ledger.CreateBot(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed bot %q: %w", in.Name, err)
		}
		botsByName[in.Name] = bot
		res.Bots++
	}

	for _, in := range seedFundingSources() {
		if sourceNames[in.Name] {
			continue
		}
		if _, err := s.ledger.CreateFundingSource(ctx, in); err != nil {
			return nil, fmt.Errorf("seed funding source %q: %w", in.Name, err)
		}
		res.FundingSources++
	}

	for _, p := range seedLpPositions() {
		in := p.input
		in.BotID = botsByName[p.botName].ID
		if positionKeys[in.BotID+"|"+in.PairInfo] {
			continue
		}
		if _, err := s.ledger.CreateLpPosition(ctx, in); err != nil {
			return nil, fmt.Errorf("seed lp position %q: %w", in.PairInfo, err)
		}
		res.LpPositions++
	}

	res.Seeded = res.Bots+res.FundingSources+res.LpPositions > 0
	s.logger.WithFields(logrus.Fields{
		"bots":            res.Bots,
		"funding_sources": res.FundingSources,
		"lp_positions":    res.LpPositions,
	}).Info("seeded discovered data")
	return res, nil
}

// foreignRecords counts bots and funding sources that are not fixtures.
func foreignRecords(bots []*domain.Bot, sources []*domain.FundingSource) int {
	botNames := make(map[string]bool)
	for _, in := range seedBots() {
		botNames[in.Name] = true
	}
	sourceNames := make(map[string]bool)
	for _, in := range seedFundingSources() {
		sourceNames[in.Name] = true
	}

	n := 0
	for _, b := range bots {
		if !botNames[b.Name] {
			n++
		}
	}
	for _, src := range sources {
		if !sourceNames[src.Name] {
			n++
		}
	}
	return n
}

const (
	lpBotName  = "Uniswap V2 LP Bot"
	arbBotName = "Arbitrage Scanner"
)

func seedBots() []ledger.BotInput {
	return []ledger.BotInput{
		{
			Name:          lpBotName,
			Type:          string(domain.BotTypeLiquidityProvider),
			WalletAddress: PortfolioWallet,
			Config:        map[string]any{"pair": "ETHGR/WETH", "rebalanceThreshold": "0.05"},
		},
		{
			Name:          arbBotName,
			Type:          string(domain.BotTypeArbitrage),
			WalletAddress: FoundationWallet,
			Config:        map[string]any{"minSpreadBps": 15},
		},
	}
}

type seedPosition struct {
	botName string
	input   ledger.LpPositionInput
}

func seedLpPositions() []seedPosition {
	return []seedPosition{
		{
			botName: lpBotName,
			input: ledger.LpPositionInput{
				WalletAddress:  PortfolioWallet,
				TokenAddress:   PairToken,
				Protocol:       string(domain.ProtocolUniswapV2),
				PairInfo:       "ETHGR/WETH",
				Balance:        "1990000",
				EstimatedValue: "0",
			},
		},
		{
			botName: arbBotName,
			input: ledger.LpPositionInput{
				WalletAddress:  FoundationWallet,
				TokenAddress:   GovernanceToken,
				Protocol:       string(domain.ProtocolSushiswap),
				PairInfo:       "SUSHI/WETH",
				Balance:        "12.5",
				EstimatedValue: "0",
			},
		},
	}
}

func seedFundingSources() []ledger.FundingSourceInput {
	return []ledger.FundingSourceInput{
		{
			Name:                    "Foundation Wallet",
			Type:                    string(domain.FundingSourceWallet),
			WalletAddress:           FoundationWallet,
			Balance:                 "14.38",
			Currency:                "ETH",
			EstimatedValue:          "50324.87",
			AvailableForLiquidation: "50324.87",
			LiquidationPriority:     10,
		},
		{
			Name:                    "LP Token Portfolio",
			Type:                    string(domain.FundingSourceLPToken),
			WalletAddress:           PortfolioWallet,
			Balance:                 "1990000",
			Currency:                "UNI-V2",
			EstimatedValue:          "25680.45",
			AvailableForLiquidation: "20000.00",
			LiquidationPriority:     5,
			Metadata:                map[string]any{"pair": "ETHGR/WETH", "locked": "5680.45"},
		},
	}
}
