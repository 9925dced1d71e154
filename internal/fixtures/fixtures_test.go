package fixtures

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/ledger"
	"funding-ledger/internal/storage/memory"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newSeeder(t *testing.T) (*Seeder, *ledger.Service) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := ledger.NewService(memory.NewLedger(),
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithLogger(logger),
	)
	return NewSeeder(svc, logger), svc
}

func TestSeed_EmptyLedger(t *testing.T) {
	seeder, svc := newSeeder(t)
	ctx := context.Background()

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Seeded: true, Bots: 2, FundingSources: 2, LpPositions: 2}, res)

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "76005.32", a.TotalValue.StringFixed(2))
	assert.Equal(t, "70324.87", a.LiquidationValue.StringFixed(2))
	assert.Equal(t, 2, a.SourceCount)
	assert.Equal(t, 2, a.BotCount)
	assert.Equal(t, 2, a.LpPositionCount)

	summary, err := svc.FundingSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.LiquidationQueue, 2)
	assert.Equal(t, "Foundation Wallet", summary.LiquidationQueue[0].Name)
}

func TestSeed_Idempotent(t *testing.T) {
	seeder, svc := newSeeder(t)
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, res.Seeded)

	bots, err := svc.ListBots(ctx)
	require.NoError(t, err)
	assert.Len(t, bots, 2)
}

func TestSeed_ConcurrentCallsSeedOnce(t *testing.T) {
	seeder, svc := newSeeder(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := seeder.Seed(ctx)
			if assert.NoError(t, err) && res.Seeded {
				mu.Lock()
				seeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, seeded)
	sources, err := svc.ListFundingSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	seeder, svc := newSeeder(t)
	ctx := context.Background()

	_, err := svc.CreateFundingSource(ctx, ledger.FundingSourceInput{
		Name:           "Manual",
		Type:           "wallet",
		WalletAddress:  RewardsWallet,
		EstimatedValue: "1",
	})
	require.NoError(t, err)

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, res.Seeded)

	bots, err := svc.ListBots(ctx)
	require.NoError(t, err)
	assert.Empty(t, bots)
}

// flakyLedger fails the nth CreateFundingSource call once.
type flakyLedger struct {
	*ledger.Service
	failOn int
	calls  int
}

func (f *flakyLedger) CreateFundingSource(ctx context.Context, in ledger.FundingSourceInput) (*domain.FundingSource, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("connection reset")
	}
	return f.Service.CreateFundingSource(ctx, in)
}

func TestSeed_ResumesAfterPartialFailure(t *testing.T) {
	_, svc := newSeeder(t)
	logger, _ := test.NewNullLogger()
	seeder := NewSeeder(&flakyLedger{Service: svc, failOn: 2}, logger)
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.Error(t, err)

	sources, err := svc.ListFundingSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Seeded: true, Bots: 0, FundingSources: 1, LpPositions: 2}, res)

	bots, err := svc.ListBots(ctx)
	require.NoError(t, err)
	assert.Len(t, bots, 2)

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "76005.32", a.TotalValue.StringFixed(2))
	assert.Equal(t, "70324.87", a.LiquidationValue.StringFixed(2))
	assert.Equal(t, 2, a.LpPositionCount)

	res, err = seeder.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, res.Seeded)
}

func TestDiscoverWallets(t *testing.T) {
	d := DiscoverWallets(now)

	require.Len(t, d.Wallets, 3)
	assert.Equal(t, "76180.32", d.TotalValue.StringFixed(2))
	assert.Equal(t, common.HexToAddress(FoundationWallet).Hex(), d.Wallets[0].Address)
	assert.True(t, d.Illustrative)
	assert.Equal(t, now, d.ScannedAt)
}

func TestCompletePortfolio(t *testing.T) {
	p := CompletePortfolio(now)

	assert.Equal(t, "76180.32", p.TotalValue.StringFixed(2))
	assert.Equal(t, "70324.87", p.LiquidValue.StringFixed(2))
	assert.Len(t, p.Holdings, 4)
}
