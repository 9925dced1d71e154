package analytics

import (
	"context"
	"fmt"
	"testing"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage/memory"
)

func TestAggregator_SourceCountMatchesList(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	agg := NewAggregator(ledger)

	for i, id := range []string{"fs-1", "fs-2", "fs-3"} {
		src := &domain.FundingSource{
			ID:                      id,
			EstimatedValue:          dec("100"),
			AvailableForLiquidation: dec("50"),
			LiquidationPriority:     i + 1,
		}
		if err := ledger.FundingSources().Insert(ctx, src); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}

		a, err := agg.Analytics(ctx, t0)
		if err != nil {
			t.Fatalf("analytics: %v", err)
		}
		all, err := ledger.FundingSources().GetAll(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if a.SourceCount != len(all) {
			t.Errorf("sourceCount %d != len(list) %d", a.SourceCount, len(all))
		}
	}
}

func TestAggregator_TotalRevenueFollowsAppends(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	agg := NewAggregator(ledger)

	bot := &domain.Bot{ID: "b1", Status: domain.BotStatusActive, CreatedAt: t0, LastActive: t0}
	if err := ledger.Bots().Insert(ctx, bot); err != nil {
		t.Fatalf("insert bot: %v", err)
	}

	recompute := func(b *domain.Bot, events []*domain.RevenueEvent) {
		RecomputeBot(b, events, t0)
	}
	for i, amount := range []string{"0.1", "0.2", "0.3"} {
		e := &domain.RevenueEvent{
			ID:        fmt.Sprintf("ev-%d", i),
			BotID:     "b1",
			Amount:    dec(amount),
			EventType: domain.EventTypeTradingFee,
			Timestamp: t0,
		}
		if _, err := ledger.AppendRevenueEvent(ctx, e, recompute); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	a, err := agg.Analytics(ctx, t0)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got := a.TotalRevenue.String(); got != "0.6" {
		t.Errorf("expected totalRevenue 0.6, got %s", got)
	}

	rows, err := agg.BotPerformance(ctx, t0)
	if err != nil {
		t.Fatalf("bot performance: %v", err)
	}
	if len(rows) != 1 || rows[0].EventCount != 3 {
		t.Errorf("unexpected performance rows: %+v", rows)
	}
}
