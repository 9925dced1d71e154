package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"funding-ledger/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_FoundationAndLPPortfolio(t *testing.T) {
	sources := []*domain.FundingSource{
		{ID: "fs-1", Name: "Foundation Wallet", EstimatedValue: dec("50324.87"), AvailableForLiquidation: dec("50324.87")},
		{ID: "fs-2", Name: "LP Token Portfolio", EstimatedValue: dec("25680.45"), AvailableForLiquidation: dec("20000.00")},
	}

	a := Compute(nil, sources, nil, t0)

	if got := a.TotalValue.String(); got != "76005.32" {
		t.Errorf("expected totalValue 76005.32, got %s", got)
	}
	if got := a.LiquidationValue.String(); got != "70324.87" {
		t.Errorf("expected liquidationValue 70324.87, got %s", got)
	}
	if a.SourceCount != 2 {
		t.Errorf("expected sourceCount 2, got %d", a.SourceCount)
	}
}

func TestCompute_IncludesPositionsAndInactive(t *testing.T) {
	bots := []*domain.Bot{
		{ID: "b1", Status: domain.BotStatusActive, TotalRevenue: dec("1.5")},
		{ID: "b2", Status: domain.BotStatusInactive, TotalRevenue: dec("2.25")},
	}
	sources := []*domain.FundingSource{
		{ID: "fs-1", EstimatedValue: dec("10"), AvailableForLiquidation: dec("4"), IsActive: false},
	}
	positions := []*domain.LpPosition{
		{ID: "lp-1", EstimatedValue: dec("0.1")},
		{ID: "lp-2", EstimatedValue: dec("0.2")},
	}

	a := Compute(bots, sources, positions, t0)

	if got := a.TotalRevenue.String(); got != "3.75" {
		t.Errorf("expected totalRevenue 3.75, got %s", got)
	}
	// 0.1 + 0.2 is exact in decimal
	if got := a.TotalValue.String(); got != "10.3" {
		t.Errorf("expected totalValue 10.3, got %s", got)
	}
	if a.BotCount != 2 || a.ActiveBotCount != 1 || a.LpPositionCount != 2 {
		t.Errorf("unexpected counts: %+v", a)
	}
}

func TestCompute_Empty(t *testing.T) {
	a := Compute(nil, nil, nil, t0)

	if !a.TotalRevenue.IsZero() || !a.TotalValue.IsZero() || !a.LiquidationValue.IsZero() {
		t.Errorf("expected zero totals, got %+v", a)
	}
	if a.SourceCount != 0 {
		t.Errorf("expected sourceCount 0, got %d", a.SourceCount)
	}
}

func TestRecomputeBot_TotalsAndDailyWindow(t *testing.T) {
	bot := &domain.Bot{ID: "b1", CreatedAt: t0.Add(-72 * time.Hour)}
	now := t0
	events := []*domain.RevenueEvent{
		{BotID: "b1", Amount: dec("5"), Timestamp: now.Add(-48 * time.Hour)},
		{BotID: "b1", Amount: dec("0.3"), Timestamp: now.Add(-23 * time.Hour)},
		{BotID: "b1", Amount: dec("0.7"), Timestamp: now.Add(-time.Minute)},
	}

	RecomputeBot(bot, events, now)

	if got := bot.TotalRevenue.String(); got != "6" {
		t.Errorf("expected totalRevenue 6, got %s", got)
	}
	if got := bot.DailyRevenue.String(); got != "1" {
		t.Errorf("expected dailyRevenue 1, got %s", got)
	}
	if !bot.LastActive.Equal(now.Add(-time.Minute)) {
		t.Errorf("expected lastActive at newest event, got %v", bot.LastActive)
	}
}

func TestRecomputeBot_WindowBoundaryExcluded(t *testing.T) {
	bot := &domain.Bot{ID: "b1", CreatedAt: t0.Add(-48 * time.Hour)}
	events := []*domain.RevenueEvent{
		{BotID: "b1", Amount: dec("2"), Timestamp: t0.Add(-DailyWindow)},
	}

	RecomputeBot(bot, events, t0)

	if !bot.DailyRevenue.IsZero() {
		t.Errorf("event exactly 24h old should be outside the window, got %s", bot.DailyRevenue)
	}
}

func TestRecomputeBot_NoEventsKeepsCreatedAt(t *testing.T) {
	bot := &domain.Bot{ID: "b1", CreatedAt: t0, TotalRevenue: dec("9")}

	RecomputeBot(bot, nil, t0.Add(time.Hour))

	if !bot.TotalRevenue.IsZero() {
		t.Errorf("expected zero total, got %s", bot.TotalRevenue)
	}
	if !bot.LastActive.Equal(t0) {
		t.Errorf("expected lastActive = createdAt, got %v", bot.LastActive)
	}
}

func TestBotPerformance_OrderedByRevenue(t *testing.T) {
	bots := []*domain.Bot{
		{ID: "low", Name: "Low", TotalRevenue: dec("1")},
		{ID: "high", Name: "High", TotalRevenue: dec("10")},
		{ID: "idle", Name: "Idle", TotalRevenue: dec("0")},
	}
	events := []*domain.RevenueEvent{
		{BotID: "high", Amount: dec("4"), Timestamp: t0},
		{BotID: "high", Amount: dec("6"), Timestamp: t0.Add(time.Hour)},
		{BotID: "low", Amount: dec("1"), Timestamp: t0},
	}

	rows := BotPerformance(bots, events)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].BotID != "high" || rows[1].BotID != "low" || rows[2].BotID != "idle" {
		t.Errorf("unexpected order: %s, %s, %s", rows[0].BotID, rows[1].BotID, rows[2].BotID)
	}
	if rows[0].EventCount != 2 {
		t.Errorf("expected 2 events for high, got %d", rows[0].EventCount)
	}
	if rows[0].LastEventAt == nil || !rows[0].LastEventAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("unexpected lastEventAt: %v", rows[0].LastEventAt)
	}
	if rows[2].LastEventAt != nil {
		t.Errorf("expected nil lastEventAt for idle bot")
	}
}

func TestFunding_LiquidationQueue(t *testing.T) {
	sources := []*domain.FundingSource{
		{ID: "a", EstimatedValue: dec("100"), AvailableForLiquidation: dec("50"), LiquidationPriority: 3, IsActive: true},
		{ID: "b", EstimatedValue: dec("200"), AvailableForLiquidation: dec("200"), LiquidationPriority: 9, IsActive: true},
		{ID: "c", EstimatedValue: dec("300"), AvailableForLiquidation: dec("10"), LiquidationPriority: 10, IsActive: false},
		{ID: "d", EstimatedValue: dec("1"), AvailableForLiquidation: dec("1"), LiquidationPriority: 3, IsActive: true},
	}

	s := Funding(sources)

	if got := s.TotalValue.String(); got != "601" {
		t.Errorf("expected totalValue 601, got %s", got)
	}
	if got := s.LiquidationValue.String(); got != "261" {
		t.Errorf("expected liquidationValue 261, got %s", got)
	}
	if s.SourceCount != 4 || s.ActiveSourceCount != 3 {
		t.Errorf("unexpected counts: %d/%d", s.SourceCount, s.ActiveSourceCount)
	}

	var order []string
	for _, src := range s.LiquidationQueue {
		order = append(order, src.ID)
	}
	want := []string{"b", "a", "d"}
	if len(order) != len(want) {
		t.Fatalf("expected queue %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected queue %v, got %v", want, order)
			break
		}
	}
}

func TestRevenue_SumsDaily(t *testing.T) {
	bots := []*domain.Bot{
		{ID: "b1", TotalRevenue: dec("3"), DailyRevenue: dec("0.5")},
		{ID: "b2", TotalRevenue: dec("1.25"), DailyRevenue: dec("0.25")},
	}

	r := Revenue(bots, t0)

	if got := r.TotalRevenue.String(); got != "4.25" {
		t.Errorf("expected totalRevenue 4.25, got %s", got)
	}
	if got := r.DailyRevenue.String(); got != "0.75" {
		t.Errorf("expected dailyRevenue 0.75, got %s", got)
	}
	if r.BotCount != 2 {
		t.Errorf("expected botCount 2, got %d", r.BotCount)
	}
}
