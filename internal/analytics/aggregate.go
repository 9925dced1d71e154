// Package analytics derives ledger totals from stored records.
// All sums are exact decimal sums; nothing here is cached.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"funding-ledger/internal/domain"
)

// DailyWindow is the trailing window summed into Bot.DailyRevenue.
const DailyWindow = 24 * time.Hour

// Compute derives Analytics from the current collections.
//
//	totalRevenue     = sum(bot.totalRevenue)
//	totalValue       = sum(source.estimatedValue) + sum(position.estimatedValue)
//	liquidationValue = sum(source.availableForLiquidation)
//	sourceCount      = len(sources)
//
// Inactive sources and positions are included.
func Compute(bots []*domain.Bot, sources []*domain.FundingSource, positions []*domain.LpPosition, now time.Time) *domain.Analytics {
	a := &domain.Analytics{
		TotalRevenue:     decimal.Zero,
		TotalValue:       decimal.Zero,
		LiquidationValue: decimal.Zero,
		SourceCount:      len(sources),
		BotCount:         len(bots),
		LpPositionCount:  len(positions),
		ComputedAt:       now.UTC(),
	}

	for _, b := range bots {
		a.TotalRevenue = a.TotalRevenue.Add(b.TotalRevenue)
		if b.Status == domain.BotStatusActive {
			a.ActiveBotCount++
		}
	}
	for _, s := range sources {
		a.TotalValue = a.TotalValue.Add(s.EstimatedValue)
		a.LiquidationValue = a.LiquidationValue.Add(s.AvailableForLiquidation)
	}
	for _, p := range positions {
		a.TotalValue = a.TotalValue.Add(p.EstimatedValue)
	}

	return a
}

// RecomputeBot rewrites bot totals from its complete event list.
// DailyRevenue covers events in (now-DailyWindow, now].
// LastActive is the later of CreatedAt and the newest event.
func RecomputeBot(bot *domain.Bot, events []*domain.RevenueEvent, now time.Time) {
	total := decimal.Zero
	daily := decimal.Zero
	windowStart := now.Add(-DailyWindow)
	lastActive := bot.CreatedAt

	for _, e := range events {
		total = total.Add(e.Amount)
		if e.Timestamp.After(windowStart) && !e.Timestamp.After(now) {
			daily = daily.Add(e.Amount)
		}
		if e.Timestamp.After(lastActive) {
			lastActive = e.Timestamp
		}
	}

	bot.TotalRevenue = total
	bot.DailyRevenue = daily
	bot.LastActive = lastActive.UTC()
}

// Refresh returns copies of bots with totals recomputed from events as of now,
// so DailyRevenue reflects the trailing window at read time rather than at the
// last append. Events for other bots are ignored.
func Refresh(bots []*domain.Bot, events []*domain.RevenueEvent, now time.Time) []*domain.Bot {
	byBot := make(map[string][]*domain.RevenueEvent, len(bots))
	for _, e := range events {
		byBot[e.BotID] = append(byBot[e.BotID], e)
	}

	out := make([]*domain.Bot, len(bots))
	for i, b := range bots {
		c := b.Clone()
		RecomputeBot(c, byBot[b.ID], now)
		out[i] = c
	}
	return out
}

// BotPerformance returns one row per bot ordered by total revenue descending.
// Ties keep the input order.
func BotPerformance(bots []*domain.Bot, events []*domain.RevenueEvent) []*domain.BotPerformance {
	type tally struct {
		count int
		last  time.Time
	}
	byBot := make(map[string]*tally, len(bots))
	for _, e := range events {
		t, ok := byBot[e.BotID]
		if !ok {
			t = &tally{}
			byBot[e.BotID] = t
		}
		t.count++
		if e.Timestamp.After(t.last) {
			t.last = e.Timestamp
		}
	}

	rows := make([]*domain.BotPerformance, 0, len(bots))
	for _, b := range bots {
		row := &domain.BotPerformance{
			BotID:        b.ID,
			Name:         b.Name,
			Status:       b.Status,
			TotalRevenue: b.TotalRevenue,
			DailyRevenue: b.DailyRevenue,
		}
		if t, ok := byBot[b.ID]; ok {
			row.EventCount = t.count
			last := t.last.UTC()
			row.LastEventAt = &last
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})
	return rows
}

// Funding summarizes funding sources alone. The liquidation queue holds
// active sources ordered by LiquidationPriority descending; equal
// priorities keep insertion order.
func Funding(sources []*domain.FundingSource) *domain.FundingSummary {
	s := &domain.FundingSummary{
		TotalValue:       decimal.Zero,
		LiquidationValue: decimal.Zero,
		SourceCount:      len(sources),
		LiquidationQueue: make([]*domain.FundingSource, 0, len(sources)),
	}
	for _, src := range sources {
		s.TotalValue = s.TotalValue.Add(src.EstimatedValue)
		s.LiquidationValue = s.LiquidationValue.Add(src.AvailableForLiquidation)
		if src.IsActive {
			s.ActiveSourceCount++
			s.LiquidationQueue = append(s.LiquidationQueue, src)
		}
	}

	sort.SliceStable(s.LiquidationQueue, func(i, j int) bool {
		return s.LiquidationQueue[i].LiquidationPriority > s.LiquidationQueue[j].LiquidationPriority
	})
	return s
}

// Revenue sums bot totals and trailing-day revenue.
func Revenue(bots []*domain.Bot, now time.Time) *domain.RevenueTotals {
	r := &domain.RevenueTotals{
		TotalRevenue: decimal.Zero,
		DailyRevenue: decimal.Zero,
		BotCount:     len(bots),
		ComputedAt:   now.UTC(),
	}
	for _, b := range bots {
		r.TotalRevenue = r.TotalRevenue.Add(b.TotalRevenue)
		r.DailyRevenue = r.DailyRevenue.Add(b.DailyRevenue)
	}
	return r
}
