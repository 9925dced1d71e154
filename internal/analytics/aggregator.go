package analytics

import (
	"context"
	"fmt"
	"time"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

// Aggregator loads ledger collections and derives analytics on every call.
type Aggregator struct {
	ledger storage.Ledger
}

// NewAggregator creates a new analytics aggregator.
func NewAggregator(ledger storage.Ledger) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// Analytics loads bots, funding sources and LP positions and sums them.
func (a *Aggregator) Analytics(ctx context.Context, now time.Time) (*domain.Analytics, error) {
	bots, err := a.ledger.Bots().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bots: %w", err)
	}
	sources, err := a.ledger.FundingSources().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load funding sources: %w", err)
	}
	positions, err := a.ledger.LpPositions().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lp positions: %w", err)
	}
	return Compute(bots, sources, positions, now), nil
}

// Bots loads every bot with totals recomputed as of now.
func (a *Aggregator) Bots(ctx context.Context, now time.Time) ([]*domain.Bot, error) {
	bots, err := a.ledger.Bots().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bots: %w", err)
	}
	events, err := a.ledger.RevenueEvents().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load revenue events: %w", err)
	}
	return Refresh(bots, events, now), nil
}

// Bot loads one bot with totals recomputed as of now.
func (a *Aggregator) Bot(ctx context.Context, id string, now time.Time) (*domain.Bot, error) {
	bot, err := a.ledger.Bots().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := a.ledger.RevenueEvents().GetByBotID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load revenue events: %w", err)
	}
	return Refresh([]*domain.Bot{bot}, events, now)[0], nil
}

// BotPerformance loads bots and events and ranks bots by total revenue.
// Daily revenue is the trailing window ending at now.
func (a *Aggregator) BotPerformance(ctx context.Context, now time.Time) ([]*domain.BotPerformance, error) {
	bots, err := a.ledger.Bots().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bots: %w", err)
	}
	events, err := a.ledger.RevenueEvents().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load revenue events: %w", err)
	}
	return BotPerformance(Refresh(bots, events, now), events), nil
}

// FundingSummary loads funding sources and builds the liquidation queue.
func (a *Aggregator) FundingSummary(ctx context.Context) (*domain.FundingSummary, error) {
	sources, err := a.ledger.FundingSources().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load funding sources: %w", err)
	}
	return Funding(sources), nil
}

// RevenueTotals sums bot revenue with the daily window ending at now.
func (a *Aggregator) RevenueTotals(ctx context.Context, now time.Time) (*domain.RevenueTotals, error) {
	bots, err := a.Bots(ctx, now)
	if err != nil {
		return nil, err
	}
	return Revenue(bots, now), nil
}
