// Package ledger implements the bot, revenue, funding source and LP position
// operations over the storage interfaces.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"funding-ledger/internal/analytics"
	"funding-ledger/internal/domain"
	"funding-ledger/internal/idhash"
	"funding-ledger/internal/observability"
	"funding-ledger/internal/storage"
)

// EventPublisher receives every revenue event after it is committed.
type EventPublisher interface {
	Publish(e *domain.RevenueEvent)
}

// Service is the ledger's operation surface.
type Service struct {
	store     storage.Ledger
	agg       *analytics.Aggregator
	now       func() time.Time
	newID     func() string
	publisher EventPublisher
	logger    logrus.FieldLogger
}

// Option configures Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for bot, funding source and position ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithPublisher sets the sink for committed revenue events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a ledger service over store.
func NewService(store storage.Ledger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		agg:    analytics.NewAggregator(store),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "ledger")
	return s
}

// ListBots returns all bots ordered by creation time. Daily revenue is the
// trailing window ending at the service clock.
func (s *Service) ListBots(ctx context.Context) ([]*domain.Bot, error) {
	bots, err := s.agg.Bots(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	return bots, nil
}

// GetBot returns one bot. Unknown ids yield storage.ErrNotFound.
func (s *Service) GetBot(ctx context.Context, id string) (*domain.Bot, error) {
	bot, err := s.agg.Bot(ctx, strings.TrimSpace(id), s.now())
	if err != nil {
		return nil, fmt.Errorf("get bot %s: %w", id, err)
	}
	return bot, nil
}

// CreateBot registers a bot with zero totals.
// Type defaults to other and status to active.
func (s *Service) CreateBot(ctx context.Context, in BotInput) (*domain.Bot, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	wallet, err := parseAddress("walletAddress", in.WalletAddress)
	if err != nil {
		return nil, err
	}

	botType := domain.BotTypeOther
	if in.Type != "" {
		botType = domain.BotType(in.Type)
		if !botType.IsValid() {
			return nil, invalid("type", "unknown bot type %q", in.Type)
		}
	}
	status := domain.BotStatusActive
	if in.Status != "" {
		status = domain.BotStatus(in.Status)
		if !status.IsValid() {
			return nil, invalid("status", "unknown status %q", in.Status)
		}
	}

	now := s.now().UTC()
	bot := &domain.Bot{
		ID:            s.newID(),
		Name:          name,
		Type:          botType,
		Status:        status,
		WalletAddress: wallet,
		Config:        in.Config,
		CreatedAt:     now,
		LastActive:    now,
	}

	if err := s.store.Bots().Insert(ctx, bot); err != nil {
		return nil, fmt.Errorf("insert bot: %w", err)
	}
	observability.RecordBotCreated()
	s.logger.WithFields(logrus.Fields{"bot_id": bot.ID, "type": bot.Type}).Info("bot registered")
	return bot, nil
}

// RecordRevenueEvent validates and appends a revenue event, then recomputes
// the owning bot's totals in the same transaction. The same fact recorded twice
// yields storage.ErrDuplicateKey.
func (s *Service) RecordRevenueEvent(ctx context.Context, in RevenueEventInput) (*domain.RevenueEvent, error) {
	e, err := s.buildRevenueEvent(in)
	if err != nil {
		observability.RecordRevenueEventRejected("invalid")
		return nil, err
	}

	now := s.now()
	recompute := func(bot *domain.Bot, events []*domain.RevenueEvent) {
		analytics.RecomputeBot(bot, events, now)
	}

	bot, err := s.store.AppendRevenueEvent(ctx, e, recompute)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			observability.RecordRevenueEventRejected("unknown_bot")
			return nil, fmt.Errorf("bot %s: %w", e.BotID, err)
		case errors.Is(err, storage.ErrDuplicateKey):
			observability.RecordRevenueEventRejected("duplicate")
			return nil, fmt.Errorf("revenue event %s: %w", e.ID, err)
		}
		return nil, fmt.Errorf("append revenue event: %w", err)
	}

	observability.RecordRevenueEvent(string(e.EventType))
	s.logger.WithFields(logrus.Fields{
		"bot_id":        bot.ID,
		"event_id":      e.ID,
		"amount":        e.Amount.String(),
		"total_revenue": bot.TotalRevenue.String(),
	}).Debug("revenue event recorded")

	if s.publisher != nil {
		s.publisher.Publish(e)
	}
	return e, nil
}

func (s *Service) buildRevenueEvent(in RevenueEventInput) (*domain.RevenueEvent, error) {
	botID, err := required("botId", in.BotID)
	if err != nil {
		return nil, err
	}
	txHash, err := required("transactionHash", in.TransactionHash)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Amount) == "" {
		return nil, invalid("amount", "is required")
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	gasUsed, err := parseAmount("gasUsed", in.GasUsed)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseAmount("gasPrice", in.GasPrice)
	if err != nil {
		return nil, err
	}

	eventType := domain.EventTypeOther
	if in.EventType != "" {
		eventType = domain.EventType(in.EventType)
		if !eventType.IsValid() {
			return nil, invalid("eventType", "unknown event type %q", in.EventType)
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "ETH"
	}

	// TIMESTAMPTZ keeps microseconds
	var id string
	var ts time.Time
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC().Truncate(time.Microsecond)
		id = idhash.ComputeRevenueEventID(botID, txHash, eventType, ts.UnixMicro())
	} else {
		// Without a reported time, a resubmission is the same fact.
		ts = s.now().UTC().Truncate(time.Microsecond)
		id = idhash.ComputeUntimedRevenueEventID(botID, txHash, eventType)
	}

	return &domain.RevenueEvent{
		ID:              id,
		BotID:           botID,
		TransactionHash: txHash,
		Amount:          amount,
		Currency:        currency,
		EventType:       eventType,
		GasUsed:         gasUsed,
		GasPrice:        gasPrice,
		Timestamp:       ts,
	}, nil
}

// ListRevenueEvents returns all events, or one bot's events when botID is set.
// Both are ordered by timestamp ascending.
func (s *Service) ListRevenueEvents(ctx context.Context, botID string) ([]*domain.RevenueEvent, error) {
	botID = strings.TrimSpace(botID)
	if botID == "" {
		events, err := s.store.RevenueEvents().GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list revenue events: %w", err)
		}
		return events, nil
	}

	if _, err := s.store.Bots().GetByID(ctx, botID); err != nil {
		return nil, fmt.Errorf("get bot %s: %w", botID, err)
	}
	events, err := s.store.RevenueEvents().GetByBotID(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("list revenue events for %s: %w", botID, err)
	}
	return events, nil
}

// ListFundingSources returns all funding sources in insertion order.
func (s *Service) ListFundingSources(ctx context.Context) ([]*domain.FundingSource, error) {
	sources, err := s.store.FundingSources().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list funding sources: %w", err)
	}
	return sources, nil
}

// CreateFundingSource registers a value pool. The same wallet may back many sources.
func (s *Service) CreateFundingSource(ctx context.Context, in FundingSourceInput) (*domain.FundingSource, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	srcType := domain.FundingSourceType(in.Type)
	if !srcType.IsValid() {
		return nil, invalid("type", "unknown funding source type %q", in.Type)
	}
	wallet, err := parseAddress("walletAddress", in.WalletAddress)
	if err != nil {
		return nil, err
	}
	balance, err := parseAmount("balance", in.Balance)
	if err != nil {
		return nil, err
	}
	estimated, available, err := parseValuation(in.EstimatedValue, in.AvailableForLiquidation)
	if err != nil {
		return nil, err
	}

	priority := in.LiquidationPriority
	if priority == 0 {
		priority = domain.MinLiquidationPriority
	}
	if priority < domain.MinLiquidationPriority || priority > domain.MaxLiquidationPriority {
		return nil, invalid("liquidationPriority", "must be in [%d, %d], got %d",
			domain.MinLiquidationPriority, domain.MaxLiquidationPriority, priority)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "ETH"
	}

	src := &domain.FundingSource{
		ID:                      s.newID(),
		Name:                    name,
		Type:                    srcType,
		WalletAddress:           wallet,
		Balance:                 balance,
		Currency:                currency,
		EstimatedValue:          estimated,
		AvailableForLiquidation: available,
		LiquidationPriority:     priority,
		IsActive:                boolOr(in.IsActive, true),
		LastUpdated:             s.now().UTC(),
		Metadata:                in.Metadata,
	}

	if err := s.store.FundingSources().Insert(ctx, src); err != nil {
		return nil, fmt.Errorf("insert funding source: %w", err)
	}
	observability.RecordFundingSourceCreated()
	s.logger.WithFields(logrus.Fields{"source_id": src.ID, "type": src.Type}).Info("funding source registered")
	return src, nil
}

// RevalueFundingSource replaces a source's valuation.
func (s *Service) RevalueFundingSource(ctx context.Context, id string, in RevalueInput) (*domain.FundingSource, error) {
	src, err := s.store.FundingSources().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get funding source %s: %w", id, err)
	}

	estimated, available, err := parseValuation(in.EstimatedValue, in.AvailableForLiquidation)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Balance) != "" {
		balance, err := parseAmount("balance", in.Balance)
		if err != nil {
			return nil, err
		}
		src.Balance = balance
	}

	src.EstimatedValue = estimated
	src.AvailableForLiquidation = available
	src.LastUpdated = s.now().UTC()

	if err := s.store.FundingSources().Update(ctx, src); err != nil {
		return nil, fmt.Errorf("update funding source %s: %w", id, err)
	}
	return src, nil
}

// DeactivateFundingSource flips IsActive off. Deactivating twice is a no-op.
func (s *Service) DeactivateFundingSource(ctx context.Context, id string) (*domain.FundingSource, error) {
	src, err := s.store.FundingSources().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get funding source %s: %w", id, err)
	}
	if !src.IsActive {
		return src, nil
	}

	src.IsActive = false
	src.LastUpdated = s.now().UTC()
	if err := s.store.FundingSources().Update(ctx, src); err != nil {
		return nil, fmt.Errorf("update funding source %s: %w", id, err)
	}
	s.logger.WithField("source_id", id).Info("funding source deactivated")
	return src, nil
}

// parseValuation enforces 0 <= availableForLiquidation <= estimatedValue.
func parseValuation(estimatedStr, availableStr string) (estimated, available decimal.Decimal, err error) {
	estimated, err = parseAmount("estimatedValue", estimatedStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	available, err = parseAmount("availableForLiquidation", availableStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if available.GreaterThan(estimated) {
		return decimal.Zero, decimal.Zero, invalid("availableForLiquidation",
			"%s exceeds estimatedValue %s", available, estimated)
	}
	return estimated, available, nil
}

// ListLpPositions returns all LP positions in insertion order.
func (s *Service) ListLpPositions(ctx context.Context) ([]*domain.LpPosition, error) {
	positions, err := s.store.LpPositions().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lp positions: %w", err)
	}
	return positions, nil
}

// CreateLpPosition registers a position owned by an existing bot.
func (s *Service) CreateLpPosition(ctx context.Context, in LpPositionInput) (*domain.LpPosition, error) {
	botID, err := required("botId", in.BotID)
	if err != nil {
		return nil, err
	}
	wallet, err := parseAddress("walletAddress", in.WalletAddress)
	if err != nil {
		return nil, err
	}
	token, err := parseAddress("tokenAddress", in.TokenAddress)
	if err != nil {
		return nil, err
	}
	protocol := domain.Protocol(in.Protocol)
	if !protocol.IsValid() {
		return nil, invalid("protocol", "unknown protocol %q", in.Protocol)
	}
	balance, err := parseAmount("balance", in.Balance)
	if err != nil {
		return nil, err
	}
	estimated, err := parseAmount("estimatedValue", in.EstimatedValue)
	if err != nil {
		return nil, err
	}
	chain := strings.ToLower(strings.TrimSpace(in.Blockchain))
	if chain == "" {
		chain = "ethereum"
	}

	if _, err := s.store.Bots().GetByID(ctx, botID); err != nil {
		return nil, fmt.Errorf("get bot %s: %w", botID, err)
	}

	pos := &domain.LpPosition{
		ID:             s.newID(),
		BotID:          botID,
		WalletAddress:  wallet,
		TokenAddress:   token,
		Protocol:       protocol,
		PairInfo:       strings.TrimSpace(in.PairInfo),
		Balance:        balance,
		EstimatedValue: estimated,
		Blockchain:     chain,
		IsActive:       boolOr(in.IsActive, true),
		LastUpdated:    s.now().UTC(),
	}

	if err := s.store.LpPositions().Insert(ctx, pos); err != nil {
		return nil, fmt.Errorf("insert lp position: %w", err)
	}
	observability.RecordLpPositionCreated()
	return pos, nil
}

// Analytics recomputes the derived totals from the current collections.
func (s *Service) Analytics(ctx context.Context) (*domain.Analytics, error) {
	return s.agg.Analytics(ctx, s.now())
}

// BotPerformance ranks bots by total revenue.
func (s *Service) BotPerformance(ctx context.Context) ([]*domain.BotPerformance, error) {
	return s.agg.BotPerformance(ctx, s.now())
}

// FundingSummary returns funding totals and the liquidation queue.
func (s *Service) FundingSummary(ctx context.Context) (*domain.FundingSummary, error) {
	return s.agg.FundingSummary(ctx)
}

// RevenueTotals returns the revenue-only totals.
func (s *Service) RevenueTotals(ctx context.Context) (*domain.RevenueTotals, error) {
	return s.agg.RevenueTotals(ctx, s.now())
}
