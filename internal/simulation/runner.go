// Package simulation generates synthetic revenue for active bots.
package simulation

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/ledger"
	"funding-ledger/internal/observability"
)

// ErrAlreadyRunning is returned by RunRound when a round is in progress.
var ErrAlreadyRunning = errors.New("simulation round already running")

// Recorder is the subset of ledger.Service the simulator uses.
type Recorder interface {
	ListBots(ctx context.Context) ([]*domain.Bot, error)
	RecordRevenueEvent(ctx context.Context, in ledger.RevenueEventInput) (*domain.RevenueEvent, error)
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Recorder  Recorder
	Interval  time.Duration   // time between rounds, default 30s
	Seed      int64           // RNG seed; 0 uses the current time
	MaxAmount decimal.Decimal // upper bound of one event amount, default 0.05
	Logger    logrus.FieldLogger
}

// RoundResult summarizes one round.
type RoundResult struct {
	BotsVisited    int `json:"botsVisited"`
	EventsRecorded int `json:"eventsRecorded"`
	Failures       int `json:"failures"`
}

// Status is a snapshot of runner state.
type Status struct {
	Running        bool      `json:"running"`
	Rounds         int       `json:"rounds"`
	EventsRecorded int       `json:"eventsRecorded"`
	LastRun        time.Time `json:"lastRun,omitempty"`
}

// Runner records random revenue events for every active bot on an interval.
type Runner struct {
	recorder  Recorder
	interval  time.Duration
	maxAmount decimal.Decimal
	logger    logrus.FieldLogger

	mu      sync.Mutex
	rng     *rand.Rand
	running bool
	rounds  int
	events  int
	lastRun time.Time
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if !opts.MaxAmount.IsPositive() {
		opts.MaxAmount = decimal.RequireFromString("0.05")
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Runner{
		recorder:  opts.Recorder,
		interval:  opts.Interval,
		maxAmount: opts.MaxAmount,
		logger:    opts.Logger.WithField("component", "simulation"),
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
}

// Run executes a round immediately and then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.WithField("interval", r.interval.String()).Info("simulation started")

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.RunRound(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			r.logger.Debug("round already running, skipping")
			return
		}
		r.logger.WithError(err).Warn("simulation round failed")
	}
}

// RunRound records one event per active bot.
func (r *Runner) RunRound(ctx context.Context) (*RoundResult, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	res := &RoundResult{}
	defer func() {
		r.mu.Lock()
		r.running = false
		r.rounds++
		r.events += res.EventsRecorded
		r.lastRun = time.Now()
		r.mu.Unlock()
	}()

	bots, err := r.recorder.ListBots(ctx)
	if err != nil {
		observability.RecordSimulationRound("error")
		return nil, fmt.Errorf("list bots: %w", err)
	}

	for _, bot := range bots {
		if bot.Status != domain.BotStatusActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			observability.RecordSimulationRound("canceled")
			return res, err
		}
		res.BotsVisited++

		in := r.nextEvent(bot)
		if _, err := r.recorder.RecordRevenueEvent(ctx, in); err != nil {
			res.Failures++
			r.logger.WithError(err).WithField("bot_id", bot.ID).Warn("simulated event rejected")
			continue
		}
		res.EventsRecorded++
	}

	observability.RecordSimulationRound("success")
	r.logger.WithFields(logrus.Fields{
		"bots":     res.BotsVisited,
		"recorded": res.EventsRecorded,
		"failures": res.Failures,
	}).Debug("simulation round complete")
	return res, nil
}

// Status returns the current runner state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Running:        r.running,
		Rounds:         r.rounds,
		EventsRecorded: r.events,
		LastRun:        r.lastRun,
	}
}

// nextEvent draws an amount in (0, maxAmount] with 6 decimal places and a random tx hash.
func (r *Runner) nextEvent(bot *domain.Bot) ledger.RevenueEventInput {
	r.mu.Lock()
	frac := r.rng.Int63n(1_000_000) + 1
	hash := make([]byte, 32)
	r.rng.Read(hash)
	r.mu.Unlock()

	amount := r.maxAmount.Mul(decimal.New(frac, -6)).Round(6)
	if !amount.IsPositive() {
		amount = decimal.New(1, -6)
	}

	return ledger.RevenueEventInput{
		BotID:           bot.ID,
		TransactionHash: "0x" + hex.EncodeToString(hash),
		Amount:          amount.String(),
		Currency:        "ETH",
		EventType:       string(eventTypeFor(bot.Type)),
	}
}

func eventTypeFor(t domain.BotType) domain.EventType {
	switch t {
	case domain.BotTypeLiquidityProvider:
		return domain.EventTypeTradingFee
	case domain.BotTypeArbitrage:
		return domain.EventTypeArbitrage
	default:
		return domain.EventTypeOther
	}
}
