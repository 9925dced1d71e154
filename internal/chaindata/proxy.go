package chaindata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"funding-ledger/internal/observability"
	"funding-ledger/internal/storage"
)

// Field statuses.
const (
	StatusOK            = "ok"
	StatusFailed        = "failed"
	StatusNotConfigured = "not_configured"
	StatusFallback      = "fallback"
)

// Provider statuses.
const (
	APIOperational   = "operational"
	APIFallback      = "fallback"
	APINotConfigured = "not_configured"
)

// Report field names.
const (
	FieldBalance      = "balance"
	FieldTransactions = "transactions"
	FieldContract     = "contract"
	FieldTokenBalance = "tokenBalance"
	FieldPrice        = "price"
)

const priceCacheKey = "eth_usd"

// FieldStatus is the outcome of one upstream call.
type FieldStatus struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Report merges every upstream result. A failed field carries a zero value.
type Report struct {
	Wallet       string                 `json:"wallet"`
	Contract     string                 `json:"contract"`
	Balance      *WalletBalance         `json:"balance"`
	Transactions []Transaction          `json:"transactions"`
	ContractInfo *ContractInfo          `json:"contractInfo"`
	TokenBalance *TokenBalance          `json:"tokenBalance"`
	Price        *EthPrice              `json:"price"`
	Fields       map[string]FieldStatus `json:"fields"`
	APIStatus    map[string]string      `json:"apiStatus"`
	FetchedAt    time.Time              `json:"fetchedAt"`
}

// ProxyConfig tunes the fan-out.
type ProxyConfig struct {
	CallTimeout   time.Duration
	TxLimit       int
	PriceTTL      time.Duration
	FallbackPrice decimal.Decimal
}

// DefaultProxyConfig returns the default fan-out settings.
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		CallTimeout:   8 * time.Second,
		TxLimit:       10,
		PriceTTL:      60 * time.Second,
		FallbackPrice: decimal.RequireFromString("3500"),
	}
}

// Proxy runs the Etherscan and CoinGecko calls concurrently.
type Proxy struct {
	etherscan *Etherscan
	coingecko *CoinGecko
	cache     PriceCache
	config    ProxyConfig
	logger    logrus.FieldLogger
}

// NewProxy creates a proxy. etherscan may be unconfigured; cache may be nil.
func NewProxy(etherscan *Etherscan, coingecko *CoinGecko, cache PriceCache, config ProxyConfig, logger logrus.FieldLogger) *Proxy {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Proxy{
		etherscan: etherscan,
		coingecko: coingecko,
		cache:     cache,
		config:    config,
		logger:    logger.WithField("component", "chaindata"),
	}
}

// Lookup fetches wallet and contract data. Only malformed addresses fail the
// whole call; upstream failures are reported per field.
func (p *Proxy) Lookup(ctx context.Context, wallet, contract string) (*Report, error) {
	if !isAddress(wallet) {
		return nil, fmt.Errorf("wallet %q: %w", wallet, storage.ErrInvalidInput)
	}
	if !isAddress(contract) {
		return nil, fmt.Errorf("contract %q: %w", contract, storage.ErrInvalidInput)
	}
	wallet = common.HexToAddress(wallet).Hex()
	contract = common.HexToAddress(contract).Hex()

	r := &Report{
		Wallet:       wallet,
		Contract:     contract,
		Balance:      &WalletBalance{Wei: "0", Ether: decimal.Zero, ValueUSD: decimal.Zero},
		Transactions: []Transaction{},
		ContractInfo: &ContractInfo{Address: contract},
		TokenBalance: &TokenBalance{Contract: contract, Raw: "0"},
		FetchedAt:    time.Now().UTC(),
	}
	statuses := make(map[string]FieldStatus, 5)
	var (
		balance  *WalletBalance
		txs      []Transaction
		info     *ContractInfo
		token    *TokenBalance
		price    *EthPrice
		priceHit bool
	)

	// Each goroutine writes only its own variables and status slot, joined by Wait.
	type slot struct {
		name string
		st   FieldStatus
	}
	results := make(chan slot, 5)

	var g errgroup.Group
	g.Go(func() error {
		st := p.run(ctx, func(ctx context.Context) (err error) {
			balance, err = p.etherscan.Balance(ctx, wallet)
			return err
		})
		results <- slot{FieldBalance, st}
		return nil
	})
	g.Go(func() error {
		st := p.run(ctx, func(ctx context.Context) (err error) {
			txs, err = p.etherscan.Transactions(ctx, wallet, p.config.TxLimit)
			return err
		})
		results <- slot{FieldTransactions, st}
		return nil
	})
	g.Go(func() error {
		st := p.run(ctx, func(ctx context.Context) (err error) {
			info, err = p.etherscan.Contract(ctx, contract)
			return err
		})
		results <- slot{FieldContract, st}
		return nil
	})
	g.Go(func() error {
		st := p.run(ctx, func(ctx context.Context) (err error) {
			token, err = p.etherscan.TokenBalance(ctx, contract, wallet)
			return err
		})
		results <- slot{FieldTokenBalance, st}
		return nil
	})
	g.Go(func() error {
		st := p.run(ctx, func(ctx context.Context) (err error) {
			price, priceHit, err = p.ethPrice(ctx)
			return err
		})
		results <- slot{FieldPrice, st}
		return nil
	})
	_ = g.Wait()
	close(results)

	for res := range results {
		statuses[res.name] = res.st
	}

	if balance != nil {
		r.Balance = balance
	}
	if txs != nil {
		r.Transactions = txs
	}
	if info != nil {
		r.ContractInfo = info
	}
	if token != nil {
		r.TokenBalance = token
	}

	if price != nil {
		r.Price = price
	} else {
		r.Price = &EthPrice{
			USD:       p.config.FallbackPrice,
			MarketCap: decimal.Zero,
			Volume24h: decimal.Zero,
			Change24h: decimal.Zero,
			FetchedAt: r.FetchedAt,
		}
		st := statuses[FieldPrice]
		st.Status = StatusFallback
		statuses[FieldPrice] = st
	}
	r.Balance.ValueUSD = r.Balance.Ether.Mul(r.Price.USD)

	r.Fields = statuses
	r.APIStatus = map[string]string{
		"etherscan": p.etherscanStatus(statuses),
		"coingecko": APIOperational,
	}
	if statuses[FieldPrice].Status == StatusFallback {
		r.APIStatus["coingecko"] = APIFallback
	}

	p.logger.WithFields(logrus.Fields{
		"wallet":      wallet,
		"contract":    contract,
		"etherscan":   r.APIStatus["etherscan"],
		"coingecko":   r.APIStatus["coingecko"],
		"price_cache": priceHit,
	}).Debug("chain data lookup complete")

	return r, nil
}

// run executes fn under the per-call timeout and classifies its error.
func (p *Proxy) run(ctx context.Context, fn func(ctx context.Context) error) FieldStatus {
	callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	st := FieldStatus{Status: StatusOK, LatencyMs: time.Since(start).Milliseconds()}
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		st.Status = StatusNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		st.Status = StatusFailed
		st.Error = fmt.Sprintf("timed out after %s", p.config.CallTimeout)
	default:
		st.Status = StatusFailed
		st.Error = err.Error()
	}
	return st
}

// ethPrice serves from cache when possible and refreshes it on a miss.
// Cache errors degrade to a live lookup.
func (p *Proxy) ethPrice(ctx context.Context) (*EthPrice, bool, error) {
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, priceCacheKey)
		if err != nil {
			p.logger.WithError(err).Warn("price cache read failed")
		}
		observability.RecordPriceCache(ok)
		if ok {
			return cached, true, nil
		}
	}

	if p.coingecko == nil {
		return nil, false, ErrNotConfigured
	}
	price, err := p.coingecko.EthPrice(ctx)
	if err != nil {
		return nil, false, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, priceCacheKey, price, p.config.PriceTTL); err != nil {
			p.logger.WithError(err).Warn("price cache write failed")
		}
	}
	return price, false, nil
}

func (p *Proxy) etherscanStatus(statuses map[string]FieldStatus) string {
	if !p.etherscan.Configured() {
		return APINotConfigured
	}
	for _, name := range []string{FieldBalance, FieldTransactions, FieldContract, FieldTokenBalance} {
		if statuses[name].Status != StatusOK {
			return APIFallback
		}
	}
	return APIOperational
}

func isAddress(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "0x") && common.IsHexAddress(s)
}
