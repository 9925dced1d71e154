package chaindata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"funding-ledger/internal/observability"
)

// DefaultCoinGeckoURL is the public CoinGecko API endpoint.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// EthPrice is the ETH/USD market snapshot.
type EthPrice struct {
	USD       decimal.Decimal `json:"usd"`
	MarketCap decimal.Decimal `json:"marketCap"`
	Volume24h decimal.Decimal `json:"volume24h"`
	Change24h decimal.Decimal `json:"change24h"` // percent
	FetchedAt time.Time       `json:"fetchedAt"`
}

// CoinGecko is a price client. The API key is optional.
type CoinGecko struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewCoinGecko creates a client.
func NewCoinGecko(httpClient *HTTPClient, baseURL, apiKey string) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

type simplePrice struct {
	USD          *float64 `json:"usd"`
	USDMarketCap float64  `json:"usd_market_cap"`
	USD24hVol    float64  `json:"usd_24h_vol"`
	USD24hChange float64  `json:"usd_24h_change"`
}

// EthPrice fetches the current ETH price in USD.
func (c *CoinGecko) EthPrice(ctx context.Context) (*EthPrice, error) {
	q := url.Values{
		"ids":                 {"ethereum"},
		"vs_currencies":       {"usd"},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
		"include_24hr_change": {"true"},
	}
	if c.apiKey != "" {
		q.Set("x_cg_demo_api_key", c.apiKey)
	}

	start := time.Now()
	var resp map[string]simplePrice
	err := c.http.GetJSON(ctx, c.baseURL+"/simple/price", q, &resp)
	if err == nil {
		if p, ok := resp["ethereum"]; !ok || p.USD == nil {
			err = fmt.Errorf("coingecko: ethereum price missing from response")
		}
	}
	observability.RecordUpstreamCall("coingecko", "simple_price", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	p := resp["ethereum"]
	return &EthPrice{
		USD:       decimal.NewFromFloat(*p.USD),
		MarketCap: decimal.NewFromFloat(p.USDMarketCap),
		Volume24h: decimal.NewFromFloat(p.USD24hVol),
		Change24h: decimal.NewFromFloat(p.USD24hChange),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// MarshalBinary lets go-redis store EthPrice values.
func (p *EthPrice) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}
