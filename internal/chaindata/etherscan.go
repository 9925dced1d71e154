package chaindata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"funding-ledger/internal/observability"
)

// DefaultEtherscanURL is the Etherscan API endpoint.
const DefaultEtherscanURL = "https://api.etherscan.io/api"

// ErrNotConfigured is returned when a provider has no credentials.
var ErrNotConfigured = errors.New("not configured")

// etherscanResponse is the envelope every Etherscan endpoint returns.
type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// EtherscanError is a status "0" reply.
type EtherscanError struct {
	Message string
	Result  string
}

func (e *EtherscanError) Error() string {
	if e.Result != "" {
		return fmt.Sprintf("etherscan: %s: %s", e.Message, e.Result)
	}
	return "etherscan: " + e.Message
}

// Etherscan is a rate-limited Etherscan API client.
type Etherscan struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewEtherscan creates a client. ratePerSecond <= 0 disables throttling.
func NewEtherscan(httpClient *HTTPClient, baseURL, apiKey string, ratePerSecond float64) *Etherscan {
	if baseURL == "" {
		baseURL = DefaultEtherscanURL
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Etherscan{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether an API key is set.
func (c *Etherscan) Configured() bool {
	return c != nil && c.apiKey != ""
}

// call runs one module/action query and returns the raw result.
// "No transactions found" is treated as an empty success.
func (c *Etherscan) call(ctx context.Context, module, action string, params url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("module", module)
	q.Set("action", action)
	q.Set("apikey", c.apiKey)

	start := time.Now()
	var resp etherscanResponse
	err := c.http.GetJSON(ctx, c.baseURL, q, &resp)
	if err == nil && resp.Status != "1" && !strings.HasPrefix(resp.Message, "No transactions found") {
		var result string
		_ = json.Unmarshal(resp.Result, &result)
		err = &EtherscanError{Message: resp.Message, Result: result}
	}
	observability.RecordUpstreamCall("etherscan", action, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// WalletBalance is a native ETH balance.
type WalletBalance struct {
	Wei      string          `json:"wei"`
	Ether    decimal.Decimal `json:"ether"`
	ValueUSD decimal.Decimal `json:"valueUsd"`
}

// Balance returns the wallet's ETH balance.
func (c *Etherscan) Balance(ctx context.Context, wallet string) (*WalletBalance, error) {
	raw, err := c.call(ctx, "account", "balance", url.Values{
		"address": {wallet},
		"tag":     {"latest"},
	})
	if err != nil {
		return nil, err
	}

	var weiStr string
	if err := json.Unmarshal(raw, &weiStr); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	wei, ok := new(big.Int).SetString(weiStr, 10)
	if !ok {
		return nil, fmt.Errorf("decode balance: %q is not an integer", weiStr)
	}
	return &WalletBalance{
		Wei:      wei.String(),
		Ether:    WeiToEther(wei),
		ValueUSD: decimal.Zero,
	}, nil
}

// Transaction is one entry of an account's transaction list.
type Transaction struct {
	Hash        string          `json:"hash"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   time.Time       `json:"timestamp"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Value       decimal.Decimal `json:"value"` // ether
	GasUsed     string          `json:"gasUsed"`
	GasPrice    string          `json:"gasPrice"`
	IsError     bool            `json:"isError"`
}

type etherscanTx struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	GasUsed     string `json:"gasUsed"`
	GasPrice    string `json:"gasPrice"`
	IsError     string `json:"isError"`
}

// Transactions returns the wallet's latest transactions, newest first.
func (c *Etherscan) Transactions(ctx context.Context, wallet string, limit int) ([]Transaction, error) {
	raw, err := c.call(ctx, "account", "txlist", url.Values{
		"address":    {wallet},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {"1"},
		"offset":     {strconv.Itoa(limit)},
		"sort":       {"desc"},
	})
	if err != nil {
		return nil, err
	}

	var rows []etherscanTx
	if err := json.Unmarshal(raw, &rows); err != nil {
		// "No transactions found" carries an empty array, anything else is malformed
		return nil, fmt.Errorf("decode txlist: %w", err)
	}

	txs := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		block, _ := strconv.ParseUint(r.BlockNumber, 10, 64)
		sec, _ := strconv.ParseInt(r.TimeStamp, 10, 64)
		wei, ok := new(big.Int).SetString(r.Value, 10)
		if !ok {
			wei = new(big.Int)
		}
		txs = append(txs, Transaction{
			Hash:        r.Hash,
			BlockNumber: block,
			Timestamp:   time.Unix(sec, 0).UTC(),
			From:        r.From,
			To:          r.To,
			Value:       WeiToEther(wei),
			GasUsed:     r.GasUsed,
			GasPrice:    r.GasPrice,
			IsError:     r.IsError == "1",
		})
		if limit > 0 && len(txs) == limit {
			break
		}
	}
	return txs, nil
}

// ContractInfo is the verification state of a contract.
type ContractInfo struct {
	Address         string `json:"address"`
	Verified        bool   `json:"verified"`
	ContractName    string `json:"contractName,omitempty"`
	CompilerVersion string `json:"compilerVersion,omitempty"`
	HasABI          bool   `json:"hasAbi"`
}

type etherscanSource struct {
	SourceCode      string `json:"SourceCode"`
	ABI             string `json:"ABI"`
	ContractName    string `json:"ContractName"`
	CompilerVersion string `json:"CompilerVersion"`
}

// Contract returns verification data. A contract is verified iff its source is published.
func (c *Etherscan) Contract(ctx context.Context, contract string) (*ContractInfo, error) {
	raw, err := c.call(ctx, "contract", "getsourcecode", url.Values{"address": {contract}})
	if err != nil {
		return nil, err
	}

	var rows []etherscanSource
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode getsourcecode: %w", err)
	}

	info := &ContractInfo{Address: contract}
	if len(rows) > 0 {
		src := rows[0]
		info.Verified = strings.TrimSpace(src.SourceCode) != ""
		info.ContractName = src.ContractName
		info.CompilerVersion = src.CompilerVersion
		info.HasABI = src.ABI != "" && !strings.HasPrefix(src.ABI, "Contract source code not verified")
	}
	return info, nil
}

// TokenBalance is a wallet's raw ERC-20 balance in the token's base units.
type TokenBalance struct {
	Contract string `json:"contract"`
	Raw      string `json:"raw"`
}

// TokenBalance returns wallet's balance of the token at contract.
func (c *Etherscan) TokenBalance(ctx context.Context, contract, wallet string) (*TokenBalance, error) {
	raw, err := c.call(ctx, "account", "tokenbalance", url.Values{
		"contractaddress": {contract},
		"address":         {wallet},
		"tag":             {"latest"},
	})
	if err != nil {
		return nil, err
	}

	var units string
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, fmt.Errorf("decode tokenbalance: %w", err)
	}
	return &TokenBalance{Contract: contract, Raw: units}, nil
}

// WeiToEther converts wei to an exact ether amount.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}
