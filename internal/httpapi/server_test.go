package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funding-ledger/internal/ledger"
	"funding-ledger/internal/storage/memory"
)

const (
	walletA = "0x742d35cc6634c0532925a3b8d295759d4c1d5d5f"
	walletB = "0x058c8fe01e5c9eac6ee19e6673673b549b368843"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server *httptest.Server
	api    *Server
	svc    *ledger.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(4, nil, logger)
	seq := 0
	svc := ledger.NewService(memory.NewLedger(),
		ledger.WithClock(func() time.Time { return t0 }),
		ledger.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
		ledger.WithPublisher(hub),
		ledger.WithLogger(logger),
	)
	api := NewServer(Options{
		Ledger: svc,
		Hub:    hub,
		Logger: logger,
		Clock:  func() time.Time { return t0 },
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &testEnv{server: srv, api: api, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

func (e *testEnv) createBot(t *testing.T) string {
	t.Helper()
	status, data := e.do(t, http.MethodPost, "/api/bots",
		`{"name":"LP Bot","type":"liquidity_provider","walletAddress":"`+walletA+`"}`)
	require.Equal(t, http.StatusCreated, status, string(data))
	return decode(t, data)["id"].(string)
}

func TestBots_CreateGetList(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodGet, "/api/bots", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))

	id := env.createBot(t)

	status, data = env.do(t, http.MethodGet, "/api/bots/"+id, "")
	require.Equal(t, http.StatusOK, status)
	bot := decode(t, data)
	assert.Equal(t, "LP Bot", bot["name"])
	assert.Equal(t, "active", bot["status"])
	assert.Equal(t, "0", bot["totalRevenue"])

	status, data = env.do(t, http.MethodGet, "/api/bots", "")
	assert.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 1)
}

func TestBots_UnknownIDIs404(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodGet, "/api/bots/ghost", "")
	assert.Equal(t, http.StatusNotFound, status)
	body := decode(t, data)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestBots_InvalidInputIs400(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/bots", `{"name":"","walletAddress":"`+walletA+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, decode(t, data)["success"])

	status, _ = env.do(t, http.MethodPost, "/api/bots", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRevenueEvents_RecordUpdatesTotals(t *testing.T) {
	env := newTestEnv(t)
	id := env.createBot(t)

	for i, amount := range []string{"0.1", "0.25"} {
		body := fmt.Sprintf(`{"botId":%q,"transactionHash":"0x%064d","amount":%q,"eventType":"trading_fee"}`, id, i, amount)
		status, data := env.do(t, http.MethodPost, "/api/revenue-events", body)
		require.Equal(t, http.StatusCreated, status, string(data))
	}

	status, data := env.do(t, http.MethodGet, "/api/bots/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.35", decode(t, data)["totalRevenue"])

	status, data = env.do(t, http.MethodGet, "/api/revenue-events?botId="+id, "")
	require.Equal(t, http.StatusOK, status)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(data, &events))
	assert.Len(t, events, 2)

	status, _ = env.do(t, http.MethodGet, "/api/revenue-events?botId=ghost", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRevenueEvents_DuplicateIs409(t *testing.T) {
	env := newTestEnv(t)
	id := env.createBot(t)
	body := fmt.Sprintf(`{"botId":%q,"transactionHash":"0xabc","amount":"1","timestamp":"2024-05-01T10:00:00Z"}`, id)

	status, _ := env.do(t, http.MethodPost, "/api/revenue-events", body)
	require.Equal(t, http.StatusCreated, status)

	status, data := env.do(t, http.MethodPost, "/api/revenue-events", body)
	assert.Equal(t, http.StatusConflict, status, string(data))
}

func TestAnalytics_PortfolioScenario(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"name":"Foundation Wallet","type":"wallet","walletAddress":"` + walletA + `","estimatedValue":"50324.87","availableForLiquidation":"50324.87"}`,
		`{"name":"LP Token Portfolio","type":"lp_token","walletAddress":"` + walletB + `","estimatedValue":"25680.45","availableForLiquidation":"20000.00"}`,
	} {
		status, data := env.do(t, http.MethodPost, "/api/funding-sources", body)
		require.Equal(t, http.StatusCreated, status, string(data))
	}

	status, data := env.do(t, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, status)
	a := decode(t, data)
	assert.Equal(t, "76005.32", a["totalValue"])
	assert.Equal(t, "70324.87", a["liquidationValue"])
	assert.Equal(t, float64(2), a["sourceCount"])

	status, data = env.do(t, http.MethodGet, "/api/analytics/funding-summary", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "76005.32", decode(t, data)["totalValue"])

	status, _ = env.do(t, http.MethodGet, "/api/analytics/total-revenue", "")
	assert.Equal(t, http.StatusOK, status)
	status, data = env.do(t, http.MethodGet, "/api/analytics/bot-performance", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFundingSources_AvailableAboveEstimatedIs400(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/funding-sources",
		`{"name":"x","type":"wallet","walletAddress":"`+walletA+`","estimatedValue":"10","availableForLiquidation":"11"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFundingSources_RevalueAndDeactivate(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/funding-sources",
		`{"name":"x","type":"wallet","walletAddress":"`+walletA+`","estimatedValue":"10","availableForLiquidation":"5"}`)
	require.Equal(t, http.StatusCreated, status)
	id := decode(t, data)["id"].(string)

	status, data = env.do(t, http.MethodPost, "/api/funding-sources/"+id+"/revalue",
		`{"estimatedValue":"12.5","availableForLiquidation":"12.5"}`)
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, "12.5", decode(t, data)["estimatedValue"])

	status, data = env.do(t, http.MethodPost, "/api/funding-sources/"+id+"/deactivate", "")
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, false, decode(t, data)["isActive"])

	status, _ = env.do(t, http.MethodPost, "/api/funding-sources/ghost/deactivate", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLpPositions_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	id := env.createBot(t)

	status, data := env.do(t, http.MethodPost, "/api/lp-positions", fmt.Sprintf(
		`{"botId":%q,"walletAddress":%q,"tokenAddress":%q,"protocol":"uniswap_v2","pairInfo":"ETH/USDC","balance":"1","estimatedValue":"100"}`,
		id, walletA, walletB))
	require.Equal(t, http.StatusCreated, status, string(data))

	status, data = env.do(t, http.MethodGet, "/api/lp-positions", "")
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 1)
}

func TestPrivateKeyBodiesRejected(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{"/api/secure-deploy", "/api/deploy/prepare", "/api/deploy/submit", "/api/bots"}
	bodies := []string{
		`{"privateKey":"0x4c0883a69102937d6231471b5dbb6204fe512961708279f2e3e8a5d4b8e3e3e3"}`,
		`{"wallet":{"private_key":"abc"}}`,
		`[{"PrivateKey":"abc"}]`,
	}
	for _, path := range paths {
		for _, body := range bodies {
			status, data := env.do(t, http.MethodPost, path, body)
			assert.Equal(t, http.StatusBadRequest, status, "%s %s", path, body)
			assert.Contains(t, decode(t, data)["error"], "private keys")
		}
	}
}

func TestSecureDeployIsGone(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/secure-deploy", `{"bytecode":"0x60"}`)
	assert.Equal(t, http.StatusGone, status)
	assert.Contains(t, decode(t, data)["error"], "/api/deploy/prepare")
}

func TestDeployNotConfiguredIs503(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/deploy/prepare", `{"from":"`+walletA+`","bytecode":"0x60"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestBlockchainData_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/blockchain-data",
		`{"wallet":"`+walletA+`","contract":"`+walletB+`"}`)
	require.Equal(t, http.StatusOK, status, string(data))
	report := decode(t, data)
	apiStatus := report["apiStatus"].(map[string]any)
	assert.Equal(t, "not_configured", apiStatus["etherscan"])
	assert.Equal(t, "fallback", apiStatus["coingecko"])

	status, _ = env.do(t, http.MethodPost, "/api/blockchain-data", `{"wallet":"nope","contract":"`+walletB+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFrequencyTune(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/frequency-tune", `{"frequency":528,"amplitude":0,"waveType":"sine"}`)
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, "23.7015", decode(t, data)["enhancedFunding"])

	status, _ = env.do(t, http.MethodPost, "/api/frequency-tune", `{"frequency":528,"amplitude":2}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFixtures(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/discover-wallets", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode(t, data)["illustrative"])

	status, _ = env.do(t, http.MethodPost, "/api/complete-portfolio", "{}")
	assert.Equal(t, http.StatusOK, status)

	status, data = env.do(t, http.MethodPost, "/api/initialize-discovered-data", "")
	require.Equal(t, http.StatusCreated, status, string(data))
	assert.Equal(t, true, decode(t, data)["seeded"])

	status, data = env.do(t, http.MethodPost, "/api/initialize-discovered-data", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, decode(t, data)["seeded"])
}

func TestHealthStatusMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(data))

	status, data = env.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, status)
	st := decode(t, data)
	assert.Equal(t, "running", st["status"])
	assert.Equal(t, "memory", st["storage"])

	// Generate at least one labeled request before scraping.
	env.do(t, http.MethodGet, "/api/bots", "")
	status, data = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "funding_ledger_http_requests_total")
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, decode(t, data)["success"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/bots", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRevenueStream_PushesRecordedEvents(t *testing.T) {
	env := newTestEnv(t)
	id := env.createBot(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/ws/revenue-events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.api.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)

	_, err = env.svc.RecordRevenueEvent(context.Background(), ledger.RevenueEventInput{
		BotID:           id,
		TransactionHash: "0xfeed",
		Amount:          "0.42",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &frame))
	assert.Equal(t, "revenue_event", frame.Type)
	assert.Equal(t, "0.42", frame.Data["amount"])
	assert.Equal(t, id, frame.Data["botId"])
}

func TestRevenueStream_DropsSlowSubscriber(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(1, nil, logger)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	// The client never reads, so the buffer fills and the hub drops it.
	big := bytes.Repeat([]byte("x"), 1<<16)
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		for c := range hub.clients {
			select {
			case c.send <- big:
			default:
			}
		}
		hub.mu.Unlock()
		hub.Publish(nil)
		return hub.Count() == 0
	}, 5*time.Second, 5*time.Millisecond)
}
