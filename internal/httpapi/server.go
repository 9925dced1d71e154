// Package httpapi exposes the ledger, chain data proxy, deployment relay and
// fixture endpoints over HTTP.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"funding-ledger/internal/chaindata"
	"funding-ledger/internal/deploy"
	"funding-ledger/internal/fixtures"
	"funding-ledger/internal/ledger"
	"funding-ledger/internal/observability"
	"funding-ledger/internal/simulation"
	"funding-ledger/internal/tuning"
)

// SimulationStatus reports simulator state for /status.
type SimulationStatus interface {
	Status() simulation.Status
}

// Options wires the server's dependencies. Ledger is required.
type Options struct {
	Ledger         *ledger.Service
	Proxy          *chaindata.Proxy
	Deployer       *deploy.Deployer
	Tuner          *tuning.Tuner
	Seeder         *fixtures.Seeder
	Hub            *Hub
	Simulation     SimulationStatus // nil when disabled
	StorageBackend string
	AllowedOrigins []string
	Logger         logrus.FieldLogger
	Clock          func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	ledger     *ledger.Service
	proxy      *chaindata.Proxy
	deployer   *deploy.Deployer
	tuner      *tuning.Tuner
	seeder     *fixtures.Seeder
	hub        *Hub
	simulation SimulationStatus
	backend    string
	origins    []string
	logger     logrus.FieldLogger
	now        func() time.Time

	mu        sync.Mutex
	startedAt time.Time
}

// NewServer creates a server. Missing optional dependencies get defaults:
// an unconfigured deployer, the default tuning table and a fresh hub.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger.WithField("component", "http")
	if opts.Deployer == nil {
		opts.Deployer = deploy.NewDeployer(nil, "", opts.Logger)
	}
	if opts.Tuner == nil {
		opts.Tuner = tuning.NewTuner(nil)
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(0, opts.AllowedOrigins, opts.Logger)
	}
	if opts.Seeder == nil {
		opts.Seeder = fixtures.NewSeeder(opts.Ledger, opts.Logger)
	}
	if opts.Proxy == nil {
		opts.Proxy = chaindata.NewProxy(nil, nil, nil, chaindata.DefaultProxyConfig(), opts.Logger)
	}
	if opts.StorageBackend == "" {
		opts.StorageBackend = "memory"
	}

	return &Server{
		ledger:     opts.Ledger,
		proxy:      opts.Proxy,
		deployer:   opts.Deployer,
		tuner:      opts.Tuner,
		seeder:     opts.Seeder,
		hub:        opts.Hub,
		simulation: opts.Simulation,
		backend:    opts.StorageBackend,
		origins:    opts.AllowedOrigins,
		logger:     logger,
		now:        opts.Clock,
		startedAt:  opts.Clock(),
	}
}

// Hub returns the revenue event stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/bots", s.handleListBots)
	mux.HandleFunc("POST /api/bots", s.handleCreateBot)
	mux.HandleFunc("GET /api/bots/{id}", s.handleGetBot)

	mux.HandleFunc("GET /api/revenue-events", s.handleListRevenueEvents)
	mux.HandleFunc("POST /api/revenue-events", s.handleRecordRevenueEvent)
	mux.Handle("GET /api/ws/revenue-events", s.hub)

	mux.HandleFunc("GET /api/funding-sources", s.handleListFundingSources)
	mux.HandleFunc("POST /api/funding-sources", s.handleCreateFundingSource)
	mux.HandleFunc("POST /api/funding-sources/{id}/deactivate", s.handleDeactivateFundingSource)
	mux.HandleFunc("POST /api/funding-sources/{id}/revalue", s.handleRevalueFundingSource)

	mux.HandleFunc("GET /api/lp-positions", s.handleListLpPositions)
	mux.HandleFunc("POST /api/lp-positions", s.handleCreateLpPosition)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/analytics/total-revenue", s.handleTotalRevenue)
	mux.HandleFunc("GET /api/analytics/funding-summary", s.handleFundingSummary)
	mux.HandleFunc("GET /api/analytics/bot-performance", s.handleBotPerformance)

	mux.HandleFunc("POST /api/blockchain-data", s.handleBlockchainData)
	mux.HandleFunc("POST /api/deploy/prepare", s.handlePrepareDeploy)
	mux.HandleFunc("POST /api/deploy/submit", s.handleSubmitDeploy)
	mux.HandleFunc("/api/secure-deploy", s.handleSecureDeploy)

	mux.HandleFunc("POST /api/frequency-tune", s.handleFrequencyTune)
	mux.HandleFunc("POST /api/discover-wallets", s.handleDiscoverWallets)
	mux.HandleFunc("POST /api/complete-portfolio", s.handleCompletePortfolio)
	mux.HandleFunc("POST /api/initialize-discovered-data", s.handleInitializeDiscoveredData)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "route not found")
	})

	var h http.Handler = mux
	h = recoverer(s.logger, h)
	h = cors(s.origins, h)
	h = accessLog(s.logger, h)
	return h
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status            string             `json:"status"`
	Uptime            string             `json:"uptime"`
	StartedAt         time.Time          `json:"startedAt"`
	Storage           string             `json:"storage"`
	StreamSubscribers int                `json:"streamSubscribers"`
	Simulation        *simulation.Status `json:"simulation,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started := s.startedAt
	s.mu.Unlock()

	resp := StatusResponse{
		Status:            "running",
		Uptime:            s.now().Sub(started).Round(time.Second).String(),
		StartedAt:         started,
		Storage:           s.backend,
		StreamSubscribers: s.hub.Count(),
	}
	if s.simulation != nil {
		st := s.simulation.Status()
		resp.Simulation = &st
	}
	writeJSON(w, http.StatusOK, resp)
}
