package httpapi

import (
	"net/http"

	"funding-ledger/internal/deploy"
	"funding-ledger/internal/fixtures"
	"funding-ledger/internal/tuning"
)

// BlockchainDataRequest is the body of POST /api/blockchain-data.
type BlockchainDataRequest struct {
	Wallet   string `json:"wallet"`
	Contract string `json:"contract"`
}

func (s *Server) handleBlockchainData(w http.ResponseWriter, r *http.Request) {
	var in BlockchainDataRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	report, err := s.proxy.Lookup(r.Context(), in.Wallet, in.Contract)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePrepareDeploy(w http.ResponseWriter, r *http.Request) {
	var in deploy.PrepareRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	tx, err := s.deployer.Prepare(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleSubmitDeploy(w http.ResponseWriter, r *http.Request) {
	var in deploy.SubmitRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.deployer.Submit(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSecureDeploy answers the retired server-side signing endpoint.
func (s *Server) handleSecureDeploy(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, nil); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeErrorMessage(w, http.StatusGone,
		"server-side signing has been removed; build the transaction with POST /api/deploy/prepare, sign it in your wallet, then relay it with POST /api/deploy/submit")
}

func (s *Server) handleFrequencyTune(w http.ResponseWriter, r *http.Request) {
	var in tuning.Request
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.tuner.Tune(in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDiscoverWallets(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, nil); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fixtures.DiscoverWallets(s.now()))
}

func (s *Server) handleCompletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, nil); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fixtures.CompletePortfolio(s.now()))
}

func (s *Server) handleInitializeDiscoveredData(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, nil); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.seeder.Seed(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	status := http.StatusOK
	if res.Seeded {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
