package httpapi

import (
	"net/http"

	"funding-ledger/internal/ledger"
)

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	bots, err := s.ledger.ListBots(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bots))
}

func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.ledger.GetBot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request) {
	var in ledger.BotInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	bot, err := s.ledger.CreateBot(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bot)
}

func (s *Server) handleListRevenueEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.ledger.ListRevenueEvents(r.Context(), r.URL.Query().Get("botId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (s *Server) handleRecordRevenueEvent(w http.ResponseWriter, r *http.Request) {
	var in ledger.RevenueEventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	event, err := s.ledger.RecordRevenueEvent(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleListFundingSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.ledger.ListFundingSources(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sources))
}

func (s *Server) handleCreateFundingSource(w http.ResponseWriter, r *http.Request) {
	var in ledger.FundingSourceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	src, err := s.ledger.CreateFundingSource(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

func (s *Server) handleDeactivateFundingSource(w http.ResponseWriter, r *http.Request) {
	if err := decodeJSON(w, r, nil); err != nil {
		writeError(w, s.logger, err)
		return
	}
	src, err := s.ledger.DeactivateFundingSource(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleRevalueFundingSource(w http.ResponseWriter, r *http.Request) {
	var in ledger.RevalueInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	src, err := s.ledger.RevalueFundingSource(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleListLpPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.ledger.ListLpPositions(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(positions))
}

func (s *Server) handleCreateLpPosition(w http.ResponseWriter, r *http.Request) {
	var in ledger.LpPositionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	pos, err := s.ledger.CreateLpPosition(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.ledger.Analytics(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleTotalRevenue(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.RevenueTotals(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleFundingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.FundingSummary(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBotPerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.BotPerformance(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}
