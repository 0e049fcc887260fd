package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := s.trader.Report()
	equity, err := s.trader.Equity(r.Context())
	if err != nil {
		s.logger.Warn("failed to compute equity for status", zap.Error(err))
	}
	s.writeJSON(w, map[string]any{
		"report":         report,
		"equity":         equity,
		"open_positions": len(s.positions.List()),
		"config":         s.configSnapshot(),
	})
}

// configSnapshot is the running configuration minus the credentials.
func (s *Server) configSnapshot() map[string]any {
	return map[string]any{
		"mode":     s.cfg.Exchange.Mode,
		"testnet":  s.cfg.Exchange.Testnet,
		"pairs":    s.cfg.Pairs,
		"polling":  s.cfg.Polling,
		"strategy": s.cfg.Strategy,
		"risk":     s.cfg.Risk,
	}
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.positions.List())
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trades, err := s.trades.ListTrades(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list trades", zap.Error(err))
		http.Error(w, "failed to list trades", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, trades)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.trades.SummarizeBySymbol(r.Context())
	if err != nil {
		s.logger.Error("failed to summarize trades", zap.Error(err))
		http.Error(w, "failed to summarize trades", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
