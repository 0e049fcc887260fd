package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/usecase"
	"go.uber.org/zap"
)

// Server exposes the bot's state over HTTP: JSON endpoints for positions,
// trades and the session report, plus the prometheus scrape endpoint.
type Server struct {
	cfg       *config.Config
	router    *http.ServeMux
	server    *http.Server
	trader    *usecase.TraderService
	positions domain.PositionStore
	trades    domain.TradeRepository
	logger    *zap.Logger
}

func NewServer(
	cfg *config.Config,
	trader *usecase.TraderService,
	positions domain.PositionStore,
	trades domain.TradeRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		router:    http.NewServeMux(),
		trader:    trader,
		positions: positions,
		trades:    trades,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: s.router,
	}
	return s
}

// Handler returns the route mux, mainly so tests can drive requests without
// binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /api/status", s.handleStatus)
	s.router.HandleFunc("GET /api/positions", s.handlePositions)
	s.router.HandleFunc("GET /api/trades", s.handleTrades)
	s.router.HandleFunc("GET /api/summary", s.handleSummary)
	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
