package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/astraforge/engine/internal/domain"
	"github.com/astraforge/engine/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router      *http.ServeMux
	server      *http.Server
	trades      *usecase.TradeService
	progression *usecase.ProgressionEngine
	ranking     domain.RankingStore
	hub         *Hub
	logger      *zap.Logger
}

func NewServer(
	port int,
	trades *usecase.TradeService,
	progression *usecase.ProgressionEngine,
	ranking domain.RankingStore,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:      http.NewServeMux(),
		trades:      trades,
		progression: progression,
		ranking:     ranking,
		hub:         hub,
		logger:      logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Trading
	s.router.HandleFunc("POST /api/trade", s.handlePlaceTrade)
	s.router.HandleFunc("GET /api/trades", s.handleListTrades)

	// Player progression
	s.router.HandleFunc("GET /api/player/{id}", s.handleGetPlayer)
	s.router.HandleFunc("POST /api/player/{id}/upgrade", s.handleUpgradeNode)
	s.router.HandleFunc("POST /api/player/{id}/forgers", s.handleBuyForger)

	// Leaderboard
	s.router.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	// Live notifications
	s.router.HandleFunc("GET /ws", s.hub.HandleWS)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
