package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diegodinero/orderpanel/internal/domain"
	"github.com/diegodinero/orderpanel/internal/usecase"
	"go.uber.org/zap"
)

// Server exposes the panel over HTTP: a status readout, the trade journal,
// panel settings, and click injection for headless control.
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	panel     *usecase.PanelService
	tradeRepo domain.TradeRepository
	gateway   domain.Gateway
	logger    *zap.Logger
}

func NewServer(
	port int,
	panel *usecase.PanelService,
	tradeRepo domain.TradeRepository,
	gateway domain.Gateway,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		panel:     panel,
		tradeRepo: tradeRepo,
		gateway:   gateway,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Panel state
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Click injection
	s.router.HandleFunc("POST /click", s.handleClick)

	// Settings
	s.router.HandleFunc("POST /settings", s.handleUpdateSettings)

	// Journal
	s.router.HandleFunc("GET /orders", s.handleListOrders)
	s.router.HandleFunc("GET /history", s.handleListHistory)

	// Live positions
	s.router.HandleFunc("GET /positions", s.handleListPositions)
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
