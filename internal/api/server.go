package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reelcut/reelcut-server/internal/analysis"
	"github.com/reelcut/reelcut-server/internal/highlights"
	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/project"
	"github.com/reelcut/reelcut-server/internal/session"
	"github.com/reelcut/reelcut-server/internal/storage"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	AuthToken  string
	Store      storage.BlobStore
	Repository metastore.Repository
	Analysis   *analysis.Service
	Projects   *project.Service
	Highlights *highlights.Service
	Sessions   *session.Store
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.AuthToken == "" {
		cfg.Logger.Warn("no auth token configured, API is unauthenticated")
	}
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
