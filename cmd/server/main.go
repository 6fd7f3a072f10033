package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/reelcut/reelcut-server/internal/analysis"
	"github.com/reelcut/reelcut-server/internal/api"
	"github.com/reelcut/reelcut-server/internal/config"
	"github.com/reelcut/reelcut-server/internal/highlights"
	"github.com/reelcut/reelcut-server/internal/logging"
	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/oracle"
	"github.com/reelcut/reelcut-server/internal/project"
	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/session"
	"github.com/reelcut/reelcut-server/internal/staging"
	"github.com/reelcut/reelcut-server/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting reelcut server", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := metastore.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := metastore.NewRepository(database.Conn())

	var store storage.BlobStore
	if cfg.StorageURL() != "" {
		store = storage.NewHTTPStore(cfg.StorageURL(), cfg.StorageToken(), logger)
		logger.Info("using remote blob store", "base_url", cfg.StorageURL())
	} else {
		root := filepath.Join(cfg.DataDir(), "blobs")
		if err := os.MkdirAll(root, 0755); err != nil {
			return fmt.Errorf("failed to create blob dir: %w", err)
		}
		store = storage.NewLocalStore(root, logger)
		logger.Info("using local blob store", "root", logging.SanitizePath(root))
	}

	var orc oracle.Oracle
	if cfg.OracleURL() != "" {
		orc = oracle.NewHTTPClient(cfg.OracleURL(), cfg.OracleKey(), logger)
		logger.Info("using remote oracle", "base_url", cfg.OracleURL())
	} else {
		orc = oracle.NewStub(logger)
		logger.Warn("no oracle configured, using stub responses")
	}

	enc := render.NewFFmpegEncoder(cfg.FFmpegPath(), cfg.FFprobePath(), logging.WithComponent(logger, "render"))
	stager := staging.NewStager(store, enc, cfg.StageConcurrency(), logging.WithComponent(logger, "staging"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		AuthToken:  cfg.AuthToken(),
		Store:      store,
		Repository: repo,
		Analysis:   analysis.NewService(store, repo, stager, enc, orc, logging.WithComponent(logger, "analysis")),
		Projects:   project.NewService(store, repo, stager, enc, logging.WithComponent(logger, "project")),
		Highlights: highlights.NewService(repo, orc, logging.WithComponent(logger, "highlights")),
		Sessions: session.NewStore(repo, orc, session.DefaultMaxSessions, session.DefaultTTL,
			logging.WithComponent(logger, "session")),
		Logger:    logger,
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
