package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerlens/internal/amqp"
	"ledgerlens/internal/config"
	"ledgerlens/internal/core"
	"ledgerlens/internal/csvio"
	apphttp "ledgerlens/internal/http"
	"ledgerlens/internal/log"
	"ledgerlens/internal/services"
	"ledgerlens/internal/storage"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	staticMapping := loadStaticMapping(logger, cfg.MappingFile)

	// AMQP is optional; without it the mirror worker relies on its periodic
	// fallback instead of events.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without dataset events", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:     ":" + cfg.Port,
		CacheTTL: cfg.CacheTTL,
	},
		services.NewDashboardService(repo, staticMapping),
		services.NewImportService(repo, publisher),
		services.NewInsightService(repo, repo, cfg.AnomalyDeviationRatio),
		services.NewBudgetService(repo, repo),
		logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting ledgerlens server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func loadStaticMapping(logger *log.Logger, path string) *core.CategoryMapping {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open category mapping file", "error", err, "path", path)
		return nil
	}
	defer f.Close()

	mapping, err := csvio.ReadMapping(f)
	if err != nil {
		logger.Warn("Failed to parse category mapping file", "error", err, "path", path)
		return nil
	}
	logger.Info("Loaded category mapping", "path", path, "categories", len(mapping.Categories()))
	return mapping
}
