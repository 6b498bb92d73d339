package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledgerlens/internal/amqp"
	"ledgerlens/internal/config"
	"ledgerlens/internal/log"
	"ledgerlens/internal/mirror"
	"ledgerlens/internal/storage"
	"ledgerlens/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting ledgerlens-worker")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a spreadsheet target the worker records snapshots in memory,
	// which keeps the event pipeline observable in development.
	var exporter mirror.Exporter
	if cfg.MirrorSpreadsheetID != "" {
		client, err := mirror.NewGoogleClient(ctx, mirror.GoogleConfig{
			SpreadsheetID:   cfg.MirrorSpreadsheetID,
			SheetName:       cfg.MirrorSheetName,
			CredentialsFile: cfg.MirrorCredentialsFile,
			CredentialsJSON: cfg.MirrorCredentialsJSON,
			BatchSize:       cfg.MirrorBatchSize,
		})
		if err != nil {
			logger.Error("Failed to initialize spreadsheet mirror", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Spreadsheet mirror initialized",
			"spreadsheet_id", cfg.MirrorSpreadsheetID, "sheet", cfg.MirrorSheetName)
	} else {
		exporter = mirror.NewMemoryExporter()
		logger.Info("No spreadsheet configured, mirroring to memory")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to periodic mirroring", "error", err)
		} else {
			defer amqpClient.Close()
		}
	}

	w := worker.NewMirrorWorker(repo, exporter, cfg.MirrorInterval)

	if err := w.StartupCheck(ctx); err != nil {
		// Keep running; the periodic tick retries.
		logger.Error("Startup mirror check failed", "error", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx, amqpClient) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Worker shutdown complete")
}
