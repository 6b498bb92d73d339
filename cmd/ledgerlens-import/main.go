// Command ledgerlens-import loads a ledger CSV into the database, or dumps
// the database back to CSV, without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ledgerlens/internal/config"
	"ledgerlens/internal/log"
	"ledgerlens/internal/services"
	"ledgerlens/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: log.ComponentImport})
	log.SetDefault(logger)

	importPath := flag.String("import", "", "CSV file to import; replaces the whole ledger")
	exportPath := flag.String("export", "", "write the ledger as CSV to this file ('-' for stdout)")
	flag.Parse()

	if (*importPath == "") == (*exportPath == "") {
		fmt.Fprintln(os.Stderr, "usage: ledgerlens-import -import FILE | -export FILE")
		os.Exit(2)
	}

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

	// No publisher: CLI runs are one-shot and the worker's periodic mirror
	// picks the change up.
	svc := services.NewImportService(repo, nil)
	ctx := context.Background()

	if *importPath != "" {
		f, err := os.Open(*importPath)
		if err != nil {
			logger.Error("Failed to open import file", "error", err, "path", *importPath)
			os.Exit(1)
		}
		defer f.Close()

		report, err := svc.Import(ctx, f)
		if err != nil {
			logger.Error("Import failed", "error", err, "path", *importPath)
			os.Exit(1)
		}
		logger.Info("Import complete",
			"rows", report.Rows,
			"invalid_dates", report.InvalidDates,
			"invalid_amounts", report.InvalidAmount)
		return
	}

	out := os.Stdout
	if *exportPath != "-" {
		f, err := os.Create(*exportPath)
		if err != nil {
			logger.Error("Failed to create export file", "error", err, "path", *exportPath)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := svc.Export(ctx, out); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Export complete", "path", *exportPath)
}
