package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smbops/invoice-copilot/api"
	"github.com/smbops/invoice-copilot/internal/ai"
	"github.com/smbops/invoice-copilot/internal/auth"
	"github.com/smbops/invoice-copilot/internal/config"
	"github.com/smbops/invoice-copilot/internal/db"
	"github.com/smbops/invoice-copilot/internal/document"
	"github.com/smbops/invoice-copilot/internal/extract"
	"github.com/smbops/invoice-copilot/internal/intent"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/services"
	"github.com/smbops/invoice-copilot/internal/storage"
	"github.com/smbops/invoice-copilot/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server.exit", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *models.Config, logger *slog.Logger) error {
	docs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	logger.Info("storage.ready", "backend", docs.Backend())

	// The journal is optional; without it uploads live only in memory.
	var (
		journal       *db.Journal
		uploadJournal services.Journal
		journalStatus api.JournalStatus
	)
	pool, err := db.Connect(ctx, cfg.Database.URL, logger)
	switch {
	case errors.Is(err, db.ErrNoDatabase):
		logger.Info("db.disabled")
	case err != nil:
		logger.Warn("db.unavailable", "error", err)
	default:
		journal = db.NewJournal(pool, logger)
		defer journal.Close()
		if err := journal.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("init journal schema: %w", err)
		}
		uploadJournal = journal
		journalStatus = journal
	}

	invoices, err := store.New(cfg.Store.Mode)
	if err != nil {
		return err
	}
	strategy, err := extract.New(cfg.Extraction, invoices, logger)
	if err != nil {
		return err
	}

	var model *ai.Adapter
	provider, err := ai.NewProvider(cfg.AI, "")
	if err != nil {
		logger.Warn("ai.disabled", "provider", cfg.AI.DefaultProvider, "error", err)
	} else {
		model = ai.NewAdapter(provider, cfg.AI.Timeout, logger)
	}

	authService := auth.NewService(cfg.Auth)
	if !authService.Enabled() {
		logger.Warn("auth.disabled", "reason", "no JWT secret configured")
	}

	handler := api.NewHandler(cfg, api.Deps{
		Uploads: services.NewUploadService(docs, document.NewExtractor(logger), strategy, invoices, uploadJournal, logger),
		Router:  intent.NewRouter(invoices, model, logger),
		Store:   invoices,
		Storage: docs,
		Model:   model,
		Auth:    authService,
		Journal: journalStatus,
		Logger:  logger,
	})

	// Wrap router with JWT middleware (skips /health and /api/login)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           authService.JWTMiddleware(handler.SetupRoutes()),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	logger.Info("server.start",
		"addr", srv.Addr,
		"version", api.Version,
		"store", invoices.Mode(),
		"extraction", strategy.Name(),
		"ai_provider", model.Provider(),
		"database", journal != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
