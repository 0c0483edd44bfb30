package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaki95/studio-eighty7/config"
	"github.com/jaki95/studio-eighty7/internal/contact"
	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/generation"
	"github.com/jaki95/studio-eighty7/internal/logging"
	"github.com/jaki95/studio-eighty7/internal/migrate"
	"github.com/jaki95/studio-eighty7/internal/ratelimit"
	"github.com/jaki95/studio-eighty7/internal/server"
	"github.com/jaki95/studio-eighty7/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the YAML config file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file")
	port := flag.String("port", "", "Server port (overrides config and PORT)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Resolve(*configPath, *envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Setup logging
	logger, closer := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newRateLimitStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gemini, err := generation.NewGeminiClient(cfg.Gemini.APIKey,
		generation.WithBaseURL(cfg.Gemini.BaseURL),
		generation.WithModel(cfg.Gemini.Model),
		generation.WithHTTPClient(&http.Client{Timeout: cfg.Gemini.Timeout}),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}

	source := content.NewWordPressSource(cfg.Content.BaseURL,
		content.WithHTTPClient(&http.Client{Timeout: cfg.Content.Timeout}),
		content.WithResolveLimit(cfg.Content.ResolveLimit),
		content.WithLogger(logger),
	)
	fetcher := content.NewFetcher(source, logger).WithCacheTTL(cfg.Content.CacheTTL)

	deliverer, closeArchive, err := newDeliverer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	srv, err := server.New(cfg, server.Deps{
		Generator:       generation.NewService(gemini, logger),
		Contact:         contact.NewService(deliverer, logger),
		Content:         fetcher,
		GenerateLimiter: ratelimit.New(store, ratelimit.GeneratePolicy),
		ContactLimiter:  ratelimit.New(store, ratelimit.ContactPolicy),
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}

// newRateLimitStore uses PostgreSQL when a DSN is configured so limits hold
// across instances, and process memory otherwise.
func newRateLimitStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RateLimit.DSN == "" {
		mem := ratelimit.NewMemoryStore()
		server.StartSweeper(ctx, mem, cfg.RateLimit.SweepInterval)
		return mem, func() {}, nil
	}

	if err := migrate.Up(ctx, cfg.RateLimit.DSN); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate rate limit schema: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.RateLimit.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rate limit database: %w", err)
	}
	slog.Info("Using PostgreSQL rate limit store")
	return ratelimit.NewPGStore(pool), pool.Close, nil
}

func newDeliverer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (contact.Deliverer, func(), error) {
	logDeliverer := contact.LogDeliverer{Logger: logger}
	if cfg.Contact.Archive == "" || cfg.Contact.Archive == "log" {
		return logDeliverer, func() {}, nil
	}

	archive, err := storage.New(ctx, storage.Config{
		Type:            cfg.Contact.Archive,
		Dir:             cfg.Contact.ArchiveDir,
		Bucket:          cfg.Contact.Bucket,
		ObjectPrefix:    cfg.Contact.ObjectPrefix,
		CredentialsFile: cfg.Contact.CredentialsFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open contact archive: %w", err)
	}
	slog.Info("Archiving contact submissions", "archive", cfg.Contact.Archive)

	closeArchive := func() {
		if err := archive.Close(); err != nil {
			slog.Warn("Failed to close contact archive", "error", err)
		}
	}
	return contact.MultiDeliverer{logDeliverer, contact.ArchiveDeliverer{Archive: archive}}, closeArchive, nil
}
