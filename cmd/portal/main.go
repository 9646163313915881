package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/api"
	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/cleanup"
	"github.com/terra-clan/assessment-portal/internal/config"
	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/services"
	"github.com/terra-clan/assessment-portal/internal/session"
	"github.com/terra-clan/assessment-portal/internal/storage"
	"github.com/terra-clan/assessment-portal/pkg/client"
	"github.com/terra-clan/assessment-portal/pkg/logger"
)

func main() {
	log.Logger = logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Logger = logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, false)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("api", cfg.API.BaseURL).
		Str("sessions", cfg.Sessions.Backend).
		Msg("Starting assessment portal")

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	store, purger, closeStore, err := openStore(initCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	log.Info().Str("backend", cfg.Sessions.Backend).Msg("Session store ready")

	health := services.NewRegistry(5 * time.Second)
	probe := client.NewClient(cfg.API.BaseURL, nil, client.WithTimeout(5*time.Second))
	health.Register("api", services.CheckFunc(probe.Ping))
	health.Register("sessions", services.CheckFunc(store.Ping))

	drafts := authoring.NewLibrary()
	if err := drafts.LoadFromDir(cfg.Drafts.Dir); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Drafts.Dir).Msg("Failed to load draft library")
	}

	exams := exam.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := cleanup.NewSweeper(exams, cfg.Exams.IdleTimeout, cfg.Exams.SweepInterval, purger)
	sweeper.Start(ctx)

	server := api.NewServer(cfg, store, exams, health, drafts)
	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	exams.Close()

	if err := closeStore(); err != nil {
		log.Error().Err(err).Msg("Session store close error")
	}

	log.Info().Msg("Assessment portal stopped")
}

// openStore builds the configured session backend. The purger is nil for
// backends that expire entries on their own or never expire them.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, cleanup.Purger, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Sessions.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil, noop, nil

	case config.BackendFile:
		return session.NewFileStore(cfg.Sessions.FilePath), nil, noop, nil

	case config.BackendRedis:
		store, err := session.NewRedisStore(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Sessions.TTL)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store.Close, nil

	case config.BackendPostgres:
		log.Info().Str("dir", cfg.Database.MigrationsDir).Msg("Running database migrations")
		store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxConns),
			SessionTTL:   cfg.Sessions.TTL,
		}, cfg.Database.MigrationsDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown session backend: %q", cfg.Sessions.Backend)
	}
}
