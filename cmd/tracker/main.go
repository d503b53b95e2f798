package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/practice-tracker/internal/api"
	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/config"
	"github.com/terra-clan/practice-tracker/internal/ingress"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/persist"
	"github.com/terra-clan/practice-tracker/internal/session"
	"github.com/terra-clan/practice-tracker/internal/storage"
	"github.com/terra-clan/practice-tracker/internal/tracker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting practice tracker",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Seed catalog
	seeds := catalog.DefaultSeeds()
	if cfg.Tracker.SeedFile != "" {
		seeds, err = catalog.LoadSeedsFromFile(cfg.Tracker.SeedFile)
		if err != nil {
			slog.Error("failed to load seed catalog", "path", cfg.Tracker.SeedFile, "error", err)
			os.Exit(1)
		}
	}

	// State slot
	slot, err := openSlot(initCtx, cfg)
	if err != nil {
		slog.Error("failed to open state storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer slot.Close()

	gateway := persist.NewGateway(slot, seeds)

	tr := tracker.New(initCtx, seeds, gateway, tracker.Options{
		DefaultCategory: models.Category(cfg.Tracker.DefaultCategory),
		GoalDelay:       cfg.Tracker.GoalDelay,
		SaveEvery:       cfg.Tracker.SaveEvery,
	})

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session timers and clock
	scheduler := session.NewScheduler(cfg.Tracker.TickInterval)
	scheduler.Every("timers", tr.Tick)
	scheduler.Every("clock", tr.RefreshClock)
	scheduler.Start(ctx)

	// Relay connection
	relayDone := make(chan struct{})
	if cfg.Relay.Enabled {
		client := ingress.NewClient(cfg.Relay.URL, tr, ingress.WithReconnectDelay(cfg.Relay.ReconnectDelay))
		tr.AttachRelay(client)
		go func() {
			defer close(relayDone)
			client.Run(ctx)
		}()
	} else {
		slog.Info("relay disabled, running offline")
		close(relayDone)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, tr, gateway)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Stop background workers
	cancel()
	scheduler.Stop()
	<-relayDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	server.Close()

	if err := tr.Close(shutdownCtx); err != nil {
		slog.Error("failed to save final state", "error", err)
	}

	slog.Info("practice tracker stopped")
}

// openSlot builds the configured storage backend
func openSlot(ctx context.Context, cfg *config.Config) (storage.Slot, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		slog.Warn("using in-memory state storage, progress is lost on exit")
		return storage.NewMemorySlot(), nil

	case config.StorageRedis:
		return storage.NewRedisSlot(ctx, storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Storage.SlotKey,
		})

	case config.StoragePostgres:
		slog.Info("running database migrations")
		if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return storage.NewPostgresSlot(ctx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
			MaxLifetime:  cfg.Database.MaxConnLifetime,
			Name:         cfg.Storage.SlotKey,
		})

	default:
		slot, err := storage.NewFileSlot(cfg.Storage.StateFile)
		if err != nil {
			return nil, err
		}
		slog.Info("using file state storage", "path", slot.Path())
		return slot, nil
	}
}
