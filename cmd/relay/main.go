package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/config"
	"github.com/terra-clan/practice-tracker/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	seeds := catalog.DefaultSeeds()
	if cfg.Tracker.SeedFile != "" {
		seeds, err = catalog.LoadSeedsFromFile(cfg.Tracker.SeedFile)
		if err != nil {
			slog.Error("failed to load seed catalog", "path", cfg.Tracker.SeedFile, "error", err)
			os.Exit(1)
		}
	}

	r := relay.New(seeds, relay.Options{Cooldown: cfg.Detector.DetectCooldown})

	httpServer := &http.Server{
		Addr:        cfg.Detector.Server.Addr(),
		Handler:     r.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("relay starting", "addr", httpServer.Addr, "cooldown", cfg.Detector.DetectCooldown)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	r.Close()

	slog.Info("relay stopped")
}
