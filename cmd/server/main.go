package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/coderadar/internal/config"
	"github.com/sevigo/coderadar/internal/initializer"
	"github.com/sevigo/coderadar/internal/logger"
	"github.com/sevigo/coderadar/internal/registry"
	"github.com/sevigo/coderadar/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "application failed to run:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateForServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logging, nil)
	log.Info("starting coderadar server")

	store, closeStore, err := registry.Open(ctx, cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to open registry store: %w", err)
	}
	defer closeStore()

	stateCache, err := registry.NewStateCache(cfg.Repos.StateFile)
	if err != nil {
		return fmt.Errorf("failed to open state cache: %w", err)
	}

	discovery, err := registry.NewDiscovery(cfg.Repos.RootDir)
	if err != nil {
		return fmt.Errorf("failed to set up repo discovery: %w", err)
	}

	srv := server.NewServer(ctx, &server.Deps{
		Config:      cfg,
		Registry:    store,
		StateCache:  stateCache,
		Discovery:   discovery,
		Initializer: initializer.New(cfg),
		Logger:      log,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("received shutdown signal")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
