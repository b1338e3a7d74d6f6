package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
	"github.com/brandon/mcp-mailindex/internal/mcp"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithField("version", version).Info("Starting MCP mail index server")

	emailCache, err := cache.NewCache(cfg.CachePath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer emailCache.Close()

	cacheStore := cache.NewStore(emailCache, logger)

	for i := range cfg.Accounts {
		if _, err := cacheStore.UpsertAccount(&cfg.Accounts[i]); err != nil {
			logger.WithError(err).WithField("account", cfg.Accounts[i].Name).Warn("Failed to cache account")
		}
	}

	emailManager, err := email.NewManager(cfg, cacheStore, logger)
	if err != nil {
		return fmt.Errorf("failed to create email manager: %w", err)
	}
	defer emailManager.Close()

	server, err := mcp.NewServer(cfg, emailManager, cacheStore, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			logger.WithError(err).Error("Server error")
			return err
		}
	}

	logger.Info("Shutting down MCP mail index server")
	return nil
}

