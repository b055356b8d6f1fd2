package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cmorgan/bookfeed/api"
	"github.com/cmorgan/bookfeed/internal/config"
	"github.com/cmorgan/bookfeed/internal/metrics"
	"github.com/cmorgan/bookfeed/pkg/feed"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookfeed",
		Short: "Live order book and trade tape engine",
		Long:  `Maintains a locally consistent view of an exchange order book and trade tape from an incremental depth stream, with automatic reconnection`,
		Run:   runFeed,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runFeed(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	registry := metrics.Init(logger)

	// Create the feed manager
	manager := feed.NewManager(feed.Config{
		WSBaseURL:      cfg.Feed.WSBaseURL,
		DepthInterval:  cfg.Feed.DepthInterval,
		ReconnectDelay: time.Duration(cfg.Feed.ReconnectDelay) * time.Millisecond,
		MaxReconnects:  cfg.Feed.MaxReconnects,
		TradeLogSize:   cfg.Feed.TradeLogSize,
	}, logger)

	if cfg.Feed.Symbol != "" {
		if err := manager.Subscribe(cfg.Feed.Symbol); err != nil {
			logger.WithError(err).Fatal("Failed to subscribe to configured symbol")
		}
	}

	server := api.NewServer(manager, logger,
		cfg.Server.Port, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst,
		metrics.Handler(registry))

	group, ctx := errgroup.WithContext(context.Background())
	group.Go(server.Start)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bookfeed is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Error("API server exited")
	}

	// Graceful shutdown
	manager.Unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API server shutdown failed")
	}

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("API server error")
	}

	logger.Info("Bookfeed stopped")
}
