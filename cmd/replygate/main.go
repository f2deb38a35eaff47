package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"replygate/internal/config"
	"replygate/internal/constants"
	"replygate/internal/database"
	"replygate/internal/retry"
	"replygate/internal/service"
	"replygate/internal/tracing"
	"replygate/pkg/ai"
	"replygate/pkg/sms"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("replygate %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting replygate")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Initialize database with exponential backoff retry
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: constants.DefaultRetryBackoffMs * time.Millisecond,
		MaxDelay:     constants.DefaultMaxBackoffMs * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})

	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database.Path)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	if cfg.AI.APIKey == "" {
		logger.Warn("AI API key missing; all inbound messages will route to human review")
	}
	aiClient := ai.NewClient(cfg.AI.APIBaseURL, cfg.AI.APIKey, cfg.AI.Model,
		cfg.AI.MaxTokens, cfg.AI.TimeoutSec, nil, logger)

	if cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "" {
		logger.Warn("SMS credentials missing; outbound sends and notifications will fail")
	}
	smsClient := sms.NewClient(cfg.SMS.APIBaseURL, cfg.SMS.AccountSID, cfg.SMS.AuthToken,
		cfg.SMS.FromNumber, cfg.SMS.TimeoutSec, nil, logger)

	notifier := service.NewNotifier(db, smsClient, cfg.Owner.PhoneNumber, logger)
	ingest := service.NewIngestStage(db, logger)
	enrichment := service.NewEnrichmentStage(db, aiClient, notifier, logger)
	commands := service.NewCommandStage(db, cfg.Owner.PhoneNumber, logger)

	dispatcher := service.NewDispatcher(db, smsClient, cfg.Dispatch.SendingEnabled,
		cfg.Dispatch.PollIntervalSec, cfg.Dispatch.SendTimeoutSec, logger)
	if err := dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	if !cfg.Dispatch.SendingEnabled {
		logger.Warn("Sending is DISABLED (kill switch); approved messages will revert to review")
	}

	server := NewServer(cfg, ingest, enrichment, commands, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
