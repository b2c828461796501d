package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderlifecycle/config"
	"orderlifecycle/infrastructure/messaging/kafka"
	"orderlifecycle/infrastructure/persistence/sqlstore"
	"orderlifecycle/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := parseConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if !cfg.Worker.Enabled {
		logger.Info("Outbox worker is disabled by config; exiting")
		return nil
	}

	db, err := sqlstore.FromAppConfig(cfg.Database).Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Database.Type, err)
	}

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	worker, err := sqlstore.NewOutboxWorker(
		sqlstore.NewOutboxRepository(db),
		publisher,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox worker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Outbox worker started",
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
	)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox worker exited with error: %w", err)
	}

	logger.Info("Outbox worker stopped")
	return nil
}

// newPublisher relays to Kafka when brokers are configured and only logs
// otherwise.
func newPublisher(cfg *config.Config) (sqlstore.OutboxPublisher, func(), error) {
	p, err := kafka.NewPublisher(kafka.NewClient(cfg.Kafka.Brokers), cfg.Kafka.Topic)
	if errors.Is(err, kafka.ErrDisabled) {
		logger.Info("No Kafka brokers configured; outbox events will only be logged")
		return &sqlstore.LoggingOutboxPublisher{}, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	logger.Info("Relaying outbox events to Kafka", zap.String("topic", cfg.Kafka.Topic))
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close kafka writer", zap.Error(err))
		}
	}, nil
}

func parseConfigPath() string {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	return configPath
}
