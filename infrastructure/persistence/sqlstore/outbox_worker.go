package sqlstore

import (
	"context"
	"fmt"
	"time"

	"orderlifecycle/infrastructure/persistence/sqlstore/po"
	"orderlifecycle/pkg/logger"

	"go.uber.org/zap"
)

// OutboxPublisher delivers one serialized domain event. aggregateID is the
// order id and serves as the partition key.
type OutboxPublisher interface {
	Publish(ctx context.Context, aggregateID, eventType, payload string) error
}

// LoggingOutboxPublisher only logs; used when no broker is configured.
type LoggingOutboxPublisher struct{}

func (p *LoggingOutboxPublisher) Publish(ctx context.Context, aggregateID, eventType, payload string) error {
	logger.FromContext(ctx).Info("Outbox event published",
		zap.String("aggregate_id", aggregateID),
		zap.String("event_type", eventType),
		zap.String("payload", payload),
	)
	return nil
}

// outboxStore is the part of OutboxRepository the worker uses.
type outboxStore interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error)
	MarkEventProcessing(ctx context.Context, eventID string) error
	MarkEventPublished(ctx context.Context, eventID string) error
	MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error
}

// OutboxWorker polls the outbox and relays pending events.
type OutboxWorker struct {
	repository   outboxStore
	publisher    OutboxPublisher
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	log          *zap.Logger
}

func NewOutboxWorker(
	repository *OutboxRepository,
	publisher OutboxPublisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*OutboxWorker, error) {
	if repository == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	return newOutboxWorker(repository, publisher, pollInterval, batchSize, maxRetries)
}

func newOutboxWorker(
	repository outboxStore,
	publisher OutboxPublisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*OutboxWorker, error) {
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	return &OutboxWorker{
		repository:   repository,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		log:          logger.Named("outbox"),
	}, nil
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info("Outbox worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize),
	)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Outbox worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.log.Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch relays up to batchSize pending events and returns how many
// were published.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	events, err := w.repository.GetPendingEvents(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		if err := w.repository.MarkEventProcessing(ctx, event.ID); err != nil {
			w.log.Debug("Skip outbox event claimed elsewhere",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if err := w.publisher.Publish(ctx, event.AggregateID, event.EventType, event.Payload); err != nil {
			w.log.Warn("Outbox publish failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			if failErr := w.repository.MarkEventFailed(ctx, event.ID, w.maxRetries); failErr != nil {
				w.log.Error("Failed to mark outbox event as failed",
					zap.String("event_id", event.ID),
					zap.Error(failErr),
				)
			}
			continue
		}

		if err := w.repository.MarkEventPublished(ctx, event.ID); err != nil {
			w.log.Error("Failed to mark outbox event as published",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		published++
	}

	return published, nil
}
