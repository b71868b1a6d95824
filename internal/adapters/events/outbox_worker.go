package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		logger: logger, outbox: outbox, publisher: publisher, interval: interval, batchSize: batchSize,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processOnce(ctx context.Context) error {
	records, err := w.outbox.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, rec := range records {
		if err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey); err != nil {
			w.logger.WarnContext(ctx, "outbox publish failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish",
				"outcome", "failure",
				"record_id", rec.RecordID,
				"event_type", rec.EventType,
				"error", err,
			)
			continue
		}
		if err := w.outbox.MarkSent(ctx, rec.RecordID, now); err != nil {
			w.logger.WarnContext(ctx, "outbox mark sent failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"record_id", rec.RecordID,
				"error", err,
			)
		}
	}
	return nil
}
