package events

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// Recalculator is the slice of the application service the worker drives.
type Recalculator interface {
	RecalculateScores(ctx context.Context, trigger string) (*domain.RecalculationLog, error)
}

// RecalcQueue is a bounded in-process trigger queue. Enqueue never blocks:
// a full queue drops the trigger, which is safe because every sweep rescores
// everything anyway.
type RecalcQueue struct {
	triggers chan string
}

func NewRecalcQueue(capacity int) *RecalcQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &RecalcQueue{triggers: make(chan string, capacity)}
}

func (q *RecalcQueue) Enqueue(trigger string) bool {
	select {
	case q.triggers <- trigger:
		return true
	default:
		return false
	}
}

// RecalcWorker drains the queue and runs sweeps until the context ends.
type RecalcWorker struct {
	logger *slog.Logger
	queue  *RecalcQueue
	engine Recalculator
}

func NewRecalcWorker(logger *slog.Logger, queue *RecalcQueue, engine Recalculator) *RecalcWorker {
	return &RecalcWorker{logger: logger, queue: queue, engine: engine}
}

func (w *RecalcWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case trigger := <-w.queue.triggers:
			if _, err := w.engine.RecalculateScores(ctx, trigger); err != nil {
				w.logger.ErrorContext(ctx, "recalculation sweep failed",
					"module", "events.recalc_worker",
					"layer", "adapter",
					"operation", "recalculate",
					"outcome", "failure",
					"trigger", trigger,
					"error", err,
				)
			}
		}
	}
}
