package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type captureEngine struct {
	triggers chan string
}

func (e *captureEngine) RecalculateScores(_ context.Context, trigger string) (*domain.RecalculationLog, error) {
	e.triggers <- trigger
	return &domain.RecalculationLog{Trigger: trigger}, nil
}

func TestRecalcQueueDropsWhenFull(t *testing.T) {
	queue := NewRecalcQueue(2)
	if !queue.Enqueue("first") || !queue.Enqueue("second") {
		t.Fatalf("queue should accept up to its capacity")
	}
	if queue.Enqueue("third") {
		t.Fatalf("full queue should drop the trigger")
	}
}

func TestRecalcQueueDefaultCapacity(t *testing.T) {
	queue := NewRecalcQueue(0)
	if !queue.Enqueue("any") {
		t.Fatalf("zero capacity should fall back to the default, not drop")
	}
}

func TestRecalcWorkerDrainsQueue(t *testing.T) {
	queue := NewRecalcQueue(4)
	engine := &captureEngine{triggers: make(chan string, 4)}
	worker := NewRecalcWorker(slog.New(slog.NewTextHandler(io.Discard, nil)), queue, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	queue.Enqueue("outcome_learned")
	queue.Enqueue("manual")

	for _, want := range []string{"outcome_learned", "manual"} {
		select {
		case got := <-engine.triggers:
			if got != want {
				t.Fatalf("expected trigger %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("worker never ran sweep for %q", want)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop on context cancel")
	}
}
