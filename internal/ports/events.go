package ports

import "context"

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// RecalculationQueue hands score-recalculation triggers to a background
// worker. Enqueue must never block the caller; a full queue drops the
// trigger and reports false.
type RecalculationQueue interface {
	Enqueue(trigger string) bool
}
