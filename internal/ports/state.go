package ports

import "context"

// StateStore is the durable key-value store holding the engine's mutable
// learned state (weights, baseline, segments, mode, discovered features).
// Values are JSON documents; keys live in the scoring namespace, disjoint
// from anything the import/UI layer owns.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
