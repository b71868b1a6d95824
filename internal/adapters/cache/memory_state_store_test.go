package cache

import (
	"bytes"
	"context"
	"testing"
)

func TestMemoryStateStoreRoundTrip(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "scoring:missing"); err != nil || ok {
		t.Fatalf("missing key should report (nil, false, nil), got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "scoring:weights:global", []byte(`{"weights":{}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := store.Get(ctx, "scoring:weights:global")
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(raw, []byte(`{"weights":{}}`)) {
		t.Fatalf("unexpected value: %s", raw)
	}

	if err := store.Remove(ctx, "scoring:weights:global"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "scoring:weights:global"); ok {
		t.Fatalf("key should be gone after remove")
	}
}

func TestMemoryStateStoreCopiesValues(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	value := []byte(`{"mode":"active"}`)
	if err := store.Set(ctx, "scoring:mode", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[9] = 'X'

	raw, _, _ := store.Get(ctx, "scoring:mode")
	if !bytes.Equal(raw, []byte(`{"mode":"active"}`)) {
		t.Fatalf("stored value should not alias the caller's slice: %s", raw)
	}

	raw[0] = 'X'
	again, _, _ := store.Get(ctx, "scoring:mode")
	if !bytes.Equal(again, []byte(`{"mode":"active"}`)) {
		t.Fatalf("returned value should not alias the stored slice: %s", again)
	}
}
