package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "plan:active", "dual-hedge-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := store.Get(ctx, "plan:active")
	if err != nil || !ok || val != "dual-hedge-1" {
		t.Fatalf("get: val=%q ok=%v err=%v", val, ok, err)
	}
	if err := store.Set(ctx, "plan:active", "dual-hedge-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	val, _, _ = store.Get(ctx, "plan:active")
	if val != "dual-hedge-2" {
		t.Fatalf("expected overwrite, got %q", val)
	}
	if err := store.Delete(ctx, "plan:active"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "plan:active"); ok {
		t.Fatalf("expected delete to remove key")
	}
}
