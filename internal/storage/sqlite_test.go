package storage

import (
	"context"
	"path/filepath"
	"testing"

	"trex/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trex.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "trex.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	rec := model.NetworkRecord{ID: "kept", NumberOfInputs: 2, NumberOfHiddenLayers: 1, NumberOfOutputs: 1}
	if err := first.SaveNetwork(ctx, rec); err != nil {
		t.Fatalf("save network: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	loaded, ok, err := second.GetNetwork(ctx, "kept")
	if err != nil || !ok {
		t.Fatalf("get network after reopen: ok=%t err=%v", ok, err)
	}
	if loaded.NumberOfInputs != 2 {
		t.Fatalf("unexpected network: %+v", loaded)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "trex.db"))
	if _, err := store.ListRuns(context.Background()); err == nil {
		t.Fatal("expected error before init")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
