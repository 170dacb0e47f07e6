package storage

import (
	"context"
	"testing"
	"time"

	"trex/internal/model"
)

// exerciseStore runs the same persistence checks against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	network := model.NetworkRecord{
		ID:                   "net-1",
		NumberOfInputs:       2,
		NumberOfHiddenLayers: 1,
		NumberOfOutputs:      1,
		HiddenLayers:         [][][]int{{{1, -1}, {-1, 1}}},
		OutputLayer:          [][]int{{1, 1}},
	}
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("save network: %v", err)
	}
	loaded, ok, err := store.GetNetwork(ctx, "net-1")
	if err != nil {
		t.Fatalf("get network: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted network")
	}
	if loaded.HiddenLayers[0][1][0] != -1 || loaded.OutputLayer[0][0] != 1 {
		t.Fatalf("unexpected network: %+v", loaded)
	}
	if _, ok, err := store.GetNetwork(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing network, got ok=%t err=%v", ok, err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"run-old", "run-new", "run-mid"} {
		offset := map[string]time.Duration{"run-old": 0, "run-mid": time.Minute, "run-new": time.Hour}[id]
		run := model.RunRecord{
			VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
			ID:              id,
			Scape:           "xor",
			NetworkID:       "net-1",
			Seed:            int64(i),
			CreatedAtUTC:    base.Add(offset),
		}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-new" || runs[1].ID != "run-mid" || runs[2].ID != "run-old" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
	run, ok, err := store.GetRun(ctx, "run-mid")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if run.Seed != 2 || run.NetworkID != "net-1" {
		t.Fatalf("unexpected run: %+v", run)
	}

	history := []float64{1, 2, 2, 4}
	if err := store.SaveFitnessHistory(ctx, "run-new", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	gotHistory, ok, err := store.GetFitnessHistory(ctx, "run-new")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if len(gotHistory) != 4 || gotHistory[3] != 4 {
		t.Fatalf("unexpected history: %v", gotHistory)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err = store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs after reset: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs after reset, got %d", len(runs))
	}
	if _, ok, _ := store.GetNetwork(ctx, "net-1"); ok {
		t.Fatal("expected network to be removed by reset")
	}
}
