package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trex/internal/model"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func TestDecodePlainNetworkFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("xor_network_plain.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	rec, err := DecodeNetwork(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if rec.SchemaVersion != CurrentSchemaVersion || rec.CodecVersion != CurrentCodecVersion {
		t.Fatalf("expected current versions, got schema=%d codec=%d", rec.SchemaVersion, rec.CodecVersion)
	}
	if rec.NumberOfInputs != 2 || rec.NumberOfHiddenLayers != 1 || rec.NumberOfOutputs != 1 {
		t.Fatalf("unexpected topology: %+v", rec)
	}
	if rec.HiddenLayers[0][1][0] != -1 || rec.OutputLayer[0][1] != 1 {
		t.Fatalf("unexpected weights: %+v", rec)
	}
}

func TestDecodeNetworkVersionMismatch(t *testing.T) {
	_, err := DecodeNetwork([]byte(`{"schemaVersion": 9, "codecVersion": 1, "numberOfInputs": 2}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestEncodeNetworkStampsVersions(t *testing.T) {
	data, err := EncodeNetwork(model.NetworkRecord{ID: "n1", NumberOfInputs: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := DecodeNetwork(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID != "n1" || rec.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRunRecordRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
		Scape:           "xor",
		NetworkID:       "net-1",
		Seed:            42,
		Generations:     17,
		BestFitness:     4,
		Solved:          true,
		CreatedAtUTC:    created,
	}
	data, err := EncodeRun(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Generations != 17 || !out.Solved || !out.CreatedAtUTC.Equal(created) {
		t.Fatalf("unexpected run: %+v", out)
	}

	if _, err := DecodeRun([]byte(`{"id":"x"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
