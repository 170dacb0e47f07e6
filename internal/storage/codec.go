package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"trex/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeNetwork(rec model.NetworkRecord) ([]byte, error) {
	if rec.SchemaVersion == 0 && rec.CodecVersion == 0 {
		rec.SchemaVersion, rec.CodecVersion = CurrentSchemaVersion, CurrentCodecVersion
	}
	return json.MarshalIndent(rec, "", "  ")
}

// DecodeNetwork parses a network document. Documents without version fields
// are read as the current schema.
func DecodeNetwork(data []byte) (model.NetworkRecord, error) {
	var rec model.NetworkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.NetworkRecord{}, err
	}
	if rec.SchemaVersion == 0 && rec.CodecVersion == 0 {
		rec.SchemaVersion, rec.CodecVersion = CurrentSchemaVersion, CurrentCodecVersion
	}
	if err := checkVersion(model.VersionedRecord{SchemaVersion: rec.SchemaVersion, CodecVersion: rec.CodecVersion}); err != nil {
		return model.NetworkRecord{}, err
	}
	return rec, nil
}

func EncodeRun(rec model.RunRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var rec model.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return rec, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
