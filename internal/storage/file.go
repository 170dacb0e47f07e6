package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"trex/internal/model"
)

// SaveNetworkFile writes rec as an indented JSON document, creating parent
// directories as needed.
func SaveNetworkFile(path string, rec model.NetworkRecord) error {
	data, err := EncodeNetwork(rec)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func LoadNetworkFile(path string) (model.NetworkRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	rec, err := DecodeNetwork(data)
	if err != nil {
		return model.NetworkRecord{}, fmt.Errorf("decode network file %s: %w", path, err)
	}
	return rec, nil
}
