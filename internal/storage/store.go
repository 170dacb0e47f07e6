package storage

import (
	"context"

	"trex/internal/model"
)

// Store persists trained networks, run summaries and per-run fitness history.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveNetwork(ctx context.Context, network model.NetworkRecord) error
	GetNetwork(ctx context.Context, id string) (model.NetworkRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
