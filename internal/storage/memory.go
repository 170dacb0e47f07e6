package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"trex/internal/model"
)

var errMemoryNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string]model.NetworkRecord
	runs        map[string]model.RunRecord
	history     map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.reset()
	s.initialized = true
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.initialized = true
	return nil
}

func (s *MemoryStore) reset() {
	s.networks = make(map[string]model.NetworkRecord)
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]float64)
}

func (s *MemoryStore) SaveNetwork(_ context.Context, network model.NetworkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errMemoryNotInitialized
	}
	s.networks[network.ID] = cloneNetworkRecord(network)
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.NetworkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	network, ok := s.networks[id]
	if !ok {
		return model.NetworkRecord{}, false, nil
	}
	return cloneNetworkRecord(network), true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errMemoryNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRunsNewestFirst(runs)
	return runs, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errMemoryNotInitialized
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func sortRunsNewestFirst(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC.Equal(runs[j].CreatedAtUTC) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC.After(runs[j].CreatedAtUTC)
	})
}

func cloneNetworkRecord(rec model.NetworkRecord) model.NetworkRecord {
	out := rec
	out.HiddenLayers = make([][][]int, len(rec.HiddenLayers))
	for i, layer := range rec.HiddenLayers {
		out.HiddenLayers[i] = cloneWeights(layer)
	}
	out.OutputLayer = cloneWeights(rec.OutputLayer)
	return out
}

func cloneWeights(layer [][]int) [][]int {
	out := make([][]int, len(layer))
	for i, w := range layer {
		out[i] = append([]int(nil), w...)
	}
	return out
}
