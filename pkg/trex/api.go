package trex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"trex/internal/console"
	"trex/internal/evo"
	"trex/internal/model"
	"trex/internal/nn"
	"trex/internal/scape"
	"trex/internal/stats"
	"trex/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "trex.db"
	defaultRunsLimit    = 20

	// ScapeStallLimit asks Train to use the scape's own stall limit, or none
	// when the scape has no default.
	ScapeStallLimit = -1
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	Logger       *slog.Logger
}

type Client struct {
	store        storage.Store
	storeKind    string
	artifactsDir string
	log          *slog.Logger
}

type TrainRequest struct {
	Scape          string
	Seed           int64
	MaxGenerations int
	// StallLimit of ScapeStallLimit picks the scape default; zero disables
	// restarts.
	StallLimit int
	// MassiveMutationPercent nil means nn.DefaultMassiveMutationPercent.
	MassiveMutationPercent *int
	ContinueNetworkID      string
}

type TrainSummary struct {
	RunID            string
	NetworkID        string
	Scape            string
	Fitness          float64
	Solved           bool
	Generations      int
	Restarts         int
	BestByGeneration []float64
	ArtifactsDir     string
}

type ReplayRequest struct {
	NetworkID string
	RunID     string
	Latest    bool
	// Scape overrides the scape recorded with the run. Replaying a bare
	// network without a scape picks the scape whose topology matches.
	Scape string
}

type ReplaySummary struct {
	NetworkID string
	RunID     string
	Scape     string
	Fitness   float64
	Solved    bool
	Trace     scape.Trace
	Rendered  string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	NetworkID    string
	Scape        string
	Seed         int64
	Generations  int
	Restarts     int
	BestFitness  float64
	Solved       bool
	CreatedAtUTC time.Time
}

type RunConfigRequest struct {
	RunID  string
	Latest bool
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRunRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportRunSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		storeKind:    storeKind,
		artifactsDir: artifactsDir,
		log:          logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Reset drops every stored network, run and fitness history.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.Scape == "" {
		req.Scape = "xor"
	}
	if req.MaxGenerations < 0 {
		return TrainSummary{}, errors.New("max generations must be >= 0")
	}
	if req.StallLimit < ScapeStallLimit {
		return TrainSummary{}, errors.New("stall limit must be >= 0, or -1 for the scape default")
	}
	sc, err := scape.Lookup(req.Scape)
	if err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.Init(ctx); err != nil {
		return TrainSummary{}, err
	}

	stallLimit := req.StallLimit
	if stallLimit == ScapeStallLimit {
		stallLimit = 0
		if limiter, ok := sc.(scape.StallLimiter); ok {
			stallLimit = limiter.StallLimit()
		}
	}
	massive := nn.DefaultMassiveMutationPercent
	if req.MassiveMutationPercent != nil {
		massive = *req.MassiveMutationPercent
	}

	var initial *nn.Network
	if req.ContinueNetworkID != "" {
		initial, err = c.loadNetwork(ctx, req.ContinueNetworkID)
		if err != nil {
			return TrainSummary{}, fmt.Errorf("continue from network %s: %w", req.ContinueNetworkID, err)
		}
		if initial.Topology() != sc.Topology() {
			return TrainSummary{}, fmt.Errorf("continue from network %s: %w: scape %s wants %s, network is %s",
				req.ContinueNetworkID, nn.ErrTopologyMismatch, sc.Name(), sc.Topology(), initial.Topology())
		}
	}

	runID := uuid.NewString()
	log := c.log.With("run_id", runID, "scape", sc.Name())
	trainer, err := evo.NewTrainer(evo.Config{
		Topology:               sc.Topology(),
		MassiveMutationPercent: &massive,
		StallLimit:             stallLimit,
		MaxGenerations:         req.MaxGenerations,
		Rand:                   rand.New(rand.NewSource(req.Seed)),
		Logger:                 log,
		Initial:                initial,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	log.Info("training started", "seed", req.Seed, "stall_limit", stallLimit, "max_generations", req.MaxGenerations)
	result, err := trainer.Run(ctx, scapeEvaluator(sc))
	if err != nil {
		return TrainSummary{}, err
	}

	_, finalTrace, err := sc.Evaluate(ctx, result.Network)
	if err != nil {
		return TrainSummary{}, fmt.Errorf("evaluate trained network: %w", err)
	}

	networkID := uuid.NewString()
	record, err := storage.SnapshotNetwork(networkID, result.Network)
	if err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveNetwork(ctx, record); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveRun(ctx, model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:                     runID,
		Scape:                  sc.Name(),
		NetworkID:              networkID,
		ContinuedFrom:          req.ContinueNetworkID,
		Seed:                   req.Seed,
		MassiveMutationPercent: massive,
		StallLimit:             stallLimit,
		MaxGenerations:         req.MaxGenerations,
		Generations:            result.Generations,
		Restarts:               result.Restarts,
		BestFitness:            result.Fitness,
		Solved:                 result.Solved,
		CreatedAtUTC:           time.Now().UTC(),
	}); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return TrainSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:                  runID,
			Scape:                  sc.Name(),
			Seed:                   req.Seed,
			MaxGenerations:         req.MaxGenerations,
			StallLimit:             stallLimit,
			MassiveMutationPercent: massive,
			ContinueNetworkID:      req.ContinueNetworkID,
			StoreKind:              c.storeKind,
		},
		BestByGeneration: result.BestByGeneration,
		FinalBestFitness: result.Fitness,
		Solved:           result.Solved,
		Restarts:         result.Restarts,
		Network:          record,
		FinalTrace:       finalTrace,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	log.Info("training finished", "network_id", networkID, "fitness", result.Fitness,
		"solved", result.Solved, "generations", result.Generations, "restarts", result.Restarts)
	return TrainSummary{
		RunID:            runID,
		NetworkID:        networkID,
		Scape:            sc.Name(),
		Fitness:          result.Fitness,
		Solved:           result.Solved,
		Generations:      result.Generations,
		Restarts:         result.Restarts,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		ArtifactsDir:     filepath.Clean(runDir),
	}, nil
}

// Replay evaluates a stored network once on its scape and renders it.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	selectors := 0
	for _, set := range []bool{req.NetworkID != "", req.RunID != "", req.Latest} {
		if set {
			selectors++
		}
	}
	if selectors > 1 {
		return ReplaySummary{}, errors.New("use one of network id, run id or latest")
	}
	if selectors == 0 {
		return ReplaySummary{}, errors.New("replay requires network id, run id or latest")
	}
	if err := c.store.Init(ctx); err != nil {
		return ReplaySummary{}, err
	}

	networkID := req.NetworkID
	scapeName := req.Scape
	runID := ""
	if req.RunID != "" || req.Latest {
		run, err := c.resolveRun(ctx, req.RunID, req.Latest)
		if err != nil {
			return ReplaySummary{}, err
		}
		runID = run.ID
		networkID = run.NetworkID
		if scapeName == "" {
			scapeName = run.Scape
		}
	}

	net, err := c.loadNetwork(ctx, networkID)
	if err != nil {
		return ReplaySummary{}, err
	}
	var sc scape.Scape
	if scapeName != "" {
		sc, err = scape.Lookup(scapeName)
	} else {
		sc, err = scapeForTopology(net.Topology())
	}
	if err != nil {
		return ReplaySummary{}, err
	}

	fitness, trace, err := sc.Evaluate(ctx, net)
	if err != nil {
		return ReplaySummary{}, err
	}
	rendered, err := console.FormatNetwork(net)
	if err != nil {
		return ReplaySummary{}, err
	}
	return ReplaySummary{
		NetworkID: networkID,
		RunID:     runID,
		Scape:     sc.Name(),
		Fitness:   float64(fitness),
		Solved:    sc.Solved(fitness, trace),
		Trace:     trace,
		Rendered:  rendered,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:        r.ID,
			NetworkID:    r.NetworkID,
			Scape:        r.Scape,
			Seed:         r.Seed,
			Generations:  r.Generations,
			Restarts:     r.Restarts,
			BestFitness:  r.BestFitness,
			Solved:       r.Solved,
			CreatedAtUTC: r.CreatedAtUTC,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return nil, errors.New("fitness history requires run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}

	run, err := c.resolveRun(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Runs imported from another store still carry their CSV series.
		history, ok, err = stats.ReadFitnessSeries(c.artifactsDir, run.ID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", run.ID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

// RunConfig reads the settings a run was trained with from its artifacts.
func (c *Client) RunConfig(ctx context.Context, req RunConfigRequest) (stats.RunConfig, error) {
	if req.RunID != "" && req.Latest {
		return stats.RunConfig{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return stats.RunConfig{}, errors.New("run config requires run id or latest")
	}
	if err := c.store.Init(ctx); err != nil {
		return stats.RunConfig{}, err
	}
	run, err := c.resolveRun(ctx, req.RunID, req.Latest)
	if err != nil {
		return stats.RunConfig{}, err
	}
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, run.ID)
	if err != nil {
		return stats.RunConfig{}, err
	}
	if !ok {
		return stats.RunConfig{}, fmt.Errorf("run artifacts not found for run id: %s", run.ID)
	}
	return cfg, nil
}

// Network returns the stored record for id.
func (c *Client) Network(ctx context.Context, id string) (model.NetworkRecord, error) {
	if id == "" {
		return model.NetworkRecord{}, errors.New("network id is required")
	}
	if err := c.store.Init(ctx); err != nil {
		return model.NetworkRecord{}, err
	}
	rec, ok, err := c.store.GetNetwork(ctx, id)
	if err != nil {
		return model.NetworkRecord{}, err
	}
	if !ok {
		return model.NetworkRecord{}, fmt.Errorf("network not found: %s", id)
	}
	return rec, nil
}

// ExportNetwork writes the stored network id to path as a JSON document.
func (c *Client) ExportNetwork(ctx context.Context, id, path string) error {
	if path == "" {
		return errors.New("export path is required")
	}
	rec, err := c.Network(ctx, id)
	if err != nil {
		return err
	}
	return storage.SaveNetworkFile(path, rec)
}

// ImportNetwork loads a network file, checks that it restores to a valid
// network and stores it. Files without an id get a fresh one.
func (c *Client) ImportNetwork(ctx context.Context, path string) (string, error) {
	rec, err := storage.LoadNetworkFile(path)
	if err != nil {
		return "", err
	}
	if _, err := storage.RestoreNetwork(rec); err != nil {
		return "", fmt.Errorf("import %s: %w", path, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.SchemaVersion = storage.CurrentSchemaVersion
	rec.CodecVersion = storage.CurrentCodecVersion
	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	if err := c.store.SaveNetwork(ctx, rec); err != nil {
		return "", err
	}
	c.log.Info("network imported", "network_id", rec.ID, "path", path)
	return rec.ID, nil
}

// ExportRun copies a run's artifact directory into req.OutDir.
func (c *Client) ExportRun(ctx context.Context, req ExportRunRequest) (ExportRunSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportRunSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportRunSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		return ExportRunSummary{}, errors.New("output directory is required")
	}
	if err := c.store.Init(ctx); err != nil {
		return ExportRunSummary{}, err
	}
	run, err := c.resolveRun(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportRunSummary{}, err
	}
	dir, err := stats.ExportRunArtifacts(c.artifactsDir, run.ID, req.OutDir)
	if err != nil {
		return ExportRunSummary{}, err
	}
	return ExportRunSummary{RunID: run.ID, Directory: filepath.Clean(dir)}, nil
}

func (c *Client) resolveRun(ctx context.Context, runID string, latest bool) (model.RunRecord, error) {
	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return model.RunRecord{}, err
		}
		if len(runs) == 0 {
			return model.RunRecord{}, errors.New("no runs available")
		}
		return runs[0], nil
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

func (c *Client) loadNetwork(ctx context.Context, id string) (*nn.Network, error) {
	rec, err := c.Network(ctx, id)
	if err != nil {
		return nil, err
	}
	return storage.RestoreNetwork(rec)
}

func scapeEvaluator(sc scape.Scape) evo.Evaluator {
	return evo.EvaluatorFunc(func(ctx context.Context, net *nn.Network) (evo.Evaluation, error) {
		fitness, trace, err := sc.Evaluate(ctx, net)
		if err != nil {
			return evo.Evaluation{}, err
		}
		return evo.Evaluation{Fitness: float64(fitness), Solved: sc.Solved(fitness, trace)}, nil
	})
}

func scapeForTopology(topo nn.Topology) (scape.Scape, error) {
	for _, name := range scape.Names() {
		sc, err := scape.Lookup(name)
		if err != nil {
			return nil, err
		}
		if sc.Topology() == topo {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("no scape accepts topology %s", topo)
}
