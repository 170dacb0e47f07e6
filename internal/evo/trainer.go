package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"trex/internal/nn"
)

var (
	ErrNilEvaluator      = errors.New("evaluator is required")
	ErrNonFiniteFitness  = errors.New("evaluator returned a non-finite fitness")
	ErrInitialTopology   = errors.New("initial network topology does not match trainer topology")
	ErrNegativeLimit     = errors.New("limits must be >= 0")
	ErrMassivePercentCfg = errors.New("massive mutation percent must be in [0,100]")
)

// Evaluation is the outcome of scoring one network.
type Evaluation struct {
	Fitness float64
	// Solved ends training and promotes the evaluated network regardless of
	// its fitness.
	Solved bool
}

type Evaluator interface {
	Evaluate(ctx context.Context, net *nn.Network) (Evaluation, error)
}

type EvaluatorFunc func(ctx context.Context, net *nn.Network) (Evaluation, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, net *nn.Network) (Evaluation, error) {
	return f(ctx, net)
}

type Config struct {
	Topology nn.Topology
	// MassiveMutationPercent is the chance that one generation mutates every
	// unit of the candidate. Nil selects nn.DefaultMassiveMutationPercent.
	MassiveMutationPercent *int
	// StallLimit restarts from a fresh random network after that many
	// consecutive generations without improvement. Zero disables restarts.
	StallLimit int
	// MaxGenerations caps Run. Zero means no cap.
	MaxGenerations int
	Rand           *rand.Rand
	Logger         *slog.Logger
	// Initial, when set, becomes the first reference network instead of a
	// random one. The trainer takes ownership of it.
	Initial *nn.Network
}

// GenerationReport describes one completed generation.
type GenerationReport struct {
	Generation int
	Fitness    float64
	Best       float64
	Improved   bool
	Restarted  bool
	Solved     bool
}

type Result struct {
	Network          *nn.Network
	Fitness          float64
	Solved           bool
	Generations      int
	Restarts         int
	BestByGeneration []float64
}

// Trainer evolves a single reference network by repeatedly cloning it into a
// scratch candidate, mutating the candidate and keeping whichever scores
// strictly higher.
type Trainer struct {
	topology       nn.Topology
	massivePercent int
	stallLimit     int
	maxGenerations int
	rng            *rand.Rand
	log            *slog.Logger

	reference *nn.Network
	scratch   *nn.Network

	best       float64
	stalled    int
	generation int
	restarts   int
	history    []float64
}

func NewTrainer(cfg Config) (*Trainer, error) {
	if cfg.Rand == nil {
		return nil, nn.ErrNilRandom
	}
	if err := cfg.Topology.Validate(); err != nil {
		return nil, err
	}
	massive := nn.DefaultMassiveMutationPercent
	if cfg.MassiveMutationPercent != nil {
		massive = *cfg.MassiveMutationPercent
	}
	if massive < 0 || massive > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrMassivePercentCfg, massive)
	}
	if cfg.StallLimit < 0 || cfg.MaxGenerations < 0 {
		return nil, ErrNegativeLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reference := cfg.Initial
	if reference != nil {
		if reference.Topology() != cfg.Topology {
			return nil, fmt.Errorf("%w: initial=%s trainer=%s", ErrInitialTopology, reference.Topology(), cfg.Topology)
		}
	} else {
		var err error
		reference, err = nn.NewNetwork(cfg.Rand, cfg.Topology)
		if err != nil {
			return nil, fmt.Errorf("create reference network: %w", err)
		}
	}
	scratch, err := nn.NewNetwork(cfg.Rand, cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("create scratch network: %w", err)
	}

	return &Trainer{
		topology:       cfg.Topology,
		massivePercent: massive,
		stallLimit:     cfg.StallLimit,
		maxGenerations: cfg.MaxGenerations,
		rng:            cfg.Rand,
		log:            logger,
		reference:      reference,
		scratch:        scratch,
		best:           math.Inf(-1),
	}, nil
}

// Reference returns the current best network. It is replaced, not modified,
// when a candidate wins or the trainer restarts.
func (t *Trainer) Reference() *nn.Network {
	return t.reference
}

// Best returns the reference's fitness, or -Inf before the first generation
// and right after a restart.
func (t *Trainer) Best() float64 {
	return t.best
}

func (t *Trainer) Generation() int {
	return t.generation
}

func (t *Trainer) Restarts() int {
	return t.restarts
}

// Step runs one generation.
func (t *Trainer) Step(ctx context.Context, eval Evaluator) (GenerationReport, error) {
	if eval == nil {
		return GenerationReport{}, ErrNilEvaluator
	}
	if err := ctx.Err(); err != nil {
		return GenerationReport{}, err
	}
	gen := t.generation + 1

	if err := t.reference.CloneInto(t.scratch); err != nil {
		return GenerationReport{}, fmt.Errorf("generation %d: clone candidate: %w", gen, err)
	}
	if err := t.scratch.Mutate(t.rng, t.massivePercent); err != nil {
		return GenerationReport{}, fmt.Errorf("generation %d: mutate candidate: %w", gen, err)
	}
	result, err := evaluate(ctx, eval, t.scratch)
	if err != nil {
		return GenerationReport{}, fmt.Errorf("generation %d: evaluate candidate: %w", gen, err)
	}

	t.generation = gen
	report := GenerationReport{Generation: gen, Fitness: result.Fitness, Solved: result.Solved}

	if result.Solved || result.Fitness > t.best {
		t.reference, t.scratch = t.scratch, t.reference
		t.best = result.Fitness
		t.stalled = 0
		report.Improved = true
		t.log.Debug("candidate promoted", "generation", gen, "fitness", result.Fitness, "solved", result.Solved)
	} else {
		t.stalled++
		if t.stallLimit > 0 && t.stalled >= t.stallLimit {
			if err := t.restart(); err != nil {
				return GenerationReport{}, fmt.Errorf("generation %d: %w", gen, err)
			}
			report.Restarted = true
			t.log.Info("stalled, restarting from a random network",
				"generation", gen, "stalled_for", t.stallLimit, "restarts", t.restarts)
		}
	}

	report.Best = t.best
	if report.Restarted {
		// The history keeps the best fitness reached before the restart.
		t.history = append(t.history, t.historyTail())
	} else {
		t.history = append(t.history, t.best)
	}
	return report, nil
}

func (t *Trainer) historyTail() float64 {
	if len(t.history) == 0 {
		return 0
	}
	return t.history[len(t.history)-1]
}

func (t *Trainer) restart() error {
	fresh, err := nn.NewNetwork(t.rng, t.topology)
	if err != nil {
		return fmt.Errorf("restart network: %w", err)
	}
	t.reference = fresh
	t.best = math.Inf(-1)
	t.stalled = 0
	t.restarts++
	return nil
}

// Run steps until a candidate is solved, the generation cap is reached or
// ctx is done. On error no network is returned.
func (t *Trainer) Run(ctx context.Context, eval Evaluator) (Result, error) {
	if eval == nil {
		return Result{}, ErrNilEvaluator
	}
	solved := false
	for t.maxGenerations == 0 || t.generation < t.maxGenerations {
		report, err := t.Step(ctx, eval)
		if err != nil {
			return Result{}, err
		}
		if report.Solved {
			solved = true
			t.log.Info("training solved", "generation", report.Generation, "fitness", report.Fitness, "restarts", t.restarts)
			break
		}
	}
	if !solved {
		if math.IsInf(t.best, -1) {
			// The cap landed on a restart; score the fresh reference.
			result, err := evaluate(ctx, eval, t.reference)
			if err != nil {
				return Result{}, fmt.Errorf("evaluate reference: %w", err)
			}
			t.best = result.Fitness
			solved = result.Solved
		}
		t.log.Info("generation cap reached", "generations", t.generation, "best", t.best, "restarts", t.restarts)
	}

	return Result{
		Network:          t.reference,
		Fitness:          t.best,
		Solved:           solved,
		Generations:      t.generation,
		Restarts:         t.restarts,
		BestByGeneration: append([]float64(nil), t.history...),
	}, nil
}

func evaluate(ctx context.Context, eval Evaluator, net *nn.Network) (Evaluation, error) {
	result, err := eval.Evaluate(ctx, net)
	if err != nil {
		return Evaluation{}, err
	}
	if math.IsNaN(result.Fitness) || math.IsInf(result.Fitness, 0) {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrNonFiniteFitness, result.Fitness)
	}
	return result, nil
}
