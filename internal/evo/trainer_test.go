package evo

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"trex/internal/nn"
)

var xorTopology = nn.Topology{Inputs: 2, HiddenLayers: 1, Outputs: 1}

var xorCases = []struct {
	in   []nn.Signal
	want nn.Signal
}{
	{in: []nn.Signal{nn.Zero, nn.Zero}, want: nn.Zero},
	{in: []nn.Signal{nn.Zero, nn.One}, want: nn.One},
	{in: []nn.Signal{nn.One, nn.Zero}, want: nn.One},
	{in: []nn.Signal{nn.One, nn.One}, want: nn.Zero},
}

func xorEvaluator() Evaluator {
	return EvaluatorFunc(func(_ context.Context, net *nn.Network) (Evaluation, error) {
		correct := 0
		for _, c := range xorCases {
			if err := net.SetInputs(c.in); err != nil {
				return Evaluation{}, err
			}
			out, err := net.Compute()
			if err != nil {
				return Evaluation{}, err
			}
			if out[0] == c.want {
				correct++
			}
		}
		return Evaluation{Fitness: float64(correct), Solved: correct == len(xorCases)}, nil
	})
}

func TestNewTrainerValidatesConfig(t *testing.T) {
	bad := 101
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "no-rand", cfg: Config{Topology: xorTopology}, want: nn.ErrNilRandom},
		{name: "bad-topology", cfg: Config{Topology: nn.Topology{Inputs: 1, HiddenLayers: 1, Outputs: 1}, Rand: rand.New(rand.NewSource(1))}, want: nn.ErrInvalidArgument},
		{name: "bad-percent", cfg: Config{Topology: xorTopology, Rand: rand.New(rand.NewSource(1)), MassiveMutationPercent: &bad}, want: ErrMassivePercentCfg},
		{name: "negative-stall", cfg: Config{Topology: xorTopology, Rand: rand.New(rand.NewSource(1)), StallLimit: -1}, want: ErrNegativeLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTrainer(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	rng := rand.New(rand.NewSource(1))
	other, err := nn.NewNetwork(rng, nn.Topology{Inputs: 3, HiddenLayers: 1, Outputs: 1})
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if _, err := NewTrainer(Config{Topology: xorTopology, Rand: rng, Initial: other}); !errors.Is(err, ErrInitialTopology) {
		t.Fatalf("expected ErrInitialTopology, got %v", err)
	}
}

func TestTrainerSolvesXOR(t *testing.T) {
	trainer, err := NewTrainer(Config{
		Topology:       xorTopology,
		MaxGenerations: 200000,
		Rand:           rand.New(rand.NewSource(42)),
	})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}

	result, err := trainer.Run(context.Background(), xorEvaluator())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Solved || result.Fitness != 4 {
		t.Fatalf("expected solved xor, got %+v", result)
	}
	if len(result.BestByGeneration) != result.Generations {
		t.Fatalf("history length %d does not match generations %d", len(result.BestByGeneration), result.Generations)
	}

	for round := 0; round < 3; round++ {
		for _, c := range xorCases {
			if err := result.Network.SetInputs(c.in); err != nil {
				t.Fatalf("set inputs: %v", err)
			}
			out, err := result.Network.Compute()
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if out[0] != c.want {
				t.Fatalf("round %d xor%v: got=%d want=%d", round, c.in, out[0], c.want)
			}
		}
	}
}

func TestTrainerPromotesOnlyStrictImprovement(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, Rand: rand.New(rand.NewSource(3))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	scores := []float64{1, 1, 0.5, 2, 2}
	i := 0
	eval := EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		s := scores[i]
		i++
		return Evaluation{Fitness: s}, nil
	})

	wantImproved := []bool{true, false, false, true, false}
	for gen, want := range wantImproved {
		before := trainer.Reference()
		report, err := trainer.Step(context.Background(), eval)
		if err != nil {
			t.Fatalf("step %d: %v", gen, err)
		}
		if report.Improved != want {
			t.Fatalf("generation %d: improved=%t want=%t", gen+1, report.Improved, want)
		}
		if swapped := trainer.Reference() != before; swapped != want {
			t.Fatalf("generation %d: reference swapped=%t want=%t", gen+1, swapped, want)
		}
	}
	if trainer.Best() != 2 {
		t.Fatalf("best: got=%f want=2", trainer.Best())
	}
}

func TestTrainerStallRestartAfterExactlyN(t *testing.T) {
	const stallLimit = 5
	trainer, err := NewTrainer(Config{
		Topology:   xorTopology,
		StallLimit: stallLimit,
		Rand:       rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if !math.IsInf(trainer.Best(), -1) {
		t.Fatalf("initial best: got=%f want=-Inf", trainer.Best())
	}
	constant := EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		return Evaluation{Fitness: 1}, nil
	})
	ctx := context.Background()

	// The first candidate always beats -Inf.
	report, err := trainer.Step(ctx, constant)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !report.Improved {
		t.Fatal("expected first generation to improve")
	}
	ref := trainer.Reference()

	for i := 1; i < stallLimit; i++ {
		report, err := trainer.Step(ctx, constant)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if report.Restarted || trainer.Reference() != ref {
			t.Fatalf("restarted after %d non-improving generations", i)
		}
	}

	report, err = trainer.Step(ctx, constant)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !report.Restarted {
		t.Fatalf("expected restart after %d non-improving generations", stallLimit)
	}
	if trainer.Reference() == ref {
		t.Fatal("expected a new reference network after restart")
	}
	if !math.IsInf(trainer.Best(), -1) {
		t.Fatalf("best after restart: got=%f want=-Inf", trainer.Best())
	}
	if trainer.Restarts() != 1 {
		t.Fatalf("restarts: got=%d want=1", trainer.Restarts())
	}

	// Next candidate wins again against the reset tracker.
	report, err = trainer.Step(ctx, constant)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !report.Improved {
		t.Fatal("expected improvement after restart")
	}
}

func TestTrainerRunStopsAtCap(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, MaxGenerations: 7, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	result, err := trainer.Run(context.Background(), EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		return Evaluation{Fitness: 0}, nil
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Solved || result.Generations != 7 || len(result.BestByGeneration) != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTrainerRunCapOnRestartScoresReference(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, MaxGenerations: 3, StallLimit: 2, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	result, err := trainer.Run(context.Background(), EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		return Evaluation{Fitness: 2}, nil
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Restarts != 1 || result.Fitness != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTrainerRunCapOnRestartRejectsNonFiniteReference(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, MaxGenerations: 3, StallLimit: 2, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	calls := 0
	_, err = trainer.Run(context.Background(), EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		calls++
		if calls > 3 {
			return Evaluation{Fitness: math.Inf(1)}, nil
		}
		return Evaluation{Fitness: 2}, nil
	}))
	if !errors.Is(err, ErrNonFiniteFitness) {
		t.Fatalf("expected ErrNonFiniteFitness, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected the fresh reference to be evaluated once, got %d calls", calls)
	}
}

func TestTrainerRunPropagatesEvaluatorError(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	boom := errors.New("boom")
	result, err := trainer.Run(context.Background(), EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		return Evaluation{}, boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected evaluator error, got %v", err)
	}
	if result.Network != nil {
		t.Fatal("expected no network on failure")
	}

	_, err = trainer.Run(context.Background(), EvaluatorFunc(func(context.Context, *nn.Network) (Evaluation, error) {
		return Evaluation{Fitness: math.NaN()}, nil
	}))
	if !errors.Is(err, ErrNonFiniteFitness) {
		t.Fatalf("expected ErrNonFiniteFitness, got %v", err)
	}
}

func TestTrainerRunHonorsContext(t *testing.T) {
	trainer, err := NewTrainer(Config{Topology: xorTopology, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := trainer.Run(ctx, xorEvaluator()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTrainerContinuesFromInitialNetwork(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	initial, err := nn.NewNetwork(rng, xorTopology)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	trainer, err := NewTrainer(Config{Topology: xorTopology, Rand: rng, Initial: initial})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if trainer.Reference() != initial {
		t.Fatal("expected initial network to be the reference")
	}
}
