package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"trex/internal/config"
	"trex/internal/console"
	"trex/internal/scape"
	"trex/internal/storage"
	trexapi "trex/pkg/trex"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	case "scapes":
		return runScapes(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", cfg.Store.Kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", cfg.Store.Kind)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	defaults := config.Default().Trainer
	scapeName := fs.String("scape", defaults.Scape, "scape name (see `trexctl scapes`)")
	seed := fs.Int64("seed", defaults.Seed, "random seed")
	maxGenerations := fs.Int("max-generations", defaults.MaxGenerations, "generation cap (0 = until solved)")
	stallLimit := fs.Int("stall-limit", defaults.StallLimit, "restart after this many generations without improvement (0 = never, -1 = scape default)")
	massive := fs.Int("massive-percent", defaults.MassiveMutationPercent, "chance in percent that a generation mutates every unit")
	continueID := fs.String("continue-network-id", "", "start from a stored network instead of a random one")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scape":
			cfg.Trainer.Scape = *scapeName
		case "seed":
			cfg.Trainer.Seed = *seed
		case "max-generations":
			cfg.Trainer.MaxGenerations = *maxGenerations
		case "stall-limit":
			cfg.Trainer.StallLimit = *stallLimit
		case "massive-percent":
			cfg.Trainer.MassiveMutationPercent = *massive
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	percent := cfg.Trainer.MassiveMutationPercent
	summary, err := client.Train(ctx, trexapi.TrainRequest{
		Scape:                  cfg.Trainer.Scape,
		Seed:                   cfg.Trainer.Seed,
		MaxGenerations:         cfg.Trainer.MaxGenerations,
		StallLimit:             cfg.Trainer.StallLimit,
		MassiveMutationPercent: &percent,
		ContinueNetworkID:      *continueID,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(map[string]any{
			"run_id":        summary.RunID,
			"network_id":    summary.NetworkID,
			"scape":         summary.Scape,
			"fitness":       summary.Fitness,
			"solved":        summary.Solved,
			"generations":   summary.Generations,
			"restarts":      summary.Restarts,
			"artifacts_dir": summary.ArtifactsDir,
		})
	}
	fmt.Printf("run_id=%s network_id=%s scape=%s fitness=%g solved=%t generations=%s restarts=%d artifacts=%s\n",
		summary.RunID,
		summary.NetworkID,
		summary.Scape,
		summary.Fitness,
		summary.Solved,
		humanize.Comma(int64(summary.Generations)),
		summary.Restarts,
		summary.ArtifactsDir,
	)
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	networkID := fs.String("network-id", "", "stored network id")
	runID := fs.String("run-id", "", "replay the network trained by this run")
	latest := fs.Bool("latest", false, "replay the network of the most recent run")
	scapeName := fs.String("scape", "", "scape override")
	jsonOut := fs.Bool("json", false, "emit the replay result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	replay, err := client.Replay(ctx, trexapi.ReplayRequest{
		NetworkID: *networkID,
		RunID:     *runID,
		Latest:    *latest,
		Scape:     *scapeName,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(map[string]any{
			"network_id": replay.NetworkID,
			"run_id":     replay.RunID,
			"scape":      replay.Scape,
			"fitness":    replay.Fitness,
			"solved":     replay.Solved,
			"trace":      replay.Trace,
		})
	}
	fmt.Printf("network_id=%s scape=%s fitness=%g solved=%t\n", replay.NetworkID, replay.Scape, replay.Fitness, replay.Solved)
	printTrace(replay.Trace)
	fmt.Print(replay.Rendered)
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	networkID := fs.String("network-id", "", "stored network id")
	runID := fs.String("run-id", "", "show the settings a run was trained with")
	latest := fs.Bool("latest", false, "show the settings of the most recent run")
	jsonOut := fs.Bool("json", false, "emit the stored document as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	runSelected := *runID != "" || *latest
	if *networkID != "" && runSelected {
		return errors.New("use either --network-id or a run selector, not both")
	}
	if *networkID == "" && !runSelected {
		return errors.New("show requires --network-id, --run-id or --latest")
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if runSelected {
		cfg, err := client.RunConfig(ctx, trexapi.RunConfigRequest{RunID: *runID, Latest: *latest})
		if err != nil {
			return err
		}
		if *jsonOut {
			return writeJSON(cfg)
		}
		fmt.Printf("run_id=%s scape=%s seed=%d max_generations=%s stall_limit=%d massive_mutation_percent=%d store=%s continue_network_id=%s\n",
			cfg.RunID,
			cfg.Scape,
			cfg.Seed,
			humanize.Comma(int64(cfg.MaxGenerations)),
			cfg.StallLimit,
			cfg.MassiveMutationPercent,
			cfg.StoreKind,
			cfg.ContinueNetworkID,
		)
		return nil
	}

	rec, err := client.Network(ctx, *networkID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(rec)
	}
	net, err := storage.RestoreNetwork(rec)
	if err != nil {
		return err
	}
	fmt.Printf("network_id=%s topology=%s\n", rec.ID, net.Topology())
	return console.WriteNetwork(os.Stdout, net)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, trexapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID        string  `json:"run_id"`
			NetworkID    string  `json:"network_id"`
			CreatedAtUTC string  `json:"created_at_utc"`
			Scape        string  `json:"scape"`
			Seed         int64   `json:"seed"`
			Generations  int     `json:"generations"`
			Restarts     int     `json:"restarts"`
			BestFitness  float64 `json:"best_fitness"`
			Solved       bool    `json:"solved"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:        r.RunID,
				NetworkID:    r.NetworkID,
				CreatedAtUTC: r.CreatedAtUTC.Format(time.RFC3339Nano),
				Scape:        r.Scape,
				Seed:         r.Seed,
				Generations:  r.Generations,
				Restarts:     r.Restarts,
				BestFitness:  r.BestFitness,
				Solved:       r.Solved,
			})
		}
		return writeJSON(items)
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s created=%q scape=%s seed=%d gens=%s restarts=%d best_fitness=%g solved=%t network_id=%s\n",
			r.RunID,
			humanize.Time(r.CreatedAtUTC),
			r.Scape,
			r.Seed,
			humanize.Comma(int64(r.Generations)),
			r.Restarts,
			r.BestFitness,
			r.Solved,
			r.NetworkID,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("fitness requires --run-id or --latest")
	}
	if *limit < 0 {
		*limit = 0
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, trexapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return writeJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%g\n", i+1, best)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	networkID := fs.String("network-id", "", "write this stored network to --out as JSON")
	runID := fs.String("run-id", "", "copy this run's artifacts into --out")
	latest := fs.Bool("latest", false, "copy the most recent run's artifacts into --out")
	out := fs.String("out", "", "network file path, or artifacts output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("export requires --out")
	}
	if *networkID != "" && (*runID != "" || *latest) {
		return errors.New("use either --network-id or a run selector, not both")
	}
	if *networkID == "" && *runID == "" && !*latest {
		return errors.New("export requires --network-id, --run-id or --latest")
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *networkID != "" {
		if err := client.ExportNetwork(ctx, *networkID, *out); err != nil {
			return err
		}
		fmt.Printf("exported network_id=%s to=%s\n", *networkID, *out)
		return nil
	}

	summary, err := client.ExportRun(ctx, trexapi.ExportRunRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *out,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	common := registerCommonFlags(fs)
	in := fs.String("in", "", "network JSON file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" && fs.NArg() == 1 {
		*in = fs.Arg(0)
	}
	if *in == "" {
		return errors.New("import requires --in")
	}

	client, _, err := common.client(fs)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	id, err := client.ImportNetwork(ctx, *in)
	if err != nil {
		return err
	}
	fmt.Printf("imported network_id=%s from=%s\n", id, *in)
	return nil
}

func runScapes(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("scapes", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, name := range scape.Names() {
		sc, err := scape.Lookup(name)
		if err != nil {
			return err
		}
		stall := 0
		if limiter, ok := sc.(scape.StallLimiter); ok {
			stall = limiter.StallLimit()
		}
		fmt.Printf("scape=%s topology=%s stall_limit=%d\n", sc.Name(), sc.Topology(), stall)
	}
	return nil
}

func printTrace(trace scape.Trace) {
	keys := make([]string, 0, len(trace))
	for k := range trace {
		if k == "board" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%v\n", k, trace[k])
	}
	if board, ok := trace["board"].(string); ok {
		fmt.Println(strings.TrimRight(board, "\n"))
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: trexctl <init|reset|train|replay|show|runs|fitness|export|import|scapes> [flags]", msg)
}
