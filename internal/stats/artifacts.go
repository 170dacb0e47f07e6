package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"trex/internal/model"
)

const (
	configFile         = "config.json"
	fitnessHistoryFile = "fitness_history.json"
	fitnessSeriesFile  = "fitness_series.csv"
	networkFile        = "network.json"
	traceFile          = "trace.json"
)

type RunConfig struct {
	RunID                  string `json:"run_id"`
	Scape                  string `json:"scape"`
	Seed                   int64  `json:"seed"`
	MaxGenerations         int    `json:"max_generations"`
	StallLimit             int    `json:"stall_limit"`
	MassiveMutationPercent int    `json:"massive_mutation_percent"`
	ContinueNetworkID      string `json:"continue_network_id,omitempty"`
	StoreKind              string `json:"store_kind"`
}

type RunArtifacts struct {
	Config           RunConfig           `json:"config"`
	BestByGeneration []float64           `json:"best_by_generation"`
	FinalBestFitness float64             `json:"final_best_fitness"`
	Solved           bool                `json:"solved"`
	Restarts         int                 `json:"restarts"`
	Network          model.NetworkRecord `json:"network"`
	FinalTrace       map[string]any      `json:"final_trace,omitempty"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), map[string]any{
		"best_by_generation": artifacts.BestByGeneration,
		"final_best_fitness": artifacts.FinalBestFitness,
		"solved":             artifacts.Solved,
		"restarts":           artifacts.Restarts,
	}); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, networkFile), artifacts.Network); err != nil {
		return "", err
	}
	if artifacts.FinalTrace != nil {
		if err := writeJSON(filepath.Join(runDir, traceFile), artifacts.FinalTrace); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// ExportRunArtifacts copies a run directory into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, fitnessHistoryFile, fitnessSeriesFile, networkFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	tracePath := filepath.Join(src, traceFile)
	if _, err := os.Stat(tracePath); err == nil {
		if err := copyFile(tracePath, filepath.Join(dst, traceFile)); err != nil {
			return "", err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, configFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func WriteFitnessSeries(runDir string, bestByGeneration []float64) error {
	file, err := os.Create(filepath.Join(runDir, fitnessSeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, fitnessSeriesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fitness series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
