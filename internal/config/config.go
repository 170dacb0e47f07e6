// Package config loads trexctl settings from INI or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"trex/internal/nn"
)

// ScapeStallDefault asks the scape for its own stall limit.
const ScapeStallDefault = -1

type Config struct {
	Trainer   TrainerConfig   `yaml:"trainer"`
	Store     StoreConfig     `yaml:"store"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
}

type TrainerConfig struct {
	Scape                  string `ini:"scape" yaml:"scape"`
	Seed                   int64  `ini:"seed" yaml:"seed"`
	MaxGenerations         int    `ini:"max_generations" yaml:"max_generations"`
	StallLimit             int    `ini:"stall_limit" yaml:"stall_limit"`
	MassiveMutationPercent int    `ini:"massive_mutation_percent" yaml:"massive_mutation_percent"`
}

type StoreConfig struct {
	Kind   string `ini:"kind" yaml:"kind"`
	DBPath string `ini:"db_path" yaml:"db_path"`
}

type ArtifactsConfig struct {
	Dir string `ini:"dir" yaml:"dir"`
}

func Default() Config {
	return Config{
		Trainer: TrainerConfig{
			Scape:                  "xor",
			Seed:                   1,
			MaxGenerations:         0,
			StallLimit:             ScapeStallDefault,
			MassiveMutationPercent: nn.DefaultMassiveMutationPercent,
		},
		Store: StoreConfig{
			Kind:   "sqlite",
			DBPath: "trex.db",
		},
		Artifacts: ArtifactsConfig{
			Dir: "runs",
		},
	}
}

// Load reads path on top of Default. An empty path returns the defaults.
// The format follows the extension: .ini/.cfg/.conf or .yaml/.yml.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		if err := loadINI(path, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("config error: unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	if err := file.Section("trainer").MapTo(&cfg.Trainer); err != nil {
		return fmt.Errorf("failed to map [trainer] section: %w", err)
	}
	if err := file.Section("store").MapTo(&cfg.Store); err != nil {
		return fmt.Errorf("failed to map [store] section: %w", err)
	}
	if err := file.Section("artifacts").MapTo(&cfg.Artifacts); err != nil {
		return fmt.Errorf("failed to map [artifacts] section: %w", err)
	}
	cfg.Trainer.Scape = strings.TrimSpace(cfg.Trainer.Scape)
	cfg.Store.Kind = strings.TrimSpace(cfg.Store.Kind)
	return nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Trainer.MassiveMutationPercent < 0 || c.Trainer.MassiveMutationPercent > 100 {
		return fmt.Errorf("config error: massive_mutation_percent must be in [0,100], got %d", c.Trainer.MassiveMutationPercent)
	}
	if c.Trainer.MaxGenerations < 0 {
		return fmt.Errorf("config error: max_generations must be >= 0, got %d", c.Trainer.MaxGenerations)
	}
	if c.Trainer.StallLimit < ScapeStallDefault {
		return fmt.Errorf("config error: stall_limit must be >= %d, got %d", ScapeStallDefault, c.Trainer.StallLimit)
	}
	switch c.Store.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("config error: unsupported store kind %q", c.Store.Kind)
	}
	return nil
}
