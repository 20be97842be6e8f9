// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Nil fields are unset.
type FileConfig struct {
	Scoring ScoringConfig `toml:"scoring" koanf:"scoring"`
	Storage StorageConfig `toml:"storage" koanf:"storage"`
	Log     LogConfig     `toml:"log" koanf:"log"`
}

// ScoringConfig maps session defaults.
type ScoringConfig struct {
	Round        *string `toml:"round" koanf:"round"`
	Bow          *string `toml:"bow" koanf:"bow"`
	ArrowsPerEnd *int    `toml:"arrows-per-end" koanf:"arrows-per-end"`
	TotalEnds    *int    `toml:"total-ends" koanf:"total-ends"`
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	Path      *string `toml:"path" koanf:"path"`
	Namespace *string `toml:"namespace" koanf:"namespace"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level" koanf:"level"`
	File  *string `toml:"file" koanf:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Load reads the TOML file and layers SCORECARD_* environment variables over it.
func Load(path string) (FileConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	env, err := LoadEnv()
	if err != nil {
		return FileConfig{}, err
	}
	return Merge(cfg, env), nil
}

// Merge returns base with every set field of over applied.
func Merge(base, over FileConfig) FileConfig {
	out := base
	mergeField(&out.Scoring.Round, over.Scoring.Round)
	mergeField(&out.Scoring.Bow, over.Scoring.Bow)
	mergeField(&out.Scoring.ArrowsPerEnd, over.Scoring.ArrowsPerEnd)
	mergeField(&out.Scoring.TotalEnds, over.Scoring.TotalEnds)
	mergeField(&out.Storage.Path, over.Storage.Path)
	mergeField(&out.Storage.Namespace, over.Storage.Namespace)
	mergeField(&out.Log.Level, over.Log.Level)
	mergeField(&out.Log.File, over.Log.File)
	return out
}

func mergeField[T any](target **T, value *T) {
	if value == nil {
		return
	}
	v := *value
	*target = &v
}

// DefaultTemplate is written by the config command when no file exists.
func DefaultTemplate(defaultRound, defaultBow string) string {
	return fmt.Sprintf(`# scorecard configuration
# Uncomment a value to enable it. SCORECARD_* env vars override the file; CLI flags override both.

[scoring]
# round = %q           # Round id (see: scorecard rounds)
# bow = %q                 # Bow id (see: scorecard bows)
# arrows-per-end = 3             # Only for configurable rounds
# total-ends = 10                # Only for configurable rounds

[storage]
# path = %q
# namespace = "archers-scorecard"

[log]
# level = "info"                 # debug, info, warn, error
# file = %q
`,
		defaultRound,
		defaultBow,
		DefaultDBPath(),
		DefaultLogPath(),
	)
}
