package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCORECARD_"

// envKey maps SCORECARD_SCORING_ARROWS_PER_END to scoring.arrows-per-end.
func envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok {
		return name
	}
	return section + "." + strings.ReplaceAll(key, "_", "-")
}

// LoadEnv decodes SCORECARD_* environment variables into a FileConfig.
func LoadEnv() (FileConfig, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return FileConfig{}, fmt.Errorf("failed to load env config: %w", err)
	}
	var cfg FileConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode env config: %w", err)
	}
	return cfg, nil
}
