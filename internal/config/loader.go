package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvPrefix     = "SCOUT_"
	EnvConfigFile = "SCOUT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if SCOUT_CONFIG is set
//  3. env (prefix SCOUT_); a double underscore nests, so
//     SCOUT_SCORE_WEIGHTS__PRS sets score_weights.prs
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == strings.TrimPrefix(EnvConfigFile, EnvPrefix) {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading environment: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	case c.Store == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "":
		return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
	case c.DefaultPageSize < 1 || c.MaxPageSize < 1:
		return fmt.Errorf("%w: page sizes must be positive", ErrInvalidConfig)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("%w: default_page_size %d exceeds max_page_size %d", ErrInvalidConfig, c.DefaultPageSize, c.MaxPageSize)
	case c.SeedPendingRatio < 0 || c.SeedPendingRatio > 1:
		return fmt.Errorf("%w: seed_pending_ratio must be within [0, 1]", ErrInvalidConfig)
	case c.VoteQueueSize < 1:
		return fmt.Errorf("%w: vote_queue_size must be positive", ErrInvalidConfig)
	}
	for metric, w := range c.ScoreWeights {
		if w < 0 {
			return fmt.Errorf("%w: score weight %q is negative", ErrInvalidConfig, metric)
		}
	}
	return nil
}
