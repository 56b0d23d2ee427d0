// Package config defines service configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// SCOUT_CONFIG, then SCOUT_* environment variables.
package config

import (
	"runtime"

	"github.com/okian/scout/internal/domain/listing"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the catalogue backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// DataFile is a YAML or JSON dataset loaded at start. Empty means
	// generated mock data.
	DataFile string `koanf:"data_file"`

	// WatchDataFile reloads the store whenever DataFile changes.
	WatchDataFile bool `koanf:"watch_data_file"`

	// Seed, SeedContributors, SeedProjects and SeedPendingRatio drive the
	// mock data generator.
	Seed             int64   `koanf:"seed"`
	SeedContributors int     `koanf:"seed_contributors"`
	SeedProjects     int     `koanf:"seed_projects"`
	SeedPendingRatio float64 `koanf:"seed_pending_ratio"`

	// DefaultPageSize applies when a listing request omits pageSize;
	// MaxPageSize clamps it.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// VoteQueueSize bounds the in-memory vote queue.
	VoteQueueSize int `koanf:"vote_queue_size"`

	// WorkerCount sets the number of vote workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many vote IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// ScoreWeights maps activity metrics (commits, prs, stars, followers) to
	// contribution score weights.
	ScoreWeights map[string]float64 `koanf:"score_weights"`

	// AdminToken guards the moderation routes. Empty disables them.
	AdminToken string `koanf:"admin_token"`

	// GitHubToken authenticates the offline importer.
	GitHubToken string `koanf:"github_token"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		Store:            StoreMemory,
		SQLitePath:       "scout.db",
		WatchDataFile:    true,
		Seed:             42,
		SeedContributors: 60,
		SeedProjects:     40,
		SeedPendingRatio: 0.1,
		DefaultPageSize:  15,
		MaxPageSize:      100,
		VoteQueueSize:    10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       100_000,
		ScoreWeights: map[string]float64{
			"commits":   1,
			"prs":       3,
			"stars":     0.5,
			"followers": 0.25,
		},
	}
}

// Limits returns the listing page size bounds.
func (c *Config) Limits() listing.Limits {
	return listing.Limits{DefaultPageSize: c.DefaultPageSize, MaxPageSize: c.MaxPageSize}
}
