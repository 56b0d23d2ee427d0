package service

import (
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/seed"
	"github.com/okian/scout/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a ready store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreBackend selects the store opened on Start when none is injected.
func WithStoreBackend(backend, sqlitePath string) Option {
	return func(s *Service) {
		s.backend = backend
		s.sqlitePath = sqlitePath
	}
}

// WithDataFile loads the catalogue from path instead of generated data and,
// when watch is set, reloads it on change.
func WithDataFile(path string, watch bool) Option {
	return func(s *Service) {
		s.dataFile = path
		s.watchData = watch
	}
}

// WithSeed sets the generator options used when no data file is configured.
func WithSeed(opts seed.Options) Option {
	return func(s *Service) {
		s.seed = opts
	}
}

// WithLimits sets the listing page size bounds.
func WithLimits(l listing.Limits) Option {
	return func(s *Service) {
		s.limits = l
	}
}

// WithWorkerCount sets the number of vote workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the vote queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many vote IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScoreWeights sets the contribution score weights.
func WithScoreWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.weights = weights
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
