// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/adapters/dataset"
	"github.com/okian/scout/internal/adapters/mq/queue"
	"github.com/okian/scout/internal/adapters/mq/worker"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/dedupe"
	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/internal/seed"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Listing kinds used for metrics.
const (
	kindContributors = "contributors"
	kindProjects     = "projects"
	kindSuggestions  = "suggestions"
)

// Service owns the catalogue store, the vote pipeline and the dataset
// watcher, and answers every API call.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	scorer  scoring.Scorer
	watcher *dataset.Watcher

	// Configuration
	backend     string
	sqlitePath  string
	dataFile    string
	watchData   bool
	seed        seed.Options
	limits      listing.Limits
	workerCount int
	queueSize   int
	dedupeSize  int
	weights     map[string]float64

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:     repository.BackendMemory,
		seed:        seed.Options{Seed: seed.DefaultSeed},
		limits:      listing.DefaultLimits,
		workerCount: 0, // one per CPU
		queueSize:   10_000,
		dedupeSize:  dedupe.DefaultMaxSize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store, loads the catalogue and starts the vote workers
// and, if configured, the dataset watcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting discovery service...")

	if s.store == nil {
		store, err := repository.Open(s.backend, s.sqlitePath)
		if err != nil {
			return fmt.Errorf("opening %s store: %w", s.backend, err)
		}
		s.store = store
	}
	s.scorer = scoring.NewWeightedScorer(scoring.WithWeights(s.weights))

	ds, err := s.initialDataset(ctx)
	if err == nil {
		err = reloadInto(s.store, s.scorer)(ctx, ds)
	}
	if err != nil {
		if cerr := s.store.Close(); cerr != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(cerr))
		}
		s.store = nil
		return fmt.Errorf("loading catalogue: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(context.WithoutCancel(ctx))

	if s.dataFile != "" && s.watchData {
		s.watcher = dataset.NewWatcher(s.dataFile, reloadInto(s.store, s.scorer))
		if err := s.watcher.Start(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn(ctx, "dataset watch disabled", logger.Error(err))
			s.watcher = nil
		}
	}

	s.started = true
	s.logger.Info(ctx, "discovery service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("contributors", len(ds.Contributors)),
		logger.Int("projects", len(ds.Projects)),
	)

	return nil
}

func (s *Service) initialDataset(ctx context.Context) (model.Dataset, error) {
	if s.dataFile != "" {
		ds, err := dataset.Load(ctx, s.dataFile)
		if err != nil {
			return model.Dataset{}, fmt.Errorf("loading data file: %w", err)
		}
		s.logger.Info(ctx, "loaded data file", logger.String("path", s.dataFile))
		return ds, nil
	}
	ds, err := seed.Generate(ctx, s.seed)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("generating mock data: %w", err)
	}
	s.logger.Info(ctx, "using generated mock data", logger.Int64("seed", s.seed.Seed))
	return ds, nil
}

// reloadInto returns a reload that scores contributors arriving without a
// score and replaces the contents of store.
func reloadInto(store repository.Store, scorer scoring.Scorer) dataset.ReloadFunc {
	return func(ctx context.Context, ds model.Dataset) error {
		if err := scoring.FillMissing(ctx, scorer, ds.Contributors); err != nil {
			return err
		}
		return store.Replace(ctx, ds)
	}
}

// Stop gracefully shuts down the service. Queued votes are applied before
// the store is closed.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping discovery service...")

	if s.watcher != nil {
		s.watcher.Stop()
	}

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "vote workers did not drain", logger.Error(err))
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "discovery service stopped")
}

// Started reports whether Start completed and Stop has not run.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// components is the set of parts a call works on, read together under s.mu
// so a concurrent Stop/Start cannot hand out a mix of old and new ones.
type components struct {
	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
}

func (s *Service) running() (components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return components{}, ErrNotStarted
	}
	return components{store: s.store, deduper: s.deduper, queue: s.queue, pool: s.pool}, nil
}

// ListContributors runs the contributor listing pipeline.
func (s *Service) ListContributors(ctx context.Context, p listing.Params) (types.Page[model.Contributor], error) {
	c, err := s.running()
	if err != nil {
		return types.Page[model.Contributor]{}, err
	}
	start := time.Now()
	all, err := c.store.Contributors(ctx)
	if err != nil {
		return types.Page[model.Contributor]{}, err
	}
	p = p.Normalize(s.limits)
	res := listing.Contributors(all, p)
	metrics.RecordListing(kindContributors, p.SortKey, res.Total, msSince(start))
	return types.NewPage(res, p.Page, p.PageSize), nil
}

// ListProjects runs the project listing pipeline over public projects.
func (s *Service) ListProjects(ctx context.Context, p listing.Params) (types.Page[model.Project], error) {
	p.Status = listing.StatusApproved
	return s.listProjects(ctx, kindProjects, p)
}

// ListSuggestions runs the project listing pipeline over pending suggestions.
func (s *Service) ListSuggestions(ctx context.Context, p listing.Params) (types.Page[model.Project], error) {
	p.Status = listing.StatusPending
	return s.listProjects(ctx, kindSuggestions, p)
}

func (s *Service) listProjects(ctx context.Context, kind string, p listing.Params) (types.Page[model.Project], error) {
	c, err := s.running()
	if err != nil {
		return types.Page[model.Project]{}, err
	}
	start := time.Now()
	all, err := c.store.Projects(ctx)
	if err != nil {
		return types.Page[model.Project]{}, err
	}
	p = p.Normalize(s.limits)
	res := listing.Projects(all, p)
	metrics.RecordListing(kind, p.SortKey, res.Total, msSince(start))
	return types.NewPage(res, p.Page, p.PageSize), nil
}

// GetContributor returns one contributor.
func (s *Service) GetContributor(ctx context.Context, id string) (model.Contributor, error) {
	c, err := s.running()
	if err != nil {
		return model.Contributor{}, err
	}
	return c.store.Contributor(ctx, id)
}

// GetProject returns one public project. Pending or hidden projects are
// reported as not found.
func (s *Service) GetProject(ctx context.Context, id string) (model.Project, error) {
	c, err := s.running()
	if err != nil {
		return model.Project{}, err
	}
	return publicProject(ctx, c.store, id)
}

func publicProject(ctx context.Context, store repository.Store, id string) (model.Project, error) {
	p, err := store.Project(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	if !p.Public() {
		return model.Project{}, fmt.Errorf("project %q: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

// SubmitVote validates a vote, drops duplicates by vote ID and queues the
// rest for the workers. duplicate is true when the vote ID was already seen.
func (s *Service) SubmitVote(ctx context.Context, v model.Vote) (duplicate bool, err error) {
	c, err := s.running()
	if err != nil {
		return false, err
	}
	v.VoteID = strings.TrimSpace(v.VoteID)
	v.ProjectID = strings.TrimSpace(v.ProjectID)
	switch {
	case v.VoteID == "":
		err = fmt.Errorf("%w: vote_id is required", ErrInvalidVote)
	case v.ProjectID == "":
		err = fmt.Errorf("%w: project_id is required", ErrInvalidVote)
	case !v.Direction.Valid():
		err = fmt.Errorf("%w: direction must be %q or %q", ErrInvalidVote, model.Up, model.Down)
	}
	if err != nil {
		metrics.RecordVoteRejected()
		return false, err
	}
	if _, err := publicProject(ctx, c.store, v.ProjectID); err != nil {
		metrics.RecordVoteRejected()
		return false, err
	}
	if v.TS.IsZero() {
		v.TS = s.now().UTC()
	}

	if c.deduper.SeenAndRecord(ctx, v.VoteID) {
		metrics.RecordVoteDuplicate()
		s.logger.Debug(ctx, "duplicate vote, skipping", logger.String("voteID", v.VoteID))
		return true, nil
	}

	if err := c.queue.Enqueue(ctx, v); err != nil {
		c.deduper.Unrecord(ctx, v.VoteID)
		switch {
		case errors.Is(err, queue.ErrFull):
			return false, ErrQueueFull
		case errors.Is(err, queue.ErrClosed):
			return false, ErrUnavailable
		}
		return false, err
	}
	metrics.RecordVoteAccepted()
	return false, nil
}

// SuggestProject stores p as a pending suggestion with a fresh ID. Counters
// and moderation fields supplied by the caller are ignored.
func (s *Service) SuggestProject(ctx context.Context, p model.Project) (model.Project, error) {
	c, err := s.running()
	if err != nil {
		return model.Project{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Owner = strings.TrimSpace(p.Owner)
	if p.Name == "" {
		return model.Project{}, fmt.Errorf("%w: name is required", ErrInvalidProject)
	}
	if p.Owner == "" {
		return model.Project{}, fmt.Errorf("%w: owner is required", ErrInvalidProject)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return model.Project{}, fmt.Errorf("generating project id: %w", err)
	}

	now := s.now().UTC()
	p.ID = id.String()
	p.Approved = false
	p.Visible = true
	p.Upvotes, p.Downvotes = 0, 0
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Topics == nil {
		p.Topics = []string{}
	}
	tags := make([]model.Tag, len(p.Tags))
	for i, t := range p.Tags {
		t.Verified = false
		tags[i] = t
	}
	p.Tags = tags
	if p.Languages == nil {
		p.Languages = map[string]int{}
	}

	if err := c.store.UpsertProject(ctx, p); err != nil {
		return model.Project{}, err
	}
	metrics.RecordSuggestion()
	s.logger.Info(ctx, "project suggested",
		logger.String("projectID", p.ID),
		logger.String("name", p.Name),
		logger.String("suggestedBy", p.SuggestedBy))
	return p, nil
}

// ApproveProject makes a suggestion public.
func (s *Service) ApproveProject(ctx context.Context, id string) (model.Project, error) {
	c, err := s.running()
	if err != nil {
		return model.Project{}, err
	}
	p, err := c.store.SetApproved(ctx, id, true)
	if err != nil {
		return model.Project{}, err
	}
	metrics.RecordModeration("approve")
	s.logger.Info(ctx, "project approved", logger.String("projectID", id))
	return p, nil
}

// RejectProject deletes a project.
func (s *Service) RejectProject(ctx context.Context, id string) error {
	c, err := s.running()
	if err != nil {
		return err
	}
	if err := c.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	metrics.RecordModeration("reject")
	s.logger.Info(ctx, "project rejected", logger.String("projectID", id))
	return nil
}

// GetStats returns catalogue and vote pipeline statistics.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	c, err := s.running()
	if err != nil {
		return types.Stats{}, err
	}
	counts, err := c.store.Count(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	depth := c.queue.Len(ctx)
	metrics.UpdateQueueSize(depth)
	return types.Stats{
		Contributors:     counts.Contributors,
		Projects:         counts.Projects,
		ApprovedProjects: counts.Projects - counts.Pending,
		PendingProjects:  counts.Pending,
		VotesApplied:     c.pool.Applied(),
		QueueDepth:       depth,
		DedupeSize:       c.deduper.Size(),
	}, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
