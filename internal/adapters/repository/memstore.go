package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/metrics"
)

// snapshot is an immutable view of the catalogue. It is never modified after
// being published; writers build a new one.
type snapshot struct {
	contributors  []model.Contributor
	projects      []model.Project
	contributorAt map[string]int
	projectAt     map[string]int
}

func newSnapshot(contributors []model.Contributor, projects []model.Project) *snapshot {
	s := &snapshot{
		contributors:  contributors,
		projects:      projects,
		contributorAt: make(map[string]int, len(contributors)),
		projectAt:     make(map[string]int, len(projects)),
	}
	for i, c := range contributors {
		s.contributorAt[c.ID] = i
	}
	for i, p := range projects {
		s.projectAt[p.ID] = i
	}
	return s
}

// MemoryStore keeps the catalogue in memory. Reads load the current snapshot
// without locking; writes are serialized and publish a fresh snapshot.
type MemoryStore struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(newSnapshot(nil, nil))
	return s
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

func (s *MemoryStore) Contributors(ctx context.Context) ([]model.Contributor, error) {
	return s.snap.Load().contributors, ctx.Err()
}

func (s *MemoryStore) Contributor(ctx context.Context, id string) (model.Contributor, error) {
	if err := ctx.Err(); err != nil {
		return model.Contributor{}, err
	}
	snap := s.snap.Load()
	i, ok := snap.contributorAt[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Contributor{}, fmt.Errorf("contributor %q: %w", id, ErrNotFound)
	}
	return snap.contributors[i], nil
}

func (s *MemoryStore) Projects(ctx context.Context) ([]model.Project, error) {
	return s.snap.Load().projects, ctx.Err()
}

func (s *MemoryStore) Project(ctx context.Context, id string) (model.Project, error) {
	if err := ctx.Err(); err != nil {
		return model.Project{}, err
	}
	snap := s.snap.Load()
	i, ok := snap.projectAt[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return snap.projects[i], nil
}

// Replace publishes ds as the new catalogue. Records with an empty ID are
// rejected; later duplicates of an ID win.
func (s *MemoryStore) Replace(ctx context.Context, ds model.Dataset) error {
	defer observe(BackendMemory, "replace", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}

	contributors := make([]model.Contributor, 0, len(ds.Contributors))
	seenC := make(map[string]int, len(ds.Contributors))
	for _, c := range ds.Contributors {
		if c.ID == "" {
			return fmt.Errorf("contributor %q without id: %w", c.Name, ErrInvalidRecord)
		}
		c = cloneContributor(c)
		if i, dup := seenC[c.ID]; dup {
			contributors[i] = c
			continue
		}
		seenC[c.ID] = len(contributors)
		contributors = append(contributors, c)
	}

	projects := make([]model.Project, 0, len(ds.Projects))
	seenP := make(map[string]int, len(ds.Projects))
	for _, p := range ds.Projects {
		if p.ID == "" {
			return fmt.Errorf("project %q without id: %w", p.Name, ErrInvalidRecord)
		}
		p = cloneProject(p)
		if i, dup := seenP[p.ID]; dup {
			projects[i] = p
			continue
		}
		seenP[p.ID] = len(projects)
		projects = append(projects, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Store(newSnapshot(contributors, projects))
	s.publishCounts()
	return nil
}

func (s *MemoryStore) UpsertProject(ctx context.Context, p model.Project) error {
	defer observe(BackendMemory, "upsert_project", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("project %q without id: %w", p.Name, ErrInvalidRecord)
	}
	p = cloneProject(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snap.Load()
	projects := slices.Clone(cur.projects)
	if i, ok := cur.projectAt[p.ID]; ok {
		projects[i] = p
	} else {
		projects = append(projects, p)
	}
	s.snap.Store(newSnapshot(cur.contributors, projects))
	s.publishCounts()
	return nil
}

func (s *MemoryStore) ApplyVote(ctx context.Context, projectID string, dir model.Direction) (model.Project, error) {
	defer observe(BackendMemory, "apply_vote", time.Now())
	if !dir.Valid() {
		return model.Project{}, fmt.Errorf("%q: %w", dir, ErrInvalidVote)
	}
	return s.updateProject(ctx, projectID, func(p *model.Project) {
		if dir == model.Up {
			p.Upvotes++
		} else {
			p.Downvotes++
		}
	})
}

func (s *MemoryStore) SetApproved(ctx context.Context, projectID string, approved bool) (model.Project, error) {
	defer observe(BackendMemory, "set_approved", time.Now())
	return s.updateProject(ctx, projectID, func(p *model.Project) {
		p.Approved = approved
	})
}

func (s *MemoryStore) updateProject(ctx context.Context, id string, mutate func(*model.Project)) (model.Project, error) {
	if err := ctx.Err(); err != nil {
		return model.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snap.Load()
	i, ok := cur.projectAt[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	projects := slices.Clone(cur.projects)
	mutate(&projects[i])
	projects[i].UpdatedAt = s.now().UTC()
	s.snap.Store(&snapshot{
		contributors:  cur.contributors,
		projects:      projects,
		contributorAt: cur.contributorAt,
		projectAt:     cur.projectAt,
	})
	s.publishCounts()
	return projects[i], nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	defer observe(BackendMemory, "delete_project", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snap.Load()
	i, ok := cur.projectAt[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	projects := slices.Delete(slices.Clone(cur.projects), i, i+1)
	s.snap.Store(newSnapshot(cur.contributors, projects))
	s.publishCounts()
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (Counts, error) {
	snap := s.snap.Load()
	return Counts{
		Contributors: len(snap.contributors),
		Projects:     len(snap.projects),
		Pending:      countPending(snap.projects),
	}, ctx.Err()
}

// Close is a no-op; it satisfies Store.
func (s *MemoryStore) Close() error { return nil }

// publishCounts must be called with s.mu held.
func (s *MemoryStore) publishCounts() {
	snap := s.snap.Load()
	metrics.UpdateCatalogue(len(snap.contributors), len(snap.projects), countPending(snap.projects))
}

func cloneContributor(c model.Contributor) model.Contributor {
	c.Skills = slices.Clone(c.Skills)
	c.Interests = slices.Clone(c.Interests)
	return c
}

func cloneProject(p model.Project) model.Project {
	p.Topics = slices.Clone(p.Topics)
	p.Tags = slices.Clone(p.Tags)
	p.Languages = maps.Clone(p.Languages)
	return p
}
