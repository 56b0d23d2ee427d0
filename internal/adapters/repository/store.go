// Package repository defines the catalogue store interface and its backends.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/scout/internal/domain/model"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Counts summarizes the catalogue held by a store.
type Counts struct {
	Contributors int
	Projects     int
	Pending      int
}

// Store provides read/write access to contributors and projects.
//
// Slices returned by Contributors and Projects must be treated as read-only;
// the memory backend hands out its published snapshot.
type Store interface {
	// Contributors returns every contributor in insertion order.
	Contributors(ctx context.Context) ([]model.Contributor, error)
	// Contributor returns one contributor or ErrNotFound.
	Contributor(ctx context.Context, id string) (model.Contributor, error)

	// Projects returns every project, approved or not, in insertion order.
	Projects(ctx context.Context) ([]model.Project, error)
	// Project returns one project or ErrNotFound.
	Project(ctx context.Context, id string) (model.Project, error)

	// Replace swaps the whole catalogue for ds.
	Replace(ctx context.Context, ds model.Dataset) error
	// UpsertProject inserts p or overwrites the project with the same ID.
	UpsertProject(ctx context.Context, p model.Project) error
	// ApplyVote adjusts the vote counters of a project.
	ApplyVote(ctx context.Context, projectID string, dir model.Direction) (model.Project, error)
	// SetApproved flips the approval flag of a project.
	SetApproved(ctx context.Context, projectID string, approved bool) (model.Project, error)
	// DeleteProject removes a project. Unknown IDs return ErrNotFound.
	DeleteProject(ctx context.Context, projectID string) error

	Count(ctx context.Context) (Counts, error)
	Close() error
}

// Open creates the store named by backend. sqlitePath is used by the sqlite
// backend only.
func Open(backend, sqlitePath string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("%q: %w", backend, ErrUnknownBackend)
}

func countPending(projects []model.Project) int {
	n := 0
	for _, p := range projects {
		if !p.Approved {
			n++
		}
	}
	return n
}
