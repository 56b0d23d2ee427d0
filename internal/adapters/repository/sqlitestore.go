package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/scout/internal/adapters/repository/migrations"
	"github.com/okian/scout/internal/domain/model"
)

// SQLiteStore persists the catalogue in a SQLite database. Sets and maps are
// stored as JSON text columns; insertion order is kept by an autoincrement seq.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	now         func() time.Time
	busyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the database at path and applies pending
// migrations. The path ":memory:" opens a private in-memory database.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{path: path, now: time.Now, busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

const contributorColumns = `id, name, handle, bio, location, avatar_url, skills, experience, interests,
	score, commits, pull_requests, followers, stars, joined_at`

const projectColumns = `id, name, owner, description, repo_url, topics, tags, languages,
	stars, forks, upvotes, downvotes, approved, visible, suggested_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) Contributors(ctx context.Context) ([]model.Contributor, error) {
	defer observe(BackendSQLite, "contributors", time.Now())
	rows, err := s.db.QueryContext(ctx, "SELECT "+contributorColumns+" FROM contributors ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying contributors: %w", err)
	}
	defer rows.Close()

	out := []model.Contributor{}
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Contributor(ctx context.Context, id string) (model.Contributor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+contributorColumns+" FROM contributors WHERE id = ?", id)
	c, err := scanContributor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contributor{}, fmt.Errorf("contributor %q: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *SQLiteStore) Projects(ctx context.Context) ([]model.Project, error) {
	defer observe(BackendSQLite, "projects", time.Now())
	rows, err := s.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Project(ctx context.Context, id string) (model.Project, error) {
	return s.project(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) project(ctx context.Context, q queryRower, id string) (model.Project, error) {
	row := q.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return p, err
}

// Replace rewrites both tables inside one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, ds model.Dataset) error {
	defer observe(BackendSQLite, "replace", time.Now())
	for _, c := range ds.Contributors {
		if c.ID == "" {
			return fmt.Errorf("contributor %q without id: %w", c.Name, ErrInvalidRecord)
		}
	}
	for _, p := range ds.Projects {
		if p.ID == "" {
			return fmt.Errorf("project %q without id: %w", p.Name, ErrInvalidRecord)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM contributors"); err != nil {
		return fmt.Errorf("clearing contributors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}
	for _, c := range ds.Contributors {
		if err := upsertContributor(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, p := range ds.Projects {
		if err := upsertProject(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dataset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertProject(ctx context.Context, p model.Project) error {
	defer observe(BackendSQLite, "upsert_project", time.Now())
	if p.ID == "" {
		return fmt.Errorf("project %q without id: %w", p.Name, ErrInvalidRecord)
	}
	return upsertProject(ctx, s.db, p)
}

func (s *SQLiteStore) ApplyVote(ctx context.Context, projectID string, dir model.Direction) (model.Project, error) {
	defer observe(BackendSQLite, "apply_vote", time.Now())
	var column string
	switch dir {
	case model.Up:
		column = "upvotes"
	case model.Down:
		column = "downvotes"
	default:
		return model.Project{}, fmt.Errorf("%q: %w", dir, ErrInvalidVote)
	}
	return s.updateProject(ctx, projectID,
		"UPDATE projects SET "+column+" = "+column+" + 1, updated_at = ? WHERE id = ?",
		formatTime(s.now()), projectID)
}

func (s *SQLiteStore) SetApproved(ctx context.Context, projectID string, approved bool) (model.Project, error) {
	defer observe(BackendSQLite, "set_approved", time.Now())
	return s.updateProject(ctx, projectID,
		"UPDATE projects SET approved = ?, updated_at = ? WHERE id = ?",
		approved, formatTime(s.now()), projectID)
}

func (s *SQLiteStore) updateProject(ctx context.Context, id, stmt string, args ...any) (model.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Project{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return model.Project{}, fmt.Errorf("updating project %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	p, err := s.project(ctx, tx, id)
	if err != nil {
		return model.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Project{}, fmt.Errorf("committing project %q: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	defer observe(BackendSQLite, "delete_project", time.Now())
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM contributors),
		(SELECT COUNT(*) FROM projects),
		(SELECT COUNT(*) FROM projects WHERE approved = 0)`).Scan(&c.Contributors, &c.Projects, &c.Pending)
	if err != nil {
		return Counts{}, fmt.Errorf("counting records: %w", err)
	}
	return c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertContributor(ctx context.Context, db execer, c model.Contributor) error {
	skills, err := marshalJSON(c.Skills, "[]")
	if err != nil {
		return err
	}
	interests, err := marshalJSON(c.Interests, "[]")
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO contributors (`+contributorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, handle = excluded.handle, bio = excluded.bio,
			location = excluded.location, avatar_url = excluded.avatar_url,
			skills = excluded.skills, experience = excluded.experience, interests = excluded.interests,
			score = excluded.score, commits = excluded.commits, pull_requests = excluded.pull_requests,
			followers = excluded.followers, stars = excluded.stars, joined_at = excluded.joined_at`,
		c.ID, c.Name, c.Handle, c.Bio, c.Location, c.AvatarURL, skills, string(c.Experience), interests,
		c.Score, c.Commits, c.PullRequests, c.Followers, c.Stars, formatTime(c.JoinedAt))
	if err != nil {
		return fmt.Errorf("saving contributor %q: %w", c.ID, err)
	}
	return nil
}

func upsertProject(ctx context.Context, db execer, p model.Project) error {
	topics, err := marshalJSON(p.Topics, "[]")
	if err != nil {
		return err
	}
	tags, err := marshalJSON(p.Tags, "[]")
	if err != nil {
		return err
	}
	languages, err := marshalJSON(p.Languages, "{}")
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, owner = excluded.owner, description = excluded.description,
			repo_url = excluded.repo_url, topics = excluded.topics, tags = excluded.tags,
			languages = excluded.languages, stars = excluded.stars, forks = excluded.forks,
			upvotes = excluded.upvotes, downvotes = excluded.downvotes, approved = excluded.approved,
			visible = excluded.visible, suggested_by = excluded.suggested_by,
			created_at = excluded.created_at, updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Owner, p.Description, p.RepoURL, topics, tags, languages,
		p.Stars, p.Forks, p.Upvotes, p.Downvotes, p.Approved, p.Visible, p.SuggestedBy,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving project %q: %w", p.ID, err)
	}
	return nil
}

func scanContributor(row rowScanner) (model.Contributor, error) {
	var (
		c                 model.Contributor
		skills, interests string
		experience        string
		joined            string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Handle, &c.Bio, &c.Location, &c.AvatarURL, &skills, &experience, &interests,
		&c.Score, &c.Commits, &c.PullRequests, &c.Followers, &c.Stars, &joined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scanning contributor: %w", err)
	}
	c.Experience = model.ExperienceLevel(experience)
	if err := json.Unmarshal([]byte(skills), &c.Skills); err != nil {
		return c, fmt.Errorf("decoding skills of %q: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(interests), &c.Interests); err != nil {
		return c, fmt.Errorf("decoding interests of %q: %w", c.ID, err)
	}
	c.JoinedAt, err = parseTime(joined)
	return c, err
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p                       model.Project
		topics, tags, languages string
		created, updated        string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Owner, &p.Description, &p.RepoURL, &topics, &tags, &languages,
		&p.Stars, &p.Forks, &p.Upvotes, &p.Downvotes, &p.Approved, &p.Visible, &p.SuggestedBy, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning project: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &p.Topics); err != nil {
		return p, fmt.Errorf("decoding topics of %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return p, fmt.Errorf("decoding tags of %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(languages), &p.Languages); err != nil {
		return p, fmt.Errorf("decoding languages of %q: %w", p.ID, err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return p, err
	}
	p.UpdatedAt, err = parseTime(updated)
	return p, err
}

// marshalJSON encodes v, using empty for nil values so columns never hold "null".
func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding column: %w", err)
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
