package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	m.Run()
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func rateLimited(w http.ResponseWriter) {
	w.Header().Set("X-RateLimit-Limit", "60")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
	writeBody(w, http.StatusForbidden, `{"message":"API rate limit exceeded"}`)
}

type fakeGitHub struct {
	*httptest.Server
	flakyHits  atomic.Int32
	authHeader atomic.Value
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/okian/scout", func(w http.ResponseWriter, r *http.Request) {
		f.authHeader.Store(r.Header.Get("Authorization"))
		writeBody(w, http.StatusOK, `{
			"id": 7, "name": "scout", "owner": {"login": "okian"},
			"description": "discovery", "html_url": "https://github.com/okian/scout",
			"topics": ["search", "hacktoberfest", "Hacktoberfest", "gsoc"],
			"stargazers_count": 50, "forks_count": 5,
			"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-06-01T00:00:00Z"
		}`)
	})
	mux.HandleFunc("GET /repos/okian/scout/languages", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{"Go": 1000, "Shell": 20}`)
	})
	mux.HandleFunc("GET /repos/old/relic", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{"id": 8, "name": "relic", "owner": {"login": "old"}, "archived": true}`)
	})
	mux.HandleFunc("GET /repos/old/relic/languages", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("GET /repos/okian/missing", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusNotFound, `{"message": "Not Found"}`)
	})
	mux.HandleFunc("GET /repos/okian/flaky", func(w http.ResponseWriter, _ *http.Request) {
		if f.flakyHits.Add(1) == 1 {
			rateLimited(w)
			return
		}
		writeBody(w, http.StatusOK, `{"id": 9, "name": "flaky", "owner": {"login": "okian"}}`)
	})
	mux.HandleFunc("GET /repos/okian/flaky/languages", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{"C": 10}`)
	})
	mux.HandleFunc("GET /repos/okian/throttled", func(w http.ResponseWriter, _ *http.Request) {
		f.flakyHits.Add(1)
		rateLimited(w)
	})

	mux.HandleFunc("GET /users/ada", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{
			"id": 3, "login": "ada", "name": "Ada", "bio": "compilers",
			"location": "London", "followers": 10, "created_at": "2015-05-01T00:00:00Z"
		}`)
	})
	mux.HandleFunc("GET /users/ada/repos", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `[
			{"name": "a", "language": "Go", "stargazers_count": 5, "topics": ["db"]},
			{"name": "b", "language": "Go", "stargazers_count": 7, "topics": ["db", "cli"]},
			{"name": "c", "language": "Rust", "stargazers_count": 1}
		]`)
	})
	mux.HandleFunc("GET /users/nobody", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `{"id": 4, "login": "nobody"}`)
	})
	mux.HandleFunc("GET /users/nobody/repos", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `[]`)
	})
	mux.HandleFunc("GET /search/commits", func(w http.ResponseWriter, r *http.Request) {
		total := 0
		if r.URL.Query().Get("q") == "author:ada" {
			total = 120
		}
		writeBody(w, http.StatusOK, fmt.Sprintf(`{"total_count": %d, "items": []}`, total))
	})
	mux.HandleFunc("GET /search/issues", func(w http.ResponseWriter, r *http.Request) {
		total := 0
		if r.URL.Query().Get("q") == "type:pr author:ada" {
			total = 12
		}
		writeBody(w, http.StatusOK, fmt.Sprintf(`{"total_count": %d, "items": []}`, total))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestImporter(t *testing.T, f *fakeGitHub, opts ...Option) *Importer {
	t.Helper()
	base := []Option{
		WithBaseURL(f.URL),
		WithHTTPClient(f.Client()),
		WithRate(rate.Inf),
		WithRetries(MaxRetries, time.Millisecond),
	}
	im, err := NewImporter(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	return im
}

func TestImportProjects(t *testing.T) {
	f := newFakeGitHub(t)
	im := newTestImporter(t, f, WithToken("s3cret"), WithConcurrency(2))

	projects, err := im.ImportProjects(context.Background(), []string{
		"okian/scout",
		"https://github.com/old/relic.git",
	})
	require.NoError(t, err)
	require.Len(t, projects, 2)

	p := projects[0]
	assert.Equal(t, "gh-r7", p.ID)
	assert.Equal(t, "scout", p.Name)
	assert.Equal(t, "okian", p.Owner)
	assert.Equal(t, "https://github.com/okian/scout", p.RepoURL)
	assert.Equal(t, 50, p.Stars)
	assert.Equal(t, 5, p.Forks)
	assert.Equal(t, map[string]int{"Go": 1000, "Shell": 20}, p.Languages)
	assert.True(t, p.Public())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.CreatedAt)
	assert.Equal(t, []model.Tag{
		{Kind: "Hacktoberfest", SourceURL: "https://github.com/okian/scout"},
		{Kind: "GSoC", SourceURL: "https://github.com/okian/scout"},
	}, p.Tags)
	assert.Equal(t, "Bearer s3cret", f.authHeader.Load())

	relic := projects[1]
	assert.Equal(t, "relic", relic.Name)
	assert.True(t, relic.Approved)
	assert.False(t, relic.Visible, "archived repositories are hidden")
	assert.NotNil(t, relic.Topics)
	assert.NotNil(t, relic.Tags)
	assert.Empty(t, relic.Languages)
}

func TestImportProjectsErrors(t *testing.T) {
	f := newFakeGitHub(t)
	im := newTestImporter(t, f)

	t.Run("invalid reference", func(t *testing.T) {
		for _, ref := range []string{"", "scout", "/scout", "a/b/c"} {
			_, err := im.ImportProjects(context.Background(), []string{ref})
			assert.ErrorIs(t, err, ErrInvalidRef, ref)
		}
	})

	t.Run("missing repository", func(t *testing.T) {
		_, err := im.ImportProjects(context.Background(), []string{"okian/scout", "okian/missing"})
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "Not Found", apiErr.Message)
	})
}

func TestRateLimitBackoff(t *testing.T) {
	t.Run("retries after a rate limit", func(t *testing.T) {
		f := newFakeGitHub(t)
		im := newTestImporter(t, f)

		projects, err := im.ImportProjects(context.Background(), []string{"okian/flaky"})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "flaky", projects[0].Name)
		assert.Equal(t, int32(2), f.flakyHits.Load())
		assert.Equal(t, 60, im.RateLimiter().Limit())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		f := newFakeGitHub(t)
		im := newTestImporter(t, f, WithRetries(2, time.Millisecond))

		_, err := im.ImportProjects(context.Background(), []string{"okian/throttled"})
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
		assert.Equal(t, int32(3), f.flakyHits.Load())
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		f := newFakeGitHub(t)
		im := newTestImporter(t, f, WithRetries(5, time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := im.ImportProjects(ctx, []string{"okian/throttled"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestImportContributors(t *testing.T) {
	f := newFakeGitHub(t)
	im := newTestImporter(t, f)

	logins := []string{" @ada ", "nobody"}
	contributors, err := im.ImportContributors(context.Background(), logins)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, " @ada ", logins[0], "input is not modified")

	ada := contributors[0]
	assert.Equal(t, "gh-u3", ada.ID)
	assert.Equal(t, "Ada", ada.Name)
	assert.Equal(t, "ada", ada.Handle)
	assert.Equal(t, "London", ada.Location)
	assert.Equal(t, []string{"Go", "Rust"}, ada.Skills)
	assert.Equal(t, []string{"db", "cli"}, ada.Interests)
	assert.Equal(t, 120, ada.Commits)
	assert.Equal(t, 12, ada.PullRequests)
	assert.Equal(t, 13, ada.Stars)
	assert.Equal(t, 10, ada.Followers)
	assert.Equal(t, model.Intermediate, ada.Experience)
	// 120*1 + 12*3 + 13*0.5 + 10*0.25
	assert.Equal(t, 165, ada.Score)

	nobody := contributors[1]
	assert.Equal(t, "nobody", nobody.Name, "login stands in for a missing name")
	assert.Equal(t, model.Beginner, nobody.Experience)
	assert.Empty(t, nobody.Skills)
	assert.Zero(t, nobody.Score)

	_, err = im.ImportContributors(context.Background(), []string{"ada", "  "})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestImport(t *testing.T) {
	f := newFakeGitHub(t)
	im := newTestImporter(t, f)

	ds, err := im.Import(context.Background(), []string{"okian/scout"}, []string{"ada"})
	require.NoError(t, err)
	assert.Len(t, ds.Projects, 1)
	assert.Len(t, ds.Contributors, 1)
}

func TestHelpers(t *testing.T) {
	t.Run("mostCommon orders by frequency then name", func(t *testing.T) {
		got := mostCommon([]string{"b", "a", "c", "b", "a", "d", "b"}, 3)
		assert.Equal(t, []string{"b", "a", "c"}, got)
		assert.Empty(t, mostCommon(nil, 3))
	})

	t.Run("experience follows commit totals", func(t *testing.T) {
		assert.Equal(t, model.Beginner, experienceOf(99))
		assert.Equal(t, model.Intermediate, experienceOf(100))
		assert.Equal(t, model.Advanced, experienceOf(1000))
	})

	t.Run("parseRepoRef accepts urls", func(t *testing.T) {
		ref, err := parseRepoRef(" github.com/okian/scout/ ")
		require.NoError(t, err)
		assert.Equal(t, "okian/scout", ref.String())
	})

	t.Run("rate limiter ignores responses without headers", func(t *testing.T) {
		rl := NewRateLimiter(rate.Inf)
		require.NoError(t, rl.Wait(context.Background()))
		assert.Equal(t, GitHubRateLimit, rl.Remaining())
	})
}
