// Package github builds catalogue records from the GitHub REST API.
//
// It is used offline to produce dataset files; the server never calls GitHub
// while answering requests.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds parallel lookups.
	DefaultConcurrency = 4

	// MaxRetries is how often a rate-limited call is retried.
	MaxRetries = 3

	// RetryDelay is the wait used when GitHub gives no reset hint.
	RetryDelay = time.Second
)

// Request outcomes reported to metrics.
const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeRateLimited = "rate_limited"
)

// Importer fetches projects and contributors.
type Importer struct {
	gh          *gh.Client
	limiter     *RateLimiter
	scorer      scoring.Scorer
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
	log         logger.Logger
}

type settings struct {
	token       string
	httpClient  *http.Client
	baseURL     string
	rate        rate.Limit
	scorer      scoring.Scorer
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
	log         logger.Logger
}

// Option configures an Importer.
type Option func(*settings)

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(s *settings) { s.token = token }
}

// WithHTTPClient sets the base HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithBaseURL points the client at another API root, such as GitHub Enterprise.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithRate sets the proactive request rate.
func WithRate(r rate.Limit) Option {
	return func(s *settings) { s.rate = r }
}

// WithScorer sets the scorer used for imported contributors.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *settings) { s.scorer = sc }
}

// WithConcurrency bounds parallel lookups.
func WithConcurrency(n int) Option {
	return func(s *settings) { s.concurrency = n }
}

// WithRetries sets the retry budget for rate-limited calls and the fallback wait.
func WithRetries(n int, delay time.Duration) Option {
	return func(s *settings) {
		s.maxRetries = n
		s.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// NewImporter builds an importer. Without a token requests are anonymous and
// GitHub allows far fewer of them.
func NewImporter(ctx context.Context, opts ...Option) (*Importer, error) {
	s := settings{
		rate:        rate.Limit(ProactiveRate),
		concurrency: DefaultConcurrency,
		maxRetries:  MaxRetries,
		retryDelay:  RetryDelay,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.scorer == nil {
		s.scorer = scoring.NewWeightedScorer()
	}
	if s.log == nil {
		s.log = logger.Get().Named("github")
	}

	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if s.token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token}))
		tc.Timeout = httpClient.Timeout
		httpClient = tc
	}

	client := gh.NewClient(httpClient)
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github: parsing base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Importer{
		gh:          client,
		limiter:     NewRateLimiter(s.rate),
		scorer:      s.scorer,
		concurrency: s.concurrency,
		maxRetries:  s.maxRetries,
		retryDelay:  s.retryDelay,
		log:         s.log,
	}, nil
}

// RateLimiter exposes the request budget.
func (im *Importer) RateLimiter() *RateLimiter {
	return im.limiter
}

// Import fetches the given repositories and users into one dataset.
func (im *Importer) Import(ctx context.Context, repos, logins []string) (model.Dataset, error) {
	projects, err := im.ImportProjects(ctx, repos)
	if err != nil {
		return model.Dataset{}, err
	}
	contributors, err := im.ImportContributors(ctx, logins)
	if err != nil {
		return model.Dataset{}, err
	}
	im.log.Info(ctx, "import finished",
		logger.Int("projects", len(projects)),
		logger.Int("contributors", len(contributors)),
		logger.Int("rate_remaining", im.limiter.Remaining()))
	return model.Dataset{Contributors: contributors, Projects: projects}, nil
}

// call runs one API request under the rate limiter, retrying while GitHub
// reports a rate limit.
func call[T any](ctx context.Context, im *Importer, op string, fn func(context.Context) (T, *gh.Response, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := im.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("github: %s: rate limit wait: %w", op, err)
		}

		v, resp, err := fn(ctx)
		if resp != nil {
			im.limiter.Update(resp.Rate)
		}
		if err == nil {
			metrics.RecordGitHubRequest(outcomeOK)
			return v, nil
		}

		wait, limited := backoff(err)
		if !limited {
			metrics.RecordGitHubRequest(outcomeError)
			return zero, wrapError(op, err)
		}
		metrics.RecordGitHubRequest(outcomeRateLimited)
		if attempt >= im.maxRetries {
			return zero, &RateLimitError{
				ResetAt:   im.limiter.ResetTime(),
				Remaining: im.limiter.Remaining(),
				Limit:     im.limiter.Limit(),
			}
		}
		if wait <= 0 {
			wait = im.retryDelay
		}
		im.log.Warn(ctx, "rate limited, backing off",
			logger.String("op", op),
			logger.Duration("wait", wait),
			logger.Int("attempt", attempt+1))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
