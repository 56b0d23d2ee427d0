// Package scoring computes contributor contribution scores from activity metrics.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/scout/internal/domain/model"
)

// Metric names accepted in weight maps.
const (
	MetricCommits   = "commits"
	MetricPRs       = "prs"
	MetricStars     = "stars"
	MetricFollowers = "followers"
)

// DefaultWeights are used for any metric without a positive configured weight.
var DefaultWeights = map[string]float64{
	MetricCommits:   1.0,
	MetricPRs:       3.0,
	MetricStars:     0.5,
	MetricFollowers: 0.25,
}

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights overrides metric weights. Unknown metrics and non-positive
// weights are ignored.
func WithWeights(weights map[string]float64) Option {
	return func(s *WeightedScorer) {
		for metric, w := range weights {
			if _, known := DefaultWeights[metric]; known && w > 0 {
				s.weights[metric] = w
			}
		}
	}
}

// Input holds the activity metrics that feed a score.
type Input struct {
	Commits      int
	PullRequests int
	Stars        int
	Followers    int
}

// InputFrom extracts the scoring input from a contributor.
func InputFrom(c model.Contributor) Input {
	return Input{
		Commits:      c.Commits,
		PullRequests: c.PullRequests,
		Stars:        c.Stars,
		Followers:    c.Followers,
	}
}

// Scorer computes a contribution score.
type Scorer interface {
	Score(ctx context.Context, in Input) (int, error)
}

// WeightedScorer scores as the rounded weighted sum of the metrics.
type WeightedScorer struct {
	weights map[string]float64
}

// NewWeightedScorer creates a scorer starting from DefaultWeights.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{weights: make(map[string]float64, len(DefaultWeights))}
	for k, v := range DefaultWeights {
		s.weights[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes round(commits*w + prs*w + stars*w + followers*w).
// Negative metrics count as zero.
func (s *WeightedScorer) Score(ctx context.Context, in Input) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	sum := float64(max(in.Commits, 0))*s.weights[MetricCommits] +
		float64(max(in.PullRequests, 0))*s.weights[MetricPRs] +
		float64(max(in.Stars, 0))*s.weights[MetricStars] +
		float64(max(in.Followers, 0))*s.weights[MetricFollowers]
	if sum > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int(math.Round(sum)), nil
}

// Weight returns the effective weight of metric.
func (s *WeightedScorer) Weight(metric string) float64 {
	return s.weights[metric]
}

// FillMissing sets the score of every contributor whose score is zero.
// The slice is modified in place.
func FillMissing(ctx context.Context, s Scorer, contributors []model.Contributor) error {
	for i := range contributors {
		if contributors[i].Score != 0 {
			continue
		}
		score, err := s.Score(ctx, InputFrom(contributors[i]))
		if err != nil {
			return fmt.Errorf("scoring contributor %s: %w", contributors[i].ID, err)
		}
		contributors[i].Score = score
	}
	return nil
}
