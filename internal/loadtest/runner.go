// Package loadtest drives concurrent votes against a running scout server and
// checks that every accepted vote is applied exactly once.
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// Run executes the complete vote test.
func Run(ctx context.Context, config Config) (Stats, error) {
	config = config.withDefaults()
	stats := Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting scout vote test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("votes", config.Votes),
		logger.Int("projects", config.Projects),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	// Step 2: Snapshot the target projects
	targets, err := client.topProjects(ctx, config.Projects)
	if err != nil {
		return stats, fmt.Errorf("listing projects: %w", err)
	}
	if len(targets) == 0 {
		return stats, ErrNoProjects
	}
	before := make(map[string]model.Project, len(targets))
	for _, p := range targets {
		before[p.ID] = p
	}

	// Step 3: Generate votes
	votes, err := generateVotes(ctx, config, targets)
	if err != nil {
		return stats, fmt.Errorf("vote generation failed: %w", err)
	}
	stats.VotesGenerated = len(votes)

	// Step 4: Submit votes concurrently
	tallies := submitVotes(ctx, client, config, votes, &stats)

	// Step 5: Wait for the workers to apply them
	mismatches := awaitCounts(ctx, client, config, before, tallies)
	stats.ProjectsChecked = len(before)
	stats.ProjectsMismatch = len(mismatches)

	// Step 6: Save votes to file
	if config.OutputFile != "" {
		if err := saveVotesToFile(ctx, config.OutputFile, votes); err != nil {
			log.Warn(ctx, "failed to save votes to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(mismatches) > 0 {
		return stats, fmt.Errorf("%w: %s", ErrMismatch, strings.Join(mismatches, "; "))
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// awaitCounts polls the target projects until their counts match or the
// settle timeout passes, and returns the remaining mismatches. Fetches run
// on ctx; a project whose fetch fails keeps its last observed counts.
func awaitCounts(ctx context.Context, client *HTTPClient, config Config, before map[string]model.Project, tallies map[string]tally) []string {
	settle := time.NewTimer(config.SettleTimeout)
	defer settle.Stop()
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	after := make(map[string]model.Project, len(before))
	for {
		for id := range before {
			p, err := client.project(ctx, id)
			if err != nil {
				continue
			}
			after[id] = p
		}
		mismatches := verifyCounts(before, after, tallies)
		if len(mismatches) == 0 {
			logger.Get().Info(ctx, "vote counts verified", logger.Int("projects", len(before)))
			return nil
		}
		select {
		case <-ctx.Done():
			return mismatches
		case <-settle.C:
			return mismatches
		case <-ticker.C:
		}
	}
}

// saveVotesToFile writes the generated votes as a JSON array.
func saveVotesToFile(ctx context.Context, filename string, votes []Vote) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(votes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write votes: %w", err)
	}
	logger.Get().Info(ctx, "votes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats Stats) {
	var acceptRate, votesPerSecond float64
	if stats.VotesSubmitted > 0 {
		acceptRate = float64(stats.VotesAccepted) / float64(stats.VotesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("votesGenerated", stats.VotesGenerated),
		logger.Int("votesSubmitted", stats.VotesSubmitted),
		logger.Int("votesAccepted", stats.VotesAccepted),
		logger.Int("votesDuplicate", stats.VotesDuplicate),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("projectsChecked", stats.ProjectsChecked),
		logger.Int("projectsMismatch", stats.ProjectsMismatch),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("votesPerSecond", votesPerSecond))
}
