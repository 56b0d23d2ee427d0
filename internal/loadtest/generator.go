package loadtest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// generateVotes spreads config.Votes votes over projects. A DuplicateRatio
// share resends an earlier vote unchanged to exercise idempotency.
func generateVotes(ctx context.Context, config Config, projects []model.Project) ([]Vote, error) {
	rng := rand.New(rand.NewPCG(config.Seed, config.Seed^0x5eed))
	ts := time.Now().UTC().Format(time.RFC3339)

	votes := make([]Vote, 0, config.Votes)
	for i := 0; i < config.Votes; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during vote generation: %w", err)
		}
		if len(votes) > 0 && rng.Float64() < config.DuplicateRatio {
			votes = append(votes, votes[rng.IntN(len(votes))])
			continue
		}
		id, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("generating vote id: %w", err)
		}
		direction := model.Up
		if rng.Float64() < config.DownRatio {
			direction = model.Down
		}
		votes = append(votes, Vote{
			VoteID:    id.String(),
			ProjectID: projects[rng.IntN(len(projects))].ID,
			UserID:    fmt.Sprintf("loadtest-%d", rng.IntN(userPool)),
			Direction: string(direction),
			TS:        ts,
		})
	}

	logger.Get().Info(ctx, "generated votes",
		logger.Int("count", len(votes)),
		logger.Int("projects", len(projects)))
	return votes, nil
}
