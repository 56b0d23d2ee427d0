package github

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/sync/errgroup"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/pkg/logger"
)

const (
	// reposPerUser caps the repositories read per user to a single page.
	reposPerUser = 100
	maxSkills    = 5
	maxInterests = 5

	intermediateCommits = 100
	advancedCommits     = 1000
)

// ImportContributors fetches each login's profile, owned repositories and
// commit and pull request totals. Skills are the most used repository
// languages, interests the most used topics. Scores come from the scorer.
func (im *Importer) ImportContributors(ctx context.Context, logins []string) ([]model.Contributor, error) {
	cleaned := make([]string, len(logins))
	for i, l := range logins {
		cleaned[i] = strings.TrimPrefix(strings.TrimSpace(l), "@")
		if cleaned[i] == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidLogin, i)
		}
	}

	out := make([]model.Contributor, len(cleaned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, login := range cleaned {
		g.Go(func() error {
			c, err := im.contributor(gctx, login)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := scoring.FillMissing(ctx, im.scorer, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (im *Importer) contributor(ctx context.Context, login string) (model.Contributor, error) {
	user, err := call(ctx, im, "get user "+login, func(ctx context.Context) (*gh.User, *gh.Response, error) {
		return im.gh.Users.Get(ctx, login)
	})
	if err != nil {
		return model.Contributor{}, err
	}

	repos, err := call(ctx, im, "list repos "+login, func(ctx context.Context) ([]*gh.Repository, *gh.Response, error) {
		return im.gh.Repositories.ListByUser(ctx, login, &gh.RepositoryListByUserOptions{
			Type:        "owner",
			Sort:        "pushed",
			ListOptions: gh.ListOptions{PerPage: reposPerUser},
		})
	})
	if err != nil {
		return model.Contributor{}, err
	}

	totals := gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: 1}}
	commits, err := call(ctx, im, "search commits "+login, func(ctx context.Context) (*gh.CommitsSearchResult, *gh.Response, error) {
		return im.gh.Search.Commits(ctx, "author:"+login, &totals)
	})
	if err != nil {
		return model.Contributor{}, err
	}
	prs, err := call(ctx, im, "search pulls "+login, func(ctx context.Context) (*gh.IssuesSearchResult, *gh.Response, error) {
		return im.gh.Search.Issues(ctx, "type:pr author:"+login, &totals)
	})
	if err != nil {
		return model.Contributor{}, err
	}

	stars := 0
	var langs, topics []string
	for _, r := range repos {
		stars += r.GetStargazersCount()
		if l := r.GetLanguage(); l != "" {
			langs = append(langs, l)
		}
		topics = append(topics, r.Topics...)
	}

	name := user.GetName()
	if name == "" {
		name = user.GetLogin()
	}
	commitTotal := commits.GetTotal()

	im.log.Debug(ctx, "imported contributor", logger.String("login", login), logger.Int("repos", len(repos)))
	return model.Contributor{
		ID:           fmt.Sprintf("gh-u%d", user.GetID()),
		Name:         name,
		Handle:       user.GetLogin(),
		Bio:          user.GetBio(),
		Location:     user.GetLocation(),
		AvatarURL:    user.GetAvatarURL(),
		Skills:       mostCommon(langs, maxSkills),
		Experience:   experienceOf(commitTotal),
		Interests:    mostCommon(topics, maxInterests),
		Commits:      commitTotal,
		PullRequests: prs.GetTotal(),
		Followers:    user.GetFollowers(),
		Stars:        stars,
		JoinedAt:     user.GetCreatedAt().UTC(),
	}, nil
}

func experienceOf(commits int) model.ExperienceLevel {
	switch {
	case commits >= advancedCommits:
		return model.Advanced
	case commits >= intermediateCommits:
		return model.Intermediate
	default:
		return model.Beginner
	}
}

// mostCommon returns up to n distinct values ordered by frequency, then name.
func mostCommon(values []string, n int) []string {
	counts := map[string]int{}
	for _, v := range values {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys[:min(n, len(keys))]
}
