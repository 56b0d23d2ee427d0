package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/sync/errgroup"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// programTopics maps repository topics to the program tag they announce.
var programTopics = map[string]string{
	"gsoc":                  "GSoC",
	"google-summer-of-code": "GSoC",
	"hacktoberfest":         "Hacktoberfest",
	"lfx":                   "LFX",
	"lfx-mentorship":        "LFX",
	"outreachy":             "Outreachy",
}

type repoRef struct {
	owner, name string
}

func (r repoRef) String() string { return r.owner + "/" + r.name }

// parseRepoRef accepts owner/name or a github.com URL.
func parseRepoRef(s string) (repoRef, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return repoRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return repoRef{owner: owner, name: name}, nil
}

// ImportProjects fetches each owner/name repository. The result keeps the
// input order. Imported projects are approved; archived ones are hidden.
func (im *Importer) ImportProjects(ctx context.Context, refs []string) ([]model.Project, error) {
	parsed := make([]repoRef, len(refs))
	for i, r := range refs {
		ref, err := parseRepoRef(r)
		if err != nil {
			return nil, err
		}
		parsed[i] = ref
	}

	out := make([]model.Project, len(parsed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, ref := range parsed {
		g.Go(func() error {
			p, err := im.project(gctx, ref)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (im *Importer) project(ctx context.Context, ref repoRef) (model.Project, error) {
	repo, err := call(ctx, im, "get repo "+ref.String(), func(ctx context.Context) (*gh.Repository, *gh.Response, error) {
		return im.gh.Repositories.Get(ctx, ref.owner, ref.name)
	})
	if err != nil {
		return model.Project{}, err
	}
	langs, err := call(ctx, im, "list languages "+ref.String(), func(ctx context.Context) (map[string]int, *gh.Response, error) {
		return im.gh.Repositories.ListLanguages(ctx, ref.owner, ref.name)
	})
	if err != nil {
		return model.Project{}, err
	}
	if langs == nil {
		langs = map[string]int{}
	}
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}

	im.log.Debug(ctx, "imported project", logger.String("repo", ref.String()))
	return model.Project{
		ID:          fmt.Sprintf("gh-r%d", repo.GetID()),
		Name:        repo.GetName(),
		Owner:       repo.GetOwner().GetLogin(),
		Description: repo.GetDescription(),
		RepoURL:     repo.GetHTMLURL(),
		Topics:      topics,
		Tags:        programTags(topics, repo.GetHTMLURL()),
		Languages:   langs,
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Approved:    true,
		Visible:     !repo.GetArchived(),
		CreatedAt:   repo.GetCreatedAt().UTC(),
		UpdatedAt:   repo.GetUpdatedAt().UTC(),
	}, nil
}

// programTags derives unverified program tags from topics, one per kind.
func programTags(topics []string, source string) []model.Tag {
	tags := []model.Tag{}
	seen := map[string]bool{}
	for _, t := range topics {
		kind, ok := programTopics[strings.ToLower(t)]
		if !ok || seen[kind] {
			continue
		}
		seen[kind] = true
		tags = append(tags, model.Tag{Kind: kind, SourceURL: source})
	}
	return tags
}
