// Package seed generates deterministic mock catalogues for local runs and tests.
package seed

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// Defaults used when an option is not set.
const (
	DefaultSeed         = 42
	DefaultContributors = 60
	DefaultProjects     = 40
)

// epoch anchors generated timestamps so output does not depend on the clock.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Options control generation. Non-positive sizes fall back to the defaults;
// Seed is used as given, so zero is a seed like any other.
type Options struct {
	Seed         int64
	Contributors int
	Projects     int
	// PendingRatio is the fraction of projects generated as unapproved suggestions.
	PendingRatio float64
}

func (o Options) withDefaults() Options {
	if o.Contributors <= 0 {
		o.Contributors = DefaultContributors
	}
	if o.Projects <= 0 {
		o.Projects = DefaultProjects
	}
	o.PendingRatio = math.Min(math.Max(o.PendingRatio, 0), 1)
	return o
}

// generator holds the seeded random sources for one run.
type generator struct {
	rng *rand.Rand
	ids *rand.ChaCha8
}

func newGenerator(seed int64) *generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	return &generator{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		ids: rand.NewChaCha8(key),
	}
}

// Generate builds a catalogue. The same options always produce the same dataset.
func Generate(ctx context.Context, opts Options) (model.Dataset, error) {
	opts = opts.withDefaults()
	g := newGenerator(opts.Seed)

	ds := model.Dataset{
		Contributors: make([]model.Contributor, 0, opts.Contributors),
		Projects:     make([]model.Project, 0, opts.Projects),
	}
	for i := 0; i < opts.Contributors; i++ {
		if err := ctx.Err(); err != nil {
			return model.Dataset{}, fmt.Errorf("generating contributors: %w", err)
		}
		c, err := g.contributor()
		if err != nil {
			return model.Dataset{}, err
		}
		ds.Contributors = append(ds.Contributors, c)
	}
	for i := 0; i < opts.Projects; i++ {
		if err := ctx.Err(); err != nil {
			return model.Dataset{}, fmt.Errorf("generating projects: %w", err)
		}
		p, err := g.project(opts.PendingRatio)
		if err != nil {
			return model.Dataset{}, err
		}
		ds.Projects = append(ds.Projects, p)
	}

	logger.Get().Debug(ctx, "generated mock dataset",
		logger.Int64("seed", opts.Seed),
		logger.Int("contributors", len(ds.Contributors)),
		logger.Int("projects", len(ds.Projects)))
	return ds, nil
}

func (g *generator) id() (string, error) {
	u, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return u.String(), nil
}

func pick[T any](g *generator, from []T) T {
	return from[g.rng.IntN(len(from))]
}

// sample returns n distinct elements of from, in vocabulary order.
func sample[T any](g *generator, from []T, n int) []T {
	n = min(n, len(from))
	idx := g.rng.Perm(len(from))[:n]
	slices.Sort(idx)
	out := make([]T, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}

// Activity tiers, from most to least common.
const (
	tierCasual = iota
	tierRegular
	tierCore
	tierStar
)

// tier picks an activity tier: most profiles are casual, few are stars.
func (g *generator) tier() int {
	switch n := g.rng.IntN(20); {
	case n < 10:
		return tierCasual
	case n < 16:
		return tierRegular
	case n < 19:
		return tierCore
	default:
		return tierStar
	}
}

// spread draws a log-uniform value in [lo, hi).
func (g *generator) spread(lo, hi float64) int {
	return int(math.Exp(math.Log(lo) + g.rng.Float64()*(math.Log(hi)-math.Log(lo))))
}

var tierRanges = [...][2]float64{
	tierCasual:  {1, 60},
	tierRegular: {40, 400},
	tierCore:    {300, 2500},
	tierStar:    {2000, 20000},
}

func (g *generator) contributor() (model.Contributor, error) {
	id, err := g.id()
	if err != nil {
		return model.Contributor{}, err
	}
	first, last := pick(g, firstNames), pick(g, lastNames)
	t := g.tier()
	r := tierRanges[t]
	commits := g.spread(r[0], r[1])

	return model.Contributor{
		ID:           id,
		Name:         first + " " + last,
		Handle:       fmt.Sprintf("%s%s%d", strings.ToLower(first[:1]), strings.ToLower(last), g.rng.IntN(100)),
		Bio:          pick(g, bios),
		Location:     pick(g, append([]string{""}, locations...)),
		AvatarURL:    fmt.Sprintf("https://avatars.example.com/%s.png", id[:8]),
		Skills:       sample(g, skills, 1+g.rng.IntN(4)),
		Experience:   model.ExperienceLevels[min(t, len(model.ExperienceLevels)-1)],
		Interests:    sample(g, interests, 1+g.rng.IntN(3)),
		Commits:      commits,
		PullRequests: commits/8 + g.rng.IntN(10),
		Followers:    g.spread(1, r[1]/2+2),
		Stars:        g.spread(1, r[1]+2),
		JoinedAt:     epoch.AddDate(0, 0, -g.rng.IntN(3650)),
	}, nil
}

func (g *generator) project(pendingRatio float64) (model.Project, error) {
	id, err := g.id()
	if err != nil {
		return model.Project{}, err
	}
	name := pick(g, projectPrefixes) + pick(g, projectSuffixes)
	owner := pick(g, owners)
	langs := sample(g, languages, 1+g.rng.IntN(3))
	langBytes := make(map[string]int, len(langs))
	for _, l := range langs {
		langBytes[l] = g.spread(1_000, 2_000_000)
	}
	projTopics := sample(g, topics, 1+g.rng.IntN(4))

	tags := []model.Tag{}
	if g.rng.IntN(3) == 0 {
		kind := pick(g, tagKinds)
		tags = append(tags, model.Tag{
			Kind:      kind,
			SourceURL: fmt.Sprintf("https://programs.example.org/%s/%s", strings.ToLower(kind), name),
			Verified:  g.rng.IntN(2) == 0,
		})
	}

	r := tierRanges[g.tier()]
	created := epoch.AddDate(0, 0, -g.rng.IntN(2000))
	pending := g.rng.Float64() < pendingRatio
	return model.Project{
		ID:          id,
		Name:        name,
		Owner:       owner,
		Description: fmt.Sprintf(pick(g, descriptions), langs[0], projTopics[0]),
		RepoURL:     fmt.Sprintf("https://github.com/%s/%s", owner, name),
		Topics:      projTopics,
		Tags:        tags,
		Languages:   langBytes,
		Stars:       g.spread(r[0], r[1]*5),
		Forks:       g.spread(1, r[1]/2+2),
		Upvotes:     g.rng.IntN(50),
		Downvotes:   g.rng.IntN(10),
		Approved:    !pending,
		Visible:     true,
		CreatedAt:   created,
		UpdatedAt:   created.AddDate(0, 0, g.rng.IntN(300)),
	}, nil
}
