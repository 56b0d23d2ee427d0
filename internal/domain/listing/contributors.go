package listing

import (
	"strings"

	"github.com/okian/scout/internal/domain/model"
)

// contributorMetrics resolves the threshold keys contributors recognize.
var contributorMetrics = map[string]func(model.Contributor) int{
	MinScore:     func(c model.Contributor) int { return c.Score },
	MinFollowers: func(c model.Contributor) int { return c.Followers },
	MinCommits:   func(c model.Contributor) int { return c.Commits },
	MinPRs:       func(c model.Contributor) int { return c.PullRequests },
	MinStars:     func(c model.Contributor) int { return c.Stars },
}

// contributorSorts resolves the sort keys contributors recognize.
var contributorSorts = map[string]func(model.Contributor) int{
	SortScore:     func(c model.Contributor) int { return c.Score },
	SortFollowers: func(c model.Contributor) int { return c.Followers },
	SortCommits:   func(c model.Contributor) int { return c.Commits },
	SortPRs:       func(c model.Contributor) int { return c.PullRequests },
	SortStars:     func(c model.Contributor) int { return c.Stars },
}

// Contributors runs the pipeline over contributor profiles.
func Contributors(source []model.Contributor, p Params) Result[model.Contributor] {
	p = p.normalizeFilters()
	return Run(source, ContributorPredicate(p), ContributorComparator(p.SortKey), p.Page, p.PageSize)
}

// ContributorPredicate builds the conjunction of the contributor filters in p.
// A nil result accepts every record.
// The predicate holds folding state and must not be shared between goroutines.
func ContributorPredicate(p Params) Predicate[model.Contributor] {
	p = p.normalizeFilters()
	f := newFolder()
	preds := []Predicate[model.Contributor]{}

	if p.Search != "" {
		term := f.fold(p.Search)
		preds = append(preds, func(c model.Contributor) bool {
			return f.contains(c.Name, term) || f.contains(c.Bio, term) || f.anyContains(c.Skills, term)
		})
	}

	if len(p.Categories) > 0 {
		want := f.foldAll(p.Categories)
		preds = append(preds, func(c model.Contributor) bool {
			return f.hasAll(c.Skills, want)
		})
	}

	if p.Experience != All {
		level := model.ExperienceLevel(p.Experience)
		preds = append(preds, func(c model.Contributor) bool {
			return c.Experience == level
		})
	}

	for key, floor := range p.Thresholds {
		if metric, ok := contributorMetrics[key]; ok {
			preds = append(preds, atLeast(floor, metric))
		}
	}

	return And(preds...)
}

// ContributorComparator returns the descending comparator for key, or nil
// for an unknown key.
func ContributorComparator(key string) Comparator[model.Contributor] {
	metric, ok := contributorSorts[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil
	}
	return descending(metric)
}
