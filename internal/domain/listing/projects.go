package listing

import (
	"strings"

	"github.com/okian/scout/internal/domain/model"
)

// projectMetrics resolves the threshold keys projects recognize.
var projectMetrics = map[string]func(model.Project) int{
	MinStars:   func(p model.Project) int { return p.Stars },
	MinForks:   func(p model.Project) int { return p.Forks },
	MinUpvotes: func(p model.Project) int { return p.Upvotes },
}

// Projects runs the pipeline over project listings.
func Projects(source []model.Project, p Params) Result[model.Project] {
	p = p.normalizeFilters()
	return Run(source, ProjectPredicate(p), ProjectComparator(p.SortKey), p.Page, p.PageSize)
}

// ProjectPredicate builds the conjunction of the project filters in p,
// including the status filter.
// The predicate holds folding state and must not be shared between goroutines.
func ProjectPredicate(p Params) Predicate[model.Project] {
	p = p.normalizeFilters()
	f := newFolder()
	preds := []Predicate[model.Project]{statusPredicate(p.Status)}

	if p.Search != "" {
		term := f.fold(p.Search)
		preds = append(preds, func(pr model.Project) bool {
			return f.contains(pr.Name, term) || f.contains(pr.Description, term) || f.anyContains(pr.Topics, term)
		})
	}

	if len(p.Categories) > 0 {
		want := f.foldAll(p.Categories)
		preds = append(preds, func(pr model.Project) bool {
			langs := make([]string, 0, len(pr.Languages))
			for lang := range pr.Languages {
				langs = append(langs, lang)
			}
			return f.hasAll(langs, want)
		})
	}

	if p.Tag != All {
		kind := p.Tag
		preds = append(preds, func(pr model.Project) bool {
			return pr.HasTag(kind)
		})
	}

	for key, floor := range p.Thresholds {
		if metric, ok := projectMetrics[key]; ok {
			preds = append(preds, atLeast(floor, metric))
		}
	}

	return And(preds...)
}

func statusPredicate(status string) Predicate[model.Project] {
	switch status {
	case All:
		return nil
	case StatusPending:
		return func(p model.Project) bool { return !p.Approved }
	default:
		return model.Project.Public
	}
}

// ProjectComparator returns the comparator for key: stars, forks, recent
// (created time) and votes (net) order descending, name ascending. Unknown
// keys return nil.
func ProjectComparator(key string) Comparator[model.Project] {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case SortStars:
		return descending(func(p model.Project) int { return p.Stars })
	case SortForks:
		return descending(func(p model.Project) int { return p.Forks })
	case SortRecent:
		return descending(func(p model.Project) int64 { return p.CreatedAt.UnixNano() })
	case SortVotes:
		return descending(model.Project.NetVotes)
	case SortName:
		return func(a, b model.Project) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
	return nil
}
