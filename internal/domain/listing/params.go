package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Page size defaults used when the caller supplies no Limits.
const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// All disables a single-select filter (tag, experience, status).
const All = "all"

// Project status filters.
const (
	StatusApproved = "approved" // approved and visible
	StatusPending  = "pending"  // not yet approved
)

// Threshold keys. Contributors recognize score, followers, commits, prs and
// stars; projects recognize stars, forks and upvotes. Other keys are ignored.
const (
	MinScore     = "score"
	MinFollowers = "followers"
	MinCommits   = "commits"
	MinPRs       = "prs"
	MinStars     = "stars"
	MinForks     = "forks"
	MinUpvotes   = "upvotes"
)

// Sort keys.
const (
	SortScore     = "score"
	SortFollowers = "followers"
	SortCommits   = "commits"
	SortPRs       = "prs"
	SortStars     = "stars"
	SortForks     = "forks"
	SortRecent    = "recent"
	SortVotes     = "votes"
	SortName      = "name"
)

// Params carries every filter, sort and page option of a listing call.
//
// Categories are skills for contributors and languages for projects; a record
// must have all of them. Tag and Experience are single-select: All (or empty)
// disables them. Thresholds map a threshold key to its minimum.
type Params struct {
	Search     string
	Categories []string
	Tag        string
	Experience string
	Status     string
	Thresholds map[string]int
	SortKey    string
	Page       int
	PageSize   int
}

// Limits bounds the page size of normalized parameters.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits is used by callers without configured limits.
var DefaultLimits = Limits{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize}

func (l Limits) sane() Limits {
	if l.DefaultPageSize < 1 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.MaxPageSize < 1 {
		l.MaxPageSize = MaxPageSize
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	return l
}

// Normalize returns a copy of p with safe values: trimmed text, de-duplicated
// categories, "all" for empty single-select filters, thresholds without
// non-positive entries, a lower-case sort key, and a page size within l.
// Page is left as given so that out-of-range pages still produce empty
// results.
func (p Params) Normalize(l Limits) Params {
	l = l.sane()
	p = p.normalizeFilters()
	switch {
	case p.PageSize < 1:
		p.PageSize = l.DefaultPageSize
	case p.PageSize > l.MaxPageSize:
		p.PageSize = l.MaxPageSize
	}
	return p
}

// normalizeFilters cleans everything except the page size.
func (p Params) normalizeFilters() Params {
	p.Search = strings.TrimSpace(p.Search)
	p.Categories = cleanSet(p.Categories)
	p.Tag = singleSelect(p.Tag)
	p.Experience = singleSelect(p.Experience)
	p.SortKey = strings.ToLower(strings.TrimSpace(p.SortKey))

	switch status := strings.ToLower(strings.TrimSpace(p.Status)); status {
	case StatusPending, All:
		p.Status = status
	default:
		p.Status = StatusApproved
	}

	if len(p.Thresholds) > 0 {
		th := make(map[string]int, len(p.Thresholds))
		for k, v := range p.Thresholds {
			if v > 0 {
				th[strings.ToLower(strings.TrimSpace(k))] = v
			}
		}
		p.Thresholds = th
	}
	return p
}

func singleSelect(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

// cleanSet trims members, drops empty ones and removes case-insensitive
// duplicates while keeping first-seen order.
func cleanSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// queryThresholds maps query-string names to threshold keys.
var queryThresholds = map[string]string{
	"minScore":     MinScore,
	"minFollowers": MinFollowers,
	"minCommits":   MinCommits,
	"minPRs":       MinPRs,
	"minStars":     MinStars,
	"minForks":     MinForks,
	"minUpvotes":   MinUpvotes,
}

// ParseQuery builds normalized Params from URL query values.
//
// Recognized names: search (alias q); skills, languages and category (each
// repeated or comma-separated); tag; experience; status; minScore,
// minFollowers, minCommits, minPRs, minStars, minForks, minUpvotes; sortBy
// (alias sort); page; pageSize. Unparseable numbers fall back to defaults:
// thresholds to 0, page to 1, pageSize to l.DefaultPageSize.
func ParseQuery(q url.Values, l Limits) Params {
	p := Params{
		Search:     first(q, "search", "q"),
		Tag:        q.Get("tag"),
		Experience: q.Get("experience"),
		Status:     q.Get("status"),
		SortKey:    first(q, "sortBy", "sort"),
		Page:       1,
	}

	for _, key := range []string{"skills", "languages", "category"} {
		for _, raw := range q[key] {
			p.Categories = append(p.Categories, strings.Split(raw, ",")...)
		}
	}

	for name, key := range queryThresholds {
		if v := nonNegative(q.Get(name)); v > 0 {
			if p.Thresholds == nil {
				p.Thresholds = make(map[string]int)
			}
			p.Thresholds[key] = v
		}
	}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Page = n
		}
	}
	if raw := strings.TrimSpace(q.Get("pageSize")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.PageSize = n
		}
	}
	return p.Normalize(l)
}

func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// nonNegative parses s as an integer, returning 0 for anything unparseable
// or negative.
func nonNegative(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
