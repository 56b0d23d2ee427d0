package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

// folder performs Unicode case folding for case-insensitive matching.
// A cases.Caser keeps internal state, so each pipeline call owns its folder.
type folder struct {
	c cases.Caser
}

func newFolder() *folder {
	return &folder{c: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.c.String(s)
}

// contains reports whether the folded haystack contains the already folded
// needle. An empty haystack never matches a non-empty needle.
func (f *folder) contains(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(f.fold(haystack), needle)
}

// anyContains reports whether some member of set contains needle.
func (f *folder) anyContains(set []string, needle string) bool {
	for _, s := range set {
		if f.contains(s, needle) {
			return true
		}
	}
	return false
}

// hasAll reports whether every folded want is a member of have.
func (f *folder) hasAll(have []string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	present := make(map[string]struct{}, len(have))
	for _, h := range have {
		present[f.fold(h)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := present[w]; !ok {
			return false
		}
	}
	return true
}

func (f *folder) foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = f.fold(s)
	}
	return out
}
