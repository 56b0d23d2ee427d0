package loadtest

import (
	"fmt"
	"slices"

	"github.com/okian/scout/internal/domain/model"
)

// verifyCounts compares each project's vote counts against its starting
// counts plus the votes the server accepted. It returns one line per
// mismatching project, sorted by project id.
func verifyCounts(before, after map[string]model.Project, tallies map[string]tally) []string {
	var mismatches []string
	for id, start := range before {
		end, ok := after[id]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: not retrieved", id))
			continue
		}
		want := tallies[id]
		if end.Upvotes != start.Upvotes+want.Up || end.Downvotes != start.Downvotes+want.Down {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %d/%d, got %d/%d", id,
				start.Upvotes+want.Up, start.Downvotes+want.Down, end.Upvotes, end.Downvotes))
		}
	}
	slices.Sort(mismatches)
	return mismatches
}
