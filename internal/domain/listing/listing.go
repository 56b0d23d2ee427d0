// Package listing implements the filter -> sort -> paginate pipeline behind the
// contributor and project discovery pages.
//
// Every function in this package is pure: the source collection is only read,
// results are freshly allocated, and no call can fail. Invalid input is
// normalized (see Params.Normalize) instead of being reported as an error.
package listing

import (
	"cmp"
	"sort"
)

// Predicate decides whether one record satisfies the active filters.
type Predicate[T any] func(T) bool

// Comparator orders two records; a negative result places a before b.
// A nil Comparator leaves the filtered order untouched.
type Comparator[T any] func(a, b T) int

// Result is one page of a listing plus the filtered count before slicing.
type Result[T any] struct {
	Items []T
	Total int
}

// Run filters source with match, orders the survivors with order and returns
// the requested page. source is never modified.
func Run[T any](source []T, match Predicate[T], order Comparator[T], page, pageSize int) Result[T] {
	filtered := Filter(source, match)
	Sort(filtered, order)
	return Paginate(filtered, page, pageSize)
}

// Filter returns the records of source accepted by match in their original
// order. A nil match accepts everything.
func Filter[T any](source []T, match Predicate[T]) []T {
	out := make([]T, 0, len(source))
	for _, r := range source {
		if match == nil || match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders items in place. The sort is stable, so a nil or all-equal
// comparator keeps the incoming order.
func Sort[T any](items []T, order Comparator[T]) {
	if order == nil || len(items) < 2 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return order(items[i], items[j]) < 0
	})
}

// Paginate returns items[(page-1)*pageSize : page*pageSize] together with
// len(items). A page below 1 or past the last page yields an empty slice.
// A pageSize below 1 falls back to DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) Result[T] {
	total := len(items)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 || page > TotalPages(total, pageSize) {
		return Result[T]{Items: []T{}, Total: total}
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Result[T]{Items: out, Total: total}
}

// TotalPages returns ceil(total / pageSize), or 0 when pageSize is not positive.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total < 1 {
		return 0
	}
	return (total-1)/pageSize + 1
}

// And combines predicates by logical AND, skipping nil entries. Evaluation
// stops at the first rejection; predicates are independent so the order of
// evaluation never changes the outcome.
func And[T any](preds ...Predicate[T]) Predicate[T] {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(r T) bool {
		for _, p := range active {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// descending orders records by key, highest first.
func descending[T any, K cmp.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	}
}

// atLeast accepts records whose metric reaches floor. A floor of 0 or less
// disables the filter.
func atLeast[T any](floor int, metric func(T) int) Predicate[T] {
	if floor <= 0 {
		return nil
	}
	return func(r T) bool {
		return metric(r) >= floor
	}
}
