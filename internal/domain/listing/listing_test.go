package listing_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/scout/internal/domain/listing"
	. "github.com/smartystreets/goconvey/convey"
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func TestPaginate(t *testing.T) {
	Convey("Given ten ordered records", t, func() {
		items := make([]int, 10)
		for i := range items {
			items[i] = i + 1
		}

		Convey("When requesting the first page of four", func() {
			res := listing.Paginate(items, 1, 4)

			Convey("Then it returns the first slice and the full total", func() {
				So(res.Items, ShouldResemble, []int{1, 2, 3, 4})
				So(res.Total, ShouldEqual, 10)
			})
		})

		Convey("When requesting the last, partial page", func() {
			res := listing.Paginate(items, 3, 4)
			So(res.Items, ShouldResemble, []int{9, 10})
			So(res.Total, ShouldEqual, 10)
		})

		Convey("When requesting page 99 of size 15", func() {
			res := listing.Paginate(items, 99, 15)

			Convey("Then items are empty and total is still 10", func() {
				So(res.Items, ShouldNotBeNil)
				So(res.Items, ShouldBeEmpty)
				So(res.Total, ShouldEqual, 10)
			})
		})

		Convey("When requesting page 0 or a negative page", func() {
			So(listing.Paginate(items, 0, 5).Items, ShouldBeEmpty)
			So(listing.Paginate(items, -3, 5).Items, ShouldBeEmpty)
			So(listing.Paginate(items, -3, 5).Total, ShouldEqual, 10)
		})

		Convey("When the page size is not positive", func() {
			res := listing.Paginate(items, 1, 0)

			Convey("Then the default page size applies", func() {
				So(len(res.Items), ShouldEqual, 10)
			})
		})

		Convey("When the page size is the largest int", func() {
			first := listing.Paginate(items, 1, math.MaxInt)
			second := listing.Paginate(items, 2, math.MaxInt)

			Convey("Then the first page holds everything and the second is empty", func() {
				So(first.Items, ShouldResemble, items)
				So(first.Total, ShouldEqual, 10)
				So(second.Items, ShouldBeEmpty)
				So(second.Total, ShouldEqual, 10)
			})
		})

		Convey("When the page is modified by the caller", func() {
			res := listing.Paginate(items, 1, 3)
			res.Items[0] = 100

			Convey("Then the input is untouched", func() {
				So(items[0], ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty collection", t, func() {
		res := listing.Paginate([]string{}, 1, 10)
		So(res.Items, ShouldBeEmpty)
		So(res.Total, ShouldEqual, 0)
	})
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{10, 3, 4},
		{10, 0, 0},
		{3, math.MaxInt, 1},
		{math.MaxInt, math.MaxInt, 1},
		{math.MaxInt, 1, math.MaxInt},
	}
	for _, tc := range cases {
		if got := listing.TotalPages(tc.total, tc.size); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}

func TestRunGeneric(t *testing.T) {
	Convey("Given a generic source", t, func() {
		source := []int{5, 3, 8, 1, 9, 2}
		even := listing.Predicate[int](func(n int) bool { return n%2 == 0 })
		desc := listing.Comparator[int](func(a, b int) int { return b - a })

		Convey("When filtering and sorting", func() {
			res := listing.Run(source, even, desc, 1, 10)

			Convey("Then only matches remain in order", func() {
				So(res.Items, ShouldResemble, []int{8, 2})
				So(res.Total, ShouldEqual, 2)
			})

			Convey("And the source keeps its order", func() {
				So(source, ShouldResemble, []int{5, 3, 8, 1, 9, 2})
			})
		})

		Convey("When the comparator is nil", func() {
			res := listing.Run(source, nil, nil, 1, 10)

			Convey("Then the original order is preserved", func() {
				So(res.Items, ShouldResemble, source)
			})
		})
	})
}

func TestAnd(t *testing.T) {
	Convey("Given a set of predicates", t, func() {
		positive := listing.Predicate[int](func(n int) bool { return n > 0 })
		small := listing.Predicate[int](func(n int) bool { return n < 10 })

		Convey("Then And accepts only when all accept", func() {
			both := listing.And(positive, small)
			So(both(5), ShouldBeTrue)
			So(both(-1), ShouldBeFalse)
			So(both(12), ShouldBeFalse)
		})

		Convey("Then evaluation order does not matter", func() {
			for _, n := range []int{-5, 0, 3, 10, 42} {
				So(listing.And(positive, small)(n), ShouldEqual, listing.And(small, positive)(n))
			}
		})

		Convey("Then nil predicates are ignored", func() {
			So(listing.And[int](), ShouldBeNil)
			So(listing.And[int](nil, nil), ShouldBeNil)
			So(listing.And(nil, positive)(3), ShouldBeTrue)
		})
	})
}

func TestNormalize(t *testing.T) {
	in := listing.Params{
		Search:     "  react  ",
		Categories: []string{" Go", "", "go", "Rust "},
		Tag:        "",
		Experience: "ALL",
		Status:     "bogus",
		Thresholds: map[string]int{"Stars": 100, "forks": 0, "score": -4},
		SortKey:    " Stars ",
		Page:       -2,
		PageSize:   500,
	}
	want := listing.Params{
		Search:     "react",
		Categories: []string{"Go", "Rust"},
		Tag:        listing.All,
		Experience: listing.All,
		Status:     listing.StatusApproved,
		Thresholds: map[string]int{"stars": 100},
		SortKey:    "stars",
		Page:       -2,
		PageSize:   listing.MaxPageSize,
	}
	if diff := cmp.Diff(want, in.Normalize(listing.DefaultLimits)); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}

	if got := (listing.Params{}).Normalize(listing.Limits{DefaultPageSize: 20, MaxPageSize: 50}).PageSize; got != 20 {
		t.Errorf("default page size = %d, want 20", got)
	}
	if got := (listing.Params{}).Normalize(listing.Limits{DefaultPageSize: 80, MaxPageSize: 50}).PageSize; got != 50 {
		t.Errorf("default above max should clamp: got %d", got)
	}
	if got := (listing.Params{}).Normalize(listing.Limits{}).PageSize; got != listing.DefaultPageSize {
		t.Errorf("zero limits should use package defaults: got %d", got)
	}
}

func TestParseQuery(t *testing.T) {
	Convey("Given raw query strings", t, func() {
		parse := func(raw string) listing.Params {
			q, err := parseValues(raw)
			So(err, ShouldBeNil)
			return listing.ParseQuery(q, listing.DefaultLimits)
		}

		Convey("When the query is empty", func() {
			p := parse("")

			Convey("Then defaults apply", func() {
				So(p.Page, ShouldEqual, 1)
				So(p.PageSize, ShouldEqual, listing.DefaultPageSize)
				So(p.Tag, ShouldEqual, listing.All)
				So(p.Experience, ShouldEqual, listing.All)
				So(p.Status, ShouldEqual, listing.StatusApproved)
				So(p.Thresholds, ShouldBeNil)
			})
		})

		Convey("When every option is given", func() {
			p := parse("q=react&skills=Go,TypeScript&skills=Rust&tag=GSoC&experience=Advanced" +
				"&minStars=100&minPRs=5&sortBy=stars&page=3&pageSize=20")

			Convey("Then they are parsed", func() {
				So(p.Search, ShouldEqual, "react")
				So(p.Categories, ShouldResemble, []string{"Go", "TypeScript", "Rust"})
				So(p.Tag, ShouldEqual, "GSoC")
				So(p.Experience, ShouldEqual, "Advanced")
				So(p.Thresholds, ShouldResemble, map[string]int{listing.MinStars: 100, listing.MinPRs: 5})
				So(p.SortKey, ShouldEqual, "stars")
				So(p.Page, ShouldEqual, 3)
				So(p.PageSize, ShouldEqual, 20)
			})
		})

		Convey("When numbers are malformed", func() {
			p := parse("minStars=lots&minForks=-3&page=two&pageSize=x")

			Convey("Then they fall back to safe values", func() {
				So(p.Thresholds, ShouldBeNil)
				So(p.Page, ShouldEqual, 1)
				So(p.PageSize, ShouldEqual, listing.DefaultPageSize)
			})
		})

		Convey("When the page is negative", func() {
			p := parse("page=-1")

			Convey("Then it is kept so the page comes back empty", func() {
				So(p.Page, ShouldEqual, -1)
			})
		})

		Convey("When search is given under both names", func() {
			So(parse("search=go&q=rust").Search, ShouldEqual, "go")
		})
	})
}

func ExampleParseQuery() {
	q, _ := parseValues("languages=Go&minStars=100&sortBy=stars&page=2")
	p := listing.ParseQuery(q, listing.DefaultLimits)
	fmt.Println(p.Categories, p.Thresholds[listing.MinStars], p.SortKey, p.Page, p.PageSize)
	// Output: [Go] 100 stars 2 15
}
