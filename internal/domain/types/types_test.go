package types_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewPage(t *testing.T) {
	Convey("Given a pipeline result", t, func() {
		res := listing.Result[string]{Items: []string{"a", "b"}, Total: 32}

		Convey("When wrapped as page 2 of size 15", func() {
			page := types.NewPage(res, 2, 15)

			Convey("Then total pages are derived from the total", func() {
				So(page.Items, ShouldResemble, []string{"a", "b"})
				So(page.Total, ShouldEqual, 32)
				So(page.Page, ShouldEqual, 2)
				So(page.PageSize, ShouldEqual, 15)
				So(page.TotalPages, ShouldEqual, 3)
			})
		})

		Convey("When the page size is the largest int", func() {
			page := types.NewPage(res, 1, math.MaxInt)

			Convey("Then there is exactly one page", func() {
				So(page.TotalPages, ShouldEqual, 1)
			})
		})

		Convey("When the result has no items", func() {
			page := types.NewPage(listing.Result[string]{Total: 4}, 9, 15)
			raw, err := json.Marshal(page)

			Convey("Then items encode as an empty array", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"items":[]`)
				So(string(raw), ShouldContainSubstring, `"total_pages":1`)
			})
		})
	})
}
