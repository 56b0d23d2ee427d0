package model_test

import (
	"testing"

	"github.com/okian/scout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestProject(t *testing.T) {
	convey.Convey("Given a project", t, func() {
		p := model.Project{
			Upvotes:   12,
			Downvotes: 5,
			Tags:      []model.Tag{{Kind: "GSoC", Verified: true}, {Kind: "Hacktoberfest"}},
		}

		convey.Convey("Then NetVotes subtracts downvotes", func() {
			convey.So(p.NetVotes(), convey.ShouldEqual, 7)
		})

		convey.Convey("Then HasTag matches tag kinds exactly", func() {
			convey.So(p.HasTag("GSoC"), convey.ShouldBeTrue)
			convey.So(p.HasTag("gsoc"), convey.ShouldBeFalse)
			convey.So(p.HasTag("LFX"), convey.ShouldBeFalse)
		})

		convey.Convey("Then it is public only when approved and visible", func() {
			convey.So(p.Public(), convey.ShouldBeFalse)
			p.Approved = true
			convey.So(p.Public(), convey.ShouldBeFalse)
			p.Visible = true
			convey.So(p.Public(), convey.ShouldBeTrue)
		})
	})
}

func TestEnums(t *testing.T) {
	convey.Convey("Given the enumerations", t, func() {
		convey.Convey("Then experience levels validate", func() {
			for _, lvl := range model.ExperienceLevels {
				convey.So(lvl.Valid(), convey.ShouldBeTrue)
			}
			convey.So(model.ExperienceLevel("Expert").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("Then vote directions validate", func() {
			convey.So(model.Up.Valid(), convey.ShouldBeTrue)
			convey.So(model.Down.Valid(), convey.ShouldBeTrue)
			convey.So(model.Direction("sideways").Valid(), convey.ShouldBeFalse)
		})
	})
}
