package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeightedScorer_Score(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		scorer := scoring.NewWeightedScorer()
		ctx := context.Background()

		Convey("When scoring a contributor's activity", func() {
			score, err := scorer.Score(ctx, scoring.Input{Commits: 100, PullRequests: 10, Stars: 40, Followers: 8})

			Convey("Then it returns the rounded weighted sum", func() {
				So(err, ShouldBeNil)
				// 100*1 + 10*3 + 40*0.5 + 8*0.25
				So(score, ShouldEqual, 152)
			})
		})

		Convey("When metrics are negative", func() {
			score, err := scorer.Score(ctx, scoring.Input{Commits: -5, PullRequests: 2})

			Convey("Then negatives count as zero", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 6)
			})
		})

		Convey("When the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.Score(cancelled, scoring.Input{Commits: 1})

			Convey("Then it returns the context error", func() {
				So(err, ShouldWrap, context.Canceled)
			})
		})
	})

	Convey("Given custom weights", t, func() {
		scorer := scoring.NewWeightedScorer(scoring.WithWeights(map[string]float64{
			scoring.MetricCommits: 2,
			scoring.MetricStars:   0,
			"karma":               10,
		}))

		Convey("Then positive known weights override the defaults", func() {
			So(scorer.Weight(scoring.MetricCommits), ShouldEqual, 2.0)
		})

		Convey("Then zero weights and unknown metrics are ignored", func() {
			So(scorer.Weight(scoring.MetricStars), ShouldEqual, 0.5)
			So(scorer.Weight("karma"), ShouldEqual, 0.0)
		})
	})
}

func TestFillMissing(t *testing.T) {
	Convey("Given contributors with and without scores", t, func() {
		contributors := []model.Contributor{
			{ID: "scored", Score: 999, Commits: 1},
			{ID: "unscored", Commits: 10, PullRequests: 1},
		}

		err := scoring.FillMissing(context.Background(), scoring.NewWeightedScorer(), contributors)

		Convey("Then only zero scores are computed", func() {
			So(err, ShouldBeNil)
			So(contributors[0].Score, ShouldEqual, 999)
			So(contributors[1].Score, ShouldEqual, 13)
		})
	})
}
