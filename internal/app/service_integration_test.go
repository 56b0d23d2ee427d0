package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/scout/internal/adapters/dataset"
	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration_SQLiteAndWatcher(t *testing.T) {
	Convey("Given a sqlite-backed service watching its data file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalogue.json")
		ctx := context.Background()
		So(dataset.Save(ctx, path, fixture()), ShouldBeNil)

		svc := service.New(
			service.WithStoreBackend(repository.BackendSQLite, filepath.Join(dir, "scout.db")),
			service.WithDataFile(path, true),
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { svc.Stop(ctx) })

		Convey("When the data file is rewritten", func() {
			next := fixture()
			next.Contributors = append(next.Contributors, model.Contributor{
				ID: "c3", Name: "Linus", Handle: "lt", Skills: []string{"C"}, Interests: []string{},
				Experience: model.Intermediate, Commits: 100,
			})
			So(dataset.Save(ctx, path, next), ShouldBeNil)

			Convey("Then the catalogue is reloaded and scored", func() {
				So(eventually(func() bool {
					page, err := svc.ListContributors(ctx, listing.Params{Page: 1, Categories: []string{"C"}})
					return err == nil && page.Total == 1 && page.Items[0].Score == 100
				}), ShouldBeTrue)
			})
		})

		Convey("When many votes arrive concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 50)
			for g := 0; g < 5; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 10; i++ {
						dir := model.Up
						if i%5 == 0 {
							dir = model.Down
						}
						_, err := svc.SubmitVote(ctx, model.Vote{
							VoteID: fmt.Sprintf("g%d-%d", g, i), ProjectID: "p2", UserID: "u", Direction: dir,
						})
						errs <- err
					}
				}(g)
			}
			wg.Wait()
			close(errs)

			Convey("Then every vote reaches the store", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				So(eventually(func() bool {
					p, err := svc.GetProject(ctx, "p2")
					return err == nil && p.Upvotes == 40 && p.Downvotes == 10
				}), ShouldBeTrue)

				page, err := svc.ListProjects(ctx, listing.Params{Page: 1, SortKey: listing.SortVotes})
				So(err, ShouldBeNil)
				So(page.Items[0].ID, ShouldEqual, "p2")
				So(page.Items[0].NetVotes(), ShouldEqual, 30)

				So(eventually(func() bool {
					stats, err := svc.GetStats(ctx)
					return err == nil && stats.VotesApplied == 50 && stats.QueueDepth == 0
				}), ShouldBeTrue)
			})
		})

		Convey("When readers and moderators run concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 64)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%2 == 0 {
						_, err := svc.SuggestProject(ctx, model.Project{Name: fmt.Sprintf("s%d", i), Owner: "o"})
						errs <- err
						return
					}
					_, err := svc.ListProjects(ctx, listing.Params{Page: 1, Search: "project"})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then all calls succeed", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				page, err := svc.ListSuggestions(ctx, listing.Params{Page: 1})
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 5)
			})
		})
	})
}
