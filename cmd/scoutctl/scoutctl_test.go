package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/scout/internal/adapters/dataset"
	"github.com/okian/scout/internal/adapters/http/api"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/internal/loadtest"
	"github.com/okian/scout/internal/seed"
	"github.com/okian/scout/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// execute runs scoutctl with args and returns what it wrote to stdout.
func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	convey.Convey("Given the generate command", t, func() {
		dir := t.TempDir()

		convey.Convey("When writing a JSON file twice with the same seed", func() {
			a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
			for _, path := range []string{a, b} {
				_, err := execute("generate", "--contributors", "5", "--projects", "3", "--seed", "9", "--out", path)
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then both files hold the same catalogue", func() {
				ds, err := dataset.Load(context.Background(), a)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ds.Contributors, convey.ShouldHaveLength, 5)
				convey.So(ds.Projects, convey.ShouldHaveLength, 3)

				rawA, _ := os.ReadFile(a)
				rawB, _ := os.ReadFile(b)
				convey.So(string(rawA), convey.ShouldEqual, string(rawB))
				convey.So(strings.HasPrefix(strings.TrimSpace(string(rawA)), "{"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When writing to stdout", func() {
			out, err := execute("generate", "--contributors", "2", "--projects", "1")

			convey.Convey("Then YAML is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				ds, err := dataset.Decode([]byte(out), dataset.YAML)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ds.Contributors, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When given a positional argument", func() {
			_, err := execute("generate", "extra")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestList(t *testing.T) {
	convey.Convey("Given a generated catalogue file", t, func() {
		path := filepath.Join(t.TempDir(), "catalogue.yaml")
		ds, err := seed.Generate(context.Background(), seed.Options{Seed: 5, Contributors: 7, Projects: 6, PendingRatio: 0.5})
		convey.So(err, convey.ShouldBeNil)
		convey.So(dataset.Save(context.Background(), path, ds), convey.ShouldBeNil)

		pending := 0
		for _, p := range ds.Projects {
			if !p.Approved {
				pending++
			}
		}

		convey.Convey("When listing contributors by score", func() {
			out, err := execute("list", "contributors", "--data", path, "--sort", "score", "--page-size", "3")
			convey.So(err, convey.ShouldBeNil)

			var page types.Page[model.Contributor]
			convey.So(json.Unmarshal([]byte(out), &page), convey.ShouldBeNil)

			convey.Convey("Then the first page is returned highest score first", func() {
				convey.So(page.Total, convey.ShouldEqual, 7)
				convey.So(page.TotalPages, convey.ShouldEqual, 3)
				convey.So(page.Items, convey.ShouldHaveLength, 3)
				convey.So(page.Items[0].Score, convey.ShouldBeGreaterThanOrEqualTo, page.Items[1].Score)
				convey.So(page.Items[1].Score, convey.ShouldBeGreaterThanOrEqualTo, page.Items[2].Score)
				convey.So(page.Items[2].Score, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When listing projects by status", func() {
			all, err := execute("list", "projects", "--data", path, "--status", "all")
			convey.So(err, convey.ShouldBeNil)
			pend, err := execute("list", "projects", "--data", path, "--status", "pending")
			convey.So(err, convey.ShouldBeNil)

			var allPage, pendPage types.Page[model.Project]
			convey.So(json.Unmarshal([]byte(all), &allPage), convey.ShouldBeNil)
			convey.So(json.Unmarshal([]byte(pend), &pendPage), convey.ShouldBeNil)

			convey.Convey("Then the status filter applies", func() {
				convey.So(allPage.Total, convey.ShouldEqual, 6)
				convey.So(pendPage.Total, convey.ShouldEqual, pending)
			})
		})

		convey.Convey("When a threshold excludes everything", func() {
			out, err := execute("list", "contributors", "--data", path, "--min", "score=100000000")
			convey.So(err, convey.ShouldBeNil)

			var page types.Page[model.Contributor]
			convey.So(json.Unmarshal([]byte(out), &page), convey.ShouldBeNil)
			convey.So(page.Total, convey.ShouldEqual, 0)
			convey.So(page.Items, convey.ShouldNotBeNil)
		})

		convey.Convey("When the kind is unknown", func() {
			_, err := execute("list", "users", "--data", path)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the data file is missing", func() {
			_, err := execute("list", "projects", "--data", filepath.Join(t.TempDir(), "nope.yaml"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given no data file", t, func() {
		out, err := execute("list", "projects", "--page-size", "2")
		convey.So(err, convey.ShouldBeNil)

		var page types.Page[model.Project]
		convey.So(json.Unmarshal([]byte(out), &page), convey.ShouldBeNil)
		convey.So(page.Items, convey.ShouldHaveLength, 2)
		convey.So(page.Total, convey.ShouldEqual, seed.DefaultProjects)
	})
}

func TestImport(t *testing.T) {
	convey.Convey("Given a GitHub API that serves one repository", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /repos/okian/scout", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"id": 1, "name": "scout", "owner": {"login": "okian"}, "stargazers_count": 3}`)
		})
		mux.HandleFunc("GET /repos/okian/scout/languages", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"Go": 100}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		path := filepath.Join(t.TempDir(), "imported.json")

		convey.Convey("When importing it", func() {
			_, err := execute("import", "--api-url", srv.URL, "--rate", "1000", "--repos", "okian/scout", "--out", path)

			convey.Convey("Then the catalogue file holds the project", func() {
				convey.So(err, convey.ShouldBeNil)
				ds, err := dataset.Load(context.Background(), path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ds.Projects, convey.ShouldHaveLength, 1)
				convey.So(ds.Projects[0].Stars, convey.ShouldEqual, 3)
				convey.So(ds.Projects[0].Public(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When nothing is requested", func() {
			_, err := execute("import", "--api-url", srv.URL)
			convey.So(err, convey.ShouldEqual, errNothingToImport)
		})
	})
}

func TestLoadtest(t *testing.T) {
	convey.Convey("Given a running scout server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithSeed(seed.Options{Seed: 2, Contributors: 3, Projects: 5}), service.WithWorkerCount(2))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer func() {
			srv.Close()
			svc.Stop(context.Background())
		}()

		convey.Convey("When the load test runs", func() {
			out, err := execute("loadtest", "--url", srv.URL, "--votes", "50", "--projects", "3",
				"--workers", "4", "--settle", "5s")

			convey.Convey("Then it succeeds and prints its statistics", func() {
				convey.So(err, convey.ShouldBeNil)
				var stats loadtest.Stats
				convey.So(json.Unmarshal([]byte(out), &stats), convey.ShouldBeNil)
				convey.So(stats.VotesSubmitted, convey.ShouldEqual, 50)
				convey.So(stats.ProjectsMismatch, convey.ShouldEqual, 0)
			})
		})
	})
}
