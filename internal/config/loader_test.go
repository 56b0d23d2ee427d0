package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/scout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCOUT_ADDR", ":8080")
			_ = os.Setenv("SCOUT_STORE", "sqlite")
			_ = os.Setenv("SCOUT_SQLITE_PATH", "/tmp/scout-test.db")
			_ = os.Setenv("SCOUT_WORKER_COUNT", "16")
			_ = os.Setenv("SCOUT_WATCH_DATA_FILE", "false")
			_ = os.Setenv("SCOUT_SCORE_WEIGHTS__PRS", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/scout-test.db")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.WatchDataFile, convey.ShouldBeFalse)
				convey.So(cfg.ScoreWeights["prs"], convey.ShouldEqual, 5)
				convey.So(cfg.ScoreWeights["commits"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			yamlContent := `
addr: ":9090"
data_file: ./testdata/catalogue.yaml
default_page_size: 20
max_page_size: 50
dedupe_size: 600000
score_weights:
  stars: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataFile, convey.ShouldEqual, "./testdata/catalogue.yaml")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 20)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 50)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 600000)
				convey.So(cfg.ScoreWeights["stars"], convey.ShouldEqual, 2)
				convey.So(cfg.ScoreWeights["followers"], convey.ShouldEqual, 0.25)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 24\nseed: 7\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUT_CONFIG", tmpFile)
			_ = os.Setenv("SCOUT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.Seed, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SCOUT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SCOUT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the default page size exceeds the maximum", func() {
			_ = os.Setenv("SCOUT_DEFAULT_PAGE_SIZE", "500")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a number cannot be parsed", func() {
			_ = os.Setenv("SCOUT_WORKER_COUNT", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "scout-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
