package main

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/okian/scout/internal/adapters/github"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/scoring"
)

var errNothingToImport = errors.New("nothing to import: pass --repos or --users")

func newImportCmd() *cobra.Command {
	var (
		token       string
		apiURL      string
		repos       []string
		users       []string
		out         string
		concurrency int
		reqRate     float64
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build a catalogue from GitHub repositories and users",
		Long: `Import fetches repositories (owner/name) and users (login) from the GitHub
API. Imported projects are approved; archived repositories are hidden.
Contributor scores use the configured score weights. Without --token the
github_token setting (SCOUT_GITHUB_TOKEN) is used.`,
		Example: "  scoutctl import --repos golang/go,spf13/cobra --users okian --out catalogue.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(repos) == 0 && len(users) == 0 {
				return errNothingToImport
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				token = cfg.GitHubToken
			}

			im, err := github.NewImporter(cmd.Context(),
				github.WithToken(token),
				github.WithBaseURL(apiURL),
				github.WithConcurrency(concurrency),
				github.WithRate(rate.Limit(reqRate)),
				github.WithScorer(scoring.NewWeightedScorer(scoring.WithWeights(cfg.ScoreWeights))),
			)
			if err != nil {
				return err
			}
			ds, err := im.Import(cmd.Context(), repos, users)
			if err != nil {
				return err
			}
			return writeDataset(cmd, out, ds)
		},
	}
	f := cmd.Flags()
	f.StringVar(&token, "token", "", "GitHub token")
	f.StringVar(&apiURL, "api-url", "", "GitHub API root, for GitHub Enterprise")
	f.StringSliceVar(&repos, "repos", nil, "Repositories as owner/name, comma-separated or repeated")
	f.StringSliceVar(&users, "users", nil, "User logins, comma-separated or repeated")
	f.StringVarP(&out, "out", "o", stdoutPath, `Output file; "-" writes YAML to stdout`)
	f.IntVar(&concurrency, "concurrency", github.DefaultConcurrency, "Parallel lookups")
	f.Float64Var(&reqRate, "rate", github.ProactiveRate, "Requests per second")
	return cmd
}
