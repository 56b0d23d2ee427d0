package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/scout/internal/adapters/dataset"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/internal/seed"
)

const (
	kindContributors = "contributors"
	kindProjects     = "projects"
)

func newListCmd() *cobra.Command {
	var (
		data     string
		seedOpts seed.Options
		p        listing.Params
	)
	cmd := &cobra.Command{
		Use:   "list contributors|projects",
		Short: "Filter, sort and paginate a catalogue locally",
		Long: `List runs the same pipeline as the server over a catalogue file, or over a
generated catalogue when --data is not given, and prints one JSON page.`,
		Example: `  scoutctl list contributors --data catalogue.yaml --category Go --min score=100 --sort score
  scoutctl list projects --tag GSoC --sort stars --page 2`,
		ValidArgs: []string{kindContributors, kindProjects},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			var ds model.Dataset
			if data != "" {
				ds, err = dataset.Load(ctx, data)
			} else {
				ds, err = seed.Generate(ctx, seedOpts)
			}
			if err != nil {
				return err
			}
			scorer := scoring.NewWeightedScorer(scoring.WithWeights(cfg.ScoreWeights))
			if err := scoring.FillMissing(ctx, scorer, ds.Contributors); err != nil {
				return err
			}

			params := p.Normalize(cfg.Limits())
			var page any
			switch args[0] {
			case kindContributors:
				page = types.NewPage(listing.Contributors(ds.Contributors, params), params.Page, params.PageSize)
			default:
				page = types.NewPage(listing.Projects(ds.Projects, params), params.Page, params.PageSize)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}
	f := cmd.Flags()
	f.StringVar(&data, "data", "", "Catalogue file (.yaml or .json); empty generates one")
	f.Int64Var(&seedOpts.Seed, "seed", seed.DefaultSeed, "Seed used when --data is empty")
	f.StringVarP(&p.Search, "search", "q", "", "Case-insensitive substring search")
	f.StringSliceVar(&p.Categories, "category", nil, "Required skills or languages, comma-separated or repeated")
	f.StringVar(&p.Tag, "tag", listing.All, "Program tag kind for projects")
	f.StringVar(&p.Experience, "experience", listing.All, "Experience level for contributors")
	f.StringVar(&p.Status, "status", listing.StatusApproved, "Project status: approved, pending or all")
	f.StringToIntVar(&p.Thresholds, "min", nil, "Minimum metric values, e.g. score=100,stars=10")
	f.StringVar(&p.SortKey, "sort", "", "Sort key, e.g. score, stars, recent, votes")
	f.IntVar(&p.Page, "page", 1, "1-based page number")
	f.IntVar(&p.PageSize, "page-size", listing.DefaultPageSize, "Items per page")
	return cmd
}
