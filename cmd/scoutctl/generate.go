package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/scout/internal/seed"
)

const defaultPendingRatio = 0.1

func newGenerateCmd() *cobra.Command {
	var (
		opts seed.Options
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a deterministic mock catalogue",
		Long: `Generate contributors and projects from a seed. The same flags always
produce the same catalogue. Files ending in .json are written as JSON,
anything else as YAML.`,
		Example: "  scoutctl generate --contributors 200 --projects 80 --seed 7 --out catalogue.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := seed.Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeDataset(cmd, out, ds)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Contributors, "contributors", seed.DefaultContributors, "Number of contributors")
	f.IntVar(&opts.Projects, "projects", seed.DefaultProjects, "Number of projects")
	f.Int64Var(&opts.Seed, "seed", seed.DefaultSeed, "Random seed")
	f.Float64Var(&opts.PendingRatio, "pending", defaultPendingRatio, "Fraction of projects awaiting moderation")
	f.StringVarP(&out, "out", "o", stdoutPath, `Output file; "-" writes YAML to stdout`)
	return cmd
}
