package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/scout/internal/loadtest"
)

const (
	defaultDuplicateRatio = 0.05
	defaultDownRatio      = 0.25
)

func newLoadtestCmd() *cobra.Command {
	var cfg loadtest.Config
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Submit concurrent votes to a running server and verify the counts",
		Long: `Loadtest spreads votes over the most voted public projects of a running
server, resends a share of them to exercise vote_id deduplication, then polls
each project until its counts equal the starting counts plus the accepted
votes. It fails when the counts do not settle in time. Other voters hitting
the same server during the run cause false mismatches.`,
		Example: "  scoutctl loadtest --url http://localhost:9080 --votes 50000 --workers 32",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(stats); encErr != nil && err == nil {
				err = encErr
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", loadtest.DefaultBaseURL, "Base URL of the service")
	f.IntVar(&cfg.Votes, "votes", loadtest.DefaultVotes, "Number of votes to submit")
	f.IntVar(&cfg.Projects, "projects", loadtest.DefaultProjects, "Number of projects to vote on")
	f.Float64Var(&cfg.DuplicateRatio, "duplicates", defaultDuplicateRatio, "Fraction of votes resent with an earlier vote_id")
	f.Float64Var(&cfg.DownRatio, "down", defaultDownRatio, "Fraction of downvotes")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent senders (default CPU cores * 2)")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleTimeout, "settle", loadtest.DefaultSettleTimeout, "How long to wait for counts to catch up")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Seed for targets and directions")
	f.StringVarP(&cfg.OutputFile, "output", "o", "", "Write the generated votes to this JSON file")
	return cmd
}
