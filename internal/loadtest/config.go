package loadtest

import (
	"runtime"
	"time"
)

// Config holds the settings of one vote load test.
type Config struct {
	BaseURL        string        // Base URL of the service
	Votes          int           // Number of votes to generate and submit
	Projects       int           // Number of top-voted projects to spread votes over
	DuplicateRatio float64       // Fraction of votes that resend an earlier vote_id
	DownRatio      float64       // Fraction of new votes that are downvotes
	Workers        int           // Number of concurrent senders
	Timeout        time.Duration // HTTP request timeout
	SettleTimeout  time.Duration // How long to wait for counts to catch up
	PollInterval   time.Duration // Delay between count checks
	Seed           uint64        // Seed for targets and directions
	OutputFile     string        // Optional JSON file for the generated votes
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Votes <= 0 {
		c.Votes = DefaultVotes
	}
	if c.Projects <= 0 {
		c.Projects = DefaultProjects
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * WorkersPerCPU
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	c.DuplicateRatio = min(max(c.DuplicateRatio, 0), 1)
	c.DownRatio = min(max(c.DownRatio, 0), 1)
	return c
}

// Vote is the POST /votes body.
type Vote struct {
	VoteID    string `json:"vote_id"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Direction string `json:"direction"`
	TS        string `json:"ts"`
}

// AckResponse is the POST /votes reply.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics.
type Stats struct {
	VotesGenerated   int
	VotesSubmitted   int
	VotesAccepted    int
	VotesDuplicate   int
	VotesFailed      int
	ProjectsChecked  int
	ProjectsMismatch int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
