package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/pkg/logger"
)

// HTTPClient talks to one scout server.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request and decodes a 200 JSON reply into out.
// A nil out discards the body.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Post performs a POST request with JSON body and returns the status and body.
func (c *HTTPClient) Post(ctx context.Context, path string, in any) (int, []byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	body, err := readResponseBody(resp)
	return resp.StatusCode, body, err
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) topProjects(ctx context.Context, n int) ([]model.Project, error) {
	q := url.Values{}
	q.Set("sortBy", listing.SortVotes)
	q.Set("pageSize", strconv.Itoa(n))
	var page types.Page[model.Project]
	if err := c.Get(ctx, "/projects?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *HTTPClient) project(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	err := c.Get(ctx, "/projects/"+url.PathEscape(id), &p)
	return p, err
}

// outcome of one submission.
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeFailed
)

// tally counts accepted votes per project.
type tally struct {
	Up, Down int
}

// submitVotes sends votes concurrently and returns the accepted votes per project.
func submitVotes(ctx context.Context, client *HTTPClient, config Config, votes []Vote, stats *Stats) map[string]tally {
	log := logger.Get()
	log.Info(ctx, "submitting votes", logger.Int("votes", len(votes)), logger.Int("workers", config.Workers))

	var (
		submitted  int64
		accepted   int64
		duplicate  int64
		failed     int64
		lastReport atomic.Int64
		mu         sync.Mutex
		tallies    = make(map[string]tally)
	)

	voteChan := make(chan Vote, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for vote := range voteChan {
				switch submitSingleVote(ctx, client, vote) {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
					mu.Lock()
					t := tallies[vote.ProjectID]
					if vote.Direction == string(model.Down) {
						t.Down++
					} else {
						t.Up++
					}
					tallies[vote.ProjectID] = t
					mu.Unlock()
				case outcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				}
				total := atomic.AddInt64(&submitted, 1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Debug(ctx, "progress",
						logger.Int64("submitted", total),
						logger.Int("of", len(votes)),
						logger.Int64("accepted", atomic.LoadInt64(&accepted)),
						logger.Int64("duplicate", atomic.LoadInt64(&duplicate)),
						logger.Int64("failed", atomic.LoadInt64(&failed)))
				}
			}
		}()
	}

	go func() {
		defer close(voteChan)
		for _, vote := range votes {
			select {
			case <-ctx.Done():
				return
			case voteChan <- vote:
			}
		}
	}()

	wg.Wait()

	stats.VotesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.VotesAccepted = int(atomic.LoadInt64(&accepted))
	stats.VotesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.VotesFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "vote submission completed",
		logger.Int("accepted", stats.VotesAccepted),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("failed", stats.VotesFailed))
	return tallies
}

// submitSingleVote posts one vote. 202 means accepted, 200 a duplicate
// vote_id; anything else, including 429 backpressure, is a failure.
func submitSingleVote(ctx context.Context, client *HTTPClient, vote Vote) outcome {
	status, body, err := client.Post(ctx, "/votes", vote)
	if err != nil {
		return outcomeFailed
	}
	var ack AckResponse
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		if json.Unmarshal(body, &ack) == nil && !ack.Duplicate {
			return outcomeFailed
		}
		return outcomeDuplicate
	default:
		return outcomeFailed
	}
}
