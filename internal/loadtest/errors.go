package loadtest

import "errors"

var (
	// ErrUnhealthy is returned when the service does not answer its health check.
	ErrUnhealthy = errors.New("loadtest: service unhealthy")
	// ErrNoProjects is returned when the service lists no public projects to vote on.
	ErrNoProjects = errors.New("loadtest: no projects to vote on")
	// ErrMismatch is returned when final vote counts differ from accepted votes.
	ErrMismatch = errors.New("loadtest: vote counts do not match")
)
