package service

import "errors"

// Sentinel errors returned by Service. Store lookups that miss wrap
// repository.ErrNotFound instead.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidVote    = errors.New("invalid vote")
	ErrInvalidProject = errors.New("invalid project")
	ErrQueueFull      = errors.New("vote queue full")
	ErrUnavailable    = errors.New("service shutting down")
)
