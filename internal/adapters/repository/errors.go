package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidVote    = errors.New("invalid vote direction")
	ErrUnknownBackend = errors.New("unknown store backend")
)
